package corekittest

import (
	"net/http"

	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/corekit/corehttp"
)

// MockInvoker is a mocked corehttp.Invoker
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) InvokeSubrequest(r *corehttp.Request) (*http.Response, error) {
	args := m.Called(r)
	response, _ := args.Get(0).(*http.Response)
	return response, args.Error(1)
}

// ExpectInvoke sets up an expectation for any subrequest
func (m *MockInvoker) ExpectInvoke(response *http.Response, err error) *mock.Call {
	return m.On("InvokeSubrequest", mock.Anything).Return(response, err)
}

// ExpectInvokePath sets up an expectation for a subrequest to a given path
func (m *MockInvoker) ExpectInvokePath(path string, response *http.Response, err error) *mock.Call {
	return m.On(
		"InvokeSubrequest",
		mock.MatchedBy(func(r *corehttp.Request) bool {
			return r.URL.Path == path
		}),
	).Return(response, err)
}
