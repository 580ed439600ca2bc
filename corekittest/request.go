// Package corekittest supplies test doubles for code built on corehttp.
package corekittest

import (
	"net/http"
	"net/http/httptest"

	"github.com/xmidt-org/corekit/corehttp"
)

// RequestOption tailors a dummy request
type RequestOption func(*corehttp.Request)

// WithPath sets the method and path of the underlying *http.Request
func WithPath(method, path string) RequestOption {
	return func(r *corehttp.Request) {
		r.Request = httptest.NewRequest(method, path, nil).WithContext(
			corehttp.WithRequest(r.Context(), r),
		)
	}
}

// WithRegistry binds the dummy request to a registry
func WithRegistry(reg *corehttp.Registry) RequestOption {
	return func(r *corehttp.Request) {
		r.Registry = reg
	}
}

// WithIdentity sets the authentication state of the dummy request
func WithIdentity(prefixedUserID string, principals ...string) RequestOption {
	return func(r *corehttp.Request) {
		r.PrefixedUserID = prefixedUserID
		r.EffectivePrincipals = principals
	}
}

// WithInvoker sets the Invoker for subrequests
func WithInvoker(i corehttp.Invoker) RequestOption {
	return func(r *corehttp.Request) {
		r.Invoker = i
	}
}

// NewDummyRequest creates a decorated GET / request bound to an empty registry.
// Fields may be set directly on the result or through options.
func NewDummyRequest(opts ...RequestOption) *corehttp.Request {
	reg, err := corehttp.NewRegistry()
	if err != nil {
		// an option-less registry cannot fail
		panic(err)
	}

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	r := reg.NewRequest(request)
	for _, o := range opts {
		o(r)
	}

	return r
}
