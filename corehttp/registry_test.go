package corehttp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justinas/alice"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

func writeBody(body string) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, _ *http.Request) {
		response.Write([]byte(body))
	})
}

func headerMiddleware(name, value string) alice.Constructor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			response.Header().Add(name, value)
			next.ServeHTTP(response, request)
		})
	}
}

type RegistrySuite struct {
	suite.Suite
}

func (suite *RegistrySuite) newRegistry(opts ...RegistryOption) *Registry {
	r, err := NewRegistry(opts...)
	suite.Require().NoError(err)
	suite.Require().NotNil(r)
	return r
}

func (suite *RegistrySuite) serve(r *Registry, method, path string) *httptest.ResponseRecorder {
	response := httptest.NewRecorder()
	r.ServeHTTP(response, httptest.NewRequest(method, path, nil))
	return response
}

func (suite *RegistrySuite) TestDefaults() {
	r := suite.newRegistry()
	suite.Empty(r.APIPrefix())
	suite.NotNil(r.Router())
	suite.NotNil(r.Logger())
	suite.Empty(r.Services())
}

func (suite *RegistrySuite) TestOptions() {
	logger := zap.NewExample()
	r := suite.newRegistry(
		WithAPIPrefix("/v1/"),
		WithLogger(logger),
		WithLogger(nil),
	)

	suite.Equal("v1", r.APIPrefix())
	suite.Same(logger, r.Logger())
}

func (suite *RegistrySuite) TestOptionErrors() {
	expected := errors.New("expected")
	r, err := NewRegistry(
		func(*Registry) error { return expected },
		WithServices(&Service{Pattern: "/nameless"}),
	)

	suite.Nil(r)
	suite.ErrorIs(err, expected)
	suite.ErrorIs(err, ErrServiceName)
}

func (suite *RegistrySuite) TestAddService() {
	var (
		r       = suite.newRegistry(WithAPIPrefix("v1"))
		buckets = &Service{Name: "bucket-plural", Pattern: "/buckets"}
		bucket  = &Service{Name: "bucket-object", Pattern: "/buckets/{id}"}
	)

	suite.NoError(r.AddServices(bucket, buckets))
	suite.Equal([]string{"/v1/buckets", "/v1/buckets/{id}"}, r.Services())
	suite.Same(buckets, r.Service("/v1/buckets"))
	suite.Same(bucket, r.Service("/v1/buckets/{id}"))
	suite.Nil(r.Service("/buckets"))

	suite.ErrorIs(
		r.AddService(&Service{Name: "duplicate", Pattern: "/buckets"}),
		ErrDuplicateService,
	)

	suite.ErrorIs(r.AddService(&Service{Name: "patternless"}), ErrServicePattern)
	suite.Error(r.AddService(&Service{Name: "bad", Pattern: "/{"}))
	suite.Len(r.Services(), 2)
}

func (suite *RegistrySuite) TestServeHTTP() {
	r := suite.newRegistry(
		WithAPIPrefix("v1"),
		WithMiddleware(headerMiddleware("X-Order", "first"), headerMiddleware("X-Order", "second")),
		WithServices(&Service{
			Name:    "bucket-object",
			Pattern: "/buckets/{id}",
			Handlers: map[string]http.Handler{
				http.MethodGet: writeBody("get"),
				http.MethodPut: writeBody("put"),
			},
		}),
	)

	suite.Run("Get", func() {
		response := suite.serve(r, http.MethodGet, "/v1/buckets/a")
		suite.Equal(http.StatusOK, response.Code)
		suite.Equal("get", response.Body.String())
		suite.Equal([]string{"first", "second"}, response.Header().Values("X-Order"))
	})

	suite.Run("Put", func() {
		response := suite.serve(r, http.MethodPut, "/v1/buckets/a")
		suite.Equal("put", response.Body.String())
	})

	suite.Run("MethodNotAllowed", func() {
		response := suite.serve(r, http.MethodDelete, "/v1/buckets/a")
		suite.Equal(http.StatusMethodNotAllowed, response.Code)
		suite.Equal("GET, PUT", response.Header().Get("Allow"))
	})

	suite.Run("NotFound", func() {
		response := suite.serve(r, http.MethodGet, "/buckets/a")
		suite.Equal(http.StatusNotFound, response.Code)
	})
}

func (suite *RegistrySuite) TestDecoration() {
	var (
		r = suite.newRegistry(
			WithAPIPrefix("v1"),
			WithAuthenticator(func(request *http.Request) Identity {
				return Identity{
					PrefixedUserID: "basic:" + request.Header.Get("X-User"),
					Principals:     []string{request.Header.Get("X-User"), Authenticated},
				}
			}),
		)

		decorated *Request
		service   = &Service{
			Name:    "bucket-object",
			Pattern: "/buckets/{id}",
			Handlers: map[string]http.Handler{
				http.MethodGet: http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
					decorated, _ = FromContext(request.Context())
				}),
			},
		}
	)

	suite.Require().NoError(r.AddService(service))

	request := httptest.NewRequest(http.MethodGet, "/v1/buckets/a", nil)
	request.Header.Set("X-User", "foo")
	r.ServeHTTP(httptest.NewRecorder(), request)

	suite.Require().NotNil(decorated)
	suite.Same(r, decorated.Registry)
	suite.Equal("/v1/buckets/{id}", decorated.MatchedPattern)
	suite.Same(service, CurrentService(decorated))
	suite.Equal("basic:foo", decorated.PrefixedUserID)
	suite.Equal([]string{"basic:foo", Authenticated}, PrefixedPrincipals(decorated))
	suite.Nil(decorated.Parent)

	fromRequest, ok := FromContext(decorated.Context())
	suite.True(ok)
	suite.Same(decorated, fromRequest)
}

func (suite *RegistrySuite) TestNewRequest() {
	r := suite.newRegistry(
		WithServices(&Service{Name: "bucket-plural", Pattern: "/buckets"}),
	)

	matched := r.NewRequest(httptest.NewRequest(http.MethodGet, "/buckets", nil))
	suite.Equal("/buckets", matched.MatchedPattern)
	suite.NotNil(CurrentService(matched))

	unmatched := r.NewRequest(httptest.NewRequest(http.MethodGet, "/nosuch", nil))
	suite.Empty(unmatched.MatchedPattern)
	suite.Nil(CurrentService(unmatched))
}

func (suite *RegistrySuite) TestFlusher() {
	var (
		flushable bool
		r         = suite.newRegistry(
			WithServices(&Service{
				Name:    "changes-plural",
				Pattern: "/changes",
				Handlers: map[string]http.Handler{
					http.MethodGet: http.HandlerFunc(func(response http.ResponseWriter, _ *http.Request) {
						var f http.Flusher
						f, flushable = response.(http.Flusher)
						response.Write([]byte("chunk"))
						if flushable {
							f.Flush()
						}
					}),
				},
			}),
		)
	)

	response := suite.serve(r, http.MethodGet, "/changes")
	suite.True(flushable)
	suite.True(response.Flushed)
	suite.Equal("chunk", response.Body.String())
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}
