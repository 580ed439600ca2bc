package corehttp

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrServiceName indicates that a Service was registered without a name
	ErrServiceName = errors.New("a service must have a name")

	// ErrServicePattern indicates that a Service was registered without a pattern
	ErrServicePattern = errors.New("a service must have a pattern")

	// ErrDuplicateService indicates that a route pattern was registered twice
	ErrDuplicateService = errors.New("a service is already registered for that pattern")
)

// Service is a set of handlers, keyed by HTTP method, bound to a single route.
type Service struct {
	// Name is the route name.  Resources conventionally use "<resource>-object"
	// and "<resource>-plural", which InstanceURI and ViewLookup rely upon.
	Name string

	// Pattern is the gorilla/mux path template, relative to the API prefix,
	// e.g. "/buckets/{id}".
	Pattern string

	// Handlers maps HTTP methods onto handlers.  Requests with other methods
	// receive a 405.
	Handlers map[string]http.Handler
}

// ServeHTTP dispatches to the handler for the request method
func (s *Service) ServeHTTP(response http.ResponseWriter, request *http.Request) {
	if h, ok := s.Handlers[request.Method]; ok {
		h.ServeHTTP(response, request)
		return
	}

	allowed := make([]string, 0, len(s.Handlers))
	for method := range s.Handlers {
		allowed = append(allowed, method)
	}

	sort.Strings(allowed)
	response.Header().Set("Allow", strings.Join(allowed, ", "))
	response.WriteHeader(http.StatusMethodNotAllowed)
}

// Identity is what an Authenticator knows about the caller of a request
type Identity struct {
	// PrefixedUserID is the user id qualified by its authentication
	// method, e.g. "basic:foo".
	PrefixedUserID string

	// Principals are the effective principals of the caller
	Principals []string
}

// Authenticator determines the Identity for a request.  Authentication itself
// is not implemented by this package.
type Authenticator func(*http.Request) Identity

// RegistryOption is a functional option for NewRegistry
type RegistryOption func(*Registry) error

// WithAPIPrefix sets the path prefix of every service, e.g. "v1".  Surrounding
// slashes are ignored.
func WithAPIPrefix(prefix string) RegistryOption {
	return func(r *Registry) error {
		r.prefix = strings.Trim(prefix, "/")
		return nil
	}
}

// WithMiddleware appends middleware that runs ahead of routing for every request
func WithMiddleware(c ...alice.Constructor) RegistryOption {
	return func(r *Registry) error {
		r.chain = r.chain.Append(c...)
		return nil
	}
}

// WithLogger sets the zap logger used for request logging.  A nil logger
// is ignored.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) error {
		if l != nil {
			r.logger = l
		}

		return nil
	}
}

// WithAuthenticator sets the strategy used to determine the Identity of each request
func WithAuthenticator(a Authenticator) RegistryOption {
	return func(r *Registry) error {
		r.authenticate = a
		return nil
	}
}

// WithServices registers services as part of construction
func WithServices(s ...*Service) RegistryOption {
	return func(r *Registry) error {
		return r.AddServices(s...)
	}
}

// Registry holds the router and the set of registered services.  A Registry is an
// http.Handler and an Invoker for subrequests.
type Registry struct {
	router       *mux.Router
	prefix       string
	services     map[string]*Service
	chain        alice.Chain
	logger       *zap.Logger
	authenticate Authenticator
	handler      http.Handler
}

// NewRegistry builds a Registry.  All option errors are returned together.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		router:   mux.NewRouter(),
		services: make(map[string]*Service),
		chain:    alice.New(),
		logger:   zap.NewNop(),
	}

	var err error
	for _, o := range opts {
		err = multierr.Append(err, o(r))
	}

	if err != nil {
		return nil, err
	}

	// router middleware only runs on a match, when the route is known
	r.router.Use(r.decorate)
	r.handler = r.chain.Then(r.router)
	return r, nil
}

// APIPrefix returns the API prefix without slashes, e.g. "v1".  This can be empty.
func (r *Registry) APIPrefix() string {
	return r.prefix
}

// Router exposes the underlying router, which allows routes beyond the registered
// services
func (r *Registry) Router() *mux.Router {
	return r.router
}

// Logger returns the registry's logger, which is never nil
func (r *Registry) Logger() *zap.Logger {
	return r.logger
}

// template returns the full path template for a service pattern
func (r *Registry) template(pattern string) string {
	if len(r.prefix) == 0 {
		return pattern
	}

	return "/" + r.prefix + pattern
}

// AddService registers a service with the router.  The service is keyed by its
// full path template, including the API prefix.
func (r *Registry) AddService(s *Service) error {
	switch {
	case len(s.Name) == 0:
		return ErrServiceName

	case len(s.Pattern) == 0:
		return fmt.Errorf("%w: %s", ErrServicePattern, s.Name)
	}

	template := r.template(s.Pattern)
	if _, exists := r.services[template]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, template)
	}

	route := r.router.Handle(template, s).Name(s.Name)
	if err := route.GetError(); err != nil {
		return err
	}

	r.services[template] = s
	return nil
}

// AddServices registers several services, returning all errors together
func (r *Registry) AddServices(s ...*Service) (err error) {
	for _, service := range s {
		err = multierr.Append(err, r.AddService(service))
	}

	return
}

// Service returns the service registered under a full path template, or nil
func (r *Registry) Service(template string) *Service {
	return r.services[template]
}

// Services returns the full path templates of all registered services, sorted
func (r *Registry) Services() []string {
	templates := make([]string, 0, len(r.services))
	for t := range r.services {
		templates = append(templates, t)
	}

	sort.Strings(templates)
	return templates
}

// match returns the path template of the route matching request, if any
func (r *Registry) match(request *http.Request) (string, *mux.RouteMatch) {
	var rm mux.RouteMatch
	if !r.router.Match(request, &rm) || rm.Route == nil {
		return "", nil
	}

	template, _ := rm.Route.GetPathTemplate()
	return template, &rm
}

// ServeHTTP runs the middleware chain and then routes the request
func (r *Registry) ServeHTTP(response http.ResponseWriter, request *http.Request) {
	r.handler.ServeHTTP(response, request)
}

// InvokeSubrequest serves sub in-process and returns the recorded response.
func (r *Registry) InvokeSubrequest(sub *Request) (*http.Response, error) {
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, sub.Request.WithContext(WithRequest(sub.Context(), sub)))
	return recorder.Result(), nil
}
