package corehttp

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xmidt-org/corekit"
	"github.com/xmidt-org/httpaux/observe"
	"go.uber.org/zap"
)

const (
	// Authenticated is the principal shared by every authenticated caller
	Authenticated = "system.Authenticated"

	// Everyone is the principal shared by every caller
	Everyone = "system.Everyone"
)

// Request decorates an *http.Request with the context that request utilities need.
type Request struct {
	*http.Request

	// Registry is the registry serving this request
	Registry *Registry

	// MatchedPattern is the full path template of the matched route.  It is empty
	// when no route matched.
	MatchedPattern string

	// EffectivePrincipals are the principals supplied by authentication
	EffectivePrincipals []string

	// PrefixedUserID is the authenticated user id, e.g. "basic:foo"
	PrefixedUserID string

	// Principals holds the result of the last PrefixedPrincipals call
	Principals []string

	// Parent is the request that built this one.  It is nil for requests
	// that did not originate as subrequests.
	Parent *Request

	// BoundData is arbitrary data shared between a request and its subrequests
	BoundData corekit.Dict

	// Invoker executes subrequests.  If unset, the Registry is used.
	Invoker Invoker

	logFields []zap.Field
}

type requestContextKey struct{}

// WithRequest returns a context carrying r
func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestContextKey{}, r)
}

// FromContext returns the *Request stored in ctx, if any
func FromContext(ctx context.Context) (*Request, bool) {
	r, ok := ctx.Value(requestContextKey{}).(*Request)
	return r, ok
}

// NewRequest decorates request for this registry.  The returned Request's
// embedded *http.Request carries the decoration in its context.
func (r *Registry) NewRequest(request *http.Request) *Request {
	decorated := &Request{
		Registry: r,
	}

	if r.authenticate != nil {
		id := r.authenticate(request)
		decorated.PrefixedUserID = id.PrefixedUserID
		decorated.EffectivePrincipals = id.Principals
	}

	decorated.MatchedPattern, _ = r.match(request)
	decorated.bind(request)
	return decorated
}

// bind points r at request, storing r in the request's context
func (r *Request) bind(request *http.Request) {
	r.Request = request.WithContext(WithRequest(request.Context(), r))
}

// decorate is the router middleware that makes a *Request available to handlers.
// Requests that already carry a decoration, such as invoked subrequests, keep it.
func (r *Registry) decorate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		var decorated *Request
		if existing, ok := FromContext(request.Context()); ok {
			clone := *existing
			decorated = &clone
			decorated.bind(request)
		} else {
			decorated = r.NewRequest(request)
		}

		if route := mux.CurrentRoute(request); route != nil {
			decorated.MatchedPattern, _ = route.GetPathTemplate()
		}

		ow := observe.New(response)
		next.ServeHTTP(ow, decorated.Request)

		code := ow.StatusCode()
		if code == 0 {
			// nothing written means net/http's implicit 200
			code = http.StatusOK
		}

		Logger(decorated).Info(
			"request.summary",
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.Int("code", code),
		)
	})
}

// CurrentService returns the service registered for the route r matched.  If no
// route matched, or the matched pattern has no service, this function returns nil.
func CurrentService(r *Request) *Service {
	if r == nil || r.Registry == nil || len(r.MatchedPattern) == 0 {
		return nil
	}

	return r.Registry.Service(r.MatchedPattern)
}

// PrefixedPrincipals returns the effective principals of r with the bare user id
// replaced by the prefixed user id, e.g. "foo" becomes "basic:foo".  Only authenticated
// requests are rewritten.  The result is also stored in r.Principals.
func PrefixedPrincipals(r *Request) []string {
	principals := r.EffectivePrincipals
	if !contains(principals, Authenticated) {
		r.Principals = principals
		return principals
	}

	userID := r.PrefixedUserID
	if _, unprefixed, found := strings.Cut(userID, ":"); found {
		userID = unprefixed
	}

	filtered := make([]string, 0, len(principals)+1)
	for _, p := range principals {
		if p != userID {
			filtered = append(filtered, p)
		}
	}

	if len(r.PrefixedUserID) > 0 && !contains(filtered, r.PrefixedUserID) {
		filtered = append([]string{r.PrefixedUserID}, filtered...)
	}

	r.Principals = filtered
	return filtered
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}

	return false
}
