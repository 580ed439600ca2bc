package corehttp

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNoRegistry is returned when a request is not bound to a Registry
	ErrNoRegistry = errors.New("the request has no registry")

	// ErrNoSuchRoute is returned when a named route does not exist
	ErrNoSuchRoute = errors.New("no such route")

	// ErrNoRoute is returned by ViewLookup when a URI matches no route
	ErrNoRoute = errors.New("URI has no route")
)

// StripURIPrefix removes the API prefix, e.g. "/v1", from the start of path
func (r *Registry) StripURIPrefix(path string) string {
	if len(r.prefix) == 0 {
		return path
	}

	prefix := "/" + r.prefix
	if path == prefix || strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix):]
	}

	return path
}

// InstanceURI returns the URI of a single resource instance, relative to the API
// prefix.  It reverses the route named "<resourceName>-object" with params as its
// path variables.
func InstanceURI(r *Request, resourceName string, params map[string]string) (string, error) {
	if r == nil || r.Registry == nil {
		return "", ErrNoRegistry
	}

	name := resourceName + "-object"
	route := r.Registry.router.Get(name)
	if route == nil {
		return "", fmt.Errorf("%w: %s", ErrNoSuchRoute, name)
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, key, params[key])
	}

	u, err := route.URLPath(pairs...)
	if err != nil {
		return "", err
	}

	return r.Registry.StripURIPrefix(u.Path), nil
}

// instanceURI is swapped out by tests
var instanceURI = InstanceURI

// InstanceURIRegistry is InstanceURI for code that has a Registry but no request.
// A bare Request bound to reg is used, so no authentication or routing takes place.
// A nil reg results in ErrNoRegistry.
func InstanceURIRegistry(reg *Registry, resourceName string, params map[string]string) (string, error) {
	return instanceURI(&Request{Registry: reg}, resourceName, params)
}

// ViewLookup matches uri, relative to the API prefix, against the registered routes.
// It returns the resource name, i.e. the route name without its "-object" or
// "-plural" suffix, together with the route's path variables.
func ViewLookup(reg *Registry, uri string) (string, map[string]string, error) {
	path := uri
	if len(reg.prefix) > 0 {
		path = "/" + reg.prefix + uri
	}

	request, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return "", nil, err
	}

	_, rm := reg.match(request)
	if rm == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrNoRoute, uri)
	}

	name := rm.Route.GetName()
	name = strings.TrimSuffix(name, "-object")
	name = strings.TrimSuffix(name, "-plural")

	vars := rm.Vars
	if vars == nil {
		vars = make(map[string]string)
	}

	return name, vars, nil
}
