package corehttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNoInvoker is returned by FollowSubrequest when neither an Invoker nor a
// Registry is available to execute a subrequest
var ErrNoInvoker = errors.New("no invoker available for subrequests")

// JSONContentType is the content type of subrequest bodies encoded by BuildRequest
const JSONContentType = "application/json; charset=utf-8"

// Invoker executes subrequests.  *Registry is the standard implementation.
type Invoker interface {
	InvokeSubrequest(*Request) (*http.Response, error)
}

// InvokerFunc is a function type that implements Invoker
type InvokerFunc func(*Request) (*http.Response, error)

// InvokeSubrequest implements Invoker
func (f InvokerFunc) InvokeSubrequest(r *Request) (*http.Response, error) {
	return f(r)
}

// StatusError is an error that maps onto an HTTP response, such as a redirect
// or a client error raised while serving a subrequest.
type StatusError struct {
	// Code is the HTTP status code
	Code int

	// Header holds any response headers, e.g. Location for redirects
	Header http.Header

	// Message is the optional response body
	Message string
}

// Error satisfies the error interface
func (se *StatusError) Error() string {
	if len(se.Message) > 0 {
		return fmt.Sprintf("%d %s: %s", se.Code, http.StatusText(se.Code), se.Message)
	}

	return fmt.Sprintf("%d %s", se.Code, http.StatusText(se.Code))
}

// StatusCode returns the HTTP status code
func (se *StatusError) StatusCode() int {
	return se.Code
}

// Response renders this error as the response to request
func (se *StatusError) Response(request *http.Request) *http.Response {
	header := se.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", se.Code, http.StatusText(se.Code)),
		StatusCode:    se.Code,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(se.Message)),
		ContentLength: int64(len(se.Message)),
		Request:       request,
	}
}

// RequestSpec describes a subrequest for BuildRequest
type RequestSpec struct {
	// Method is the HTTP method.  GET is used if unset.
	Method string

	// Path is the request path.  It is prefixed with the first path segment of the
	// original request, typically the API version, unless it already starts with it.
	Path string

	// Headers override the headers copied from the original request
	Headers map[string]string

	// Body is the request body.  Strings and byte slices are sent as is, and anything
	// else is encoded as JSON.
	Body interface{}
}

// apiPrefix returns the first segment of path, with its leading slash
func apiPrefix(path string) string {
	segments := strings.SplitN(path, "/", 3)
	if len(segments) < 2 {
		return "/"
	}

	return "/" + segments[1]
}

func encodeBody(body interface{}) ([]byte, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil

	case string:
		return []byte(b), false, nil

	case []byte:
		return b, false, nil

	default:
		encoded, err := json.Marshal(b)
		return encoded, true, err
	}
}

// BuildRequest creates a subrequest of original.  Headers are copied from original
// and then overridden by spec.Headers.  Content-Length is never copied.  The subrequest
// shares original's registry, identity, and invoker, and its Parent is original.
func BuildRequest(original *Request, spec RequestSpec) (*Request, error) {
	path := spec.Path
	if prefix := apiPrefix(original.URL.Path); !strings.HasPrefix(path, prefix) {
		path = prefix + path
	}

	method := spec.Method
	if len(method) == 0 {
		method = http.MethodGet
	}

	header := original.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	for name, value := range spec.Headers {
		header.Set(name, value)
	}

	header.Del("Content-Length")

	body, isJSON, err := encodeBody(spec.Body)
	if err != nil {
		return nil, err
	}

	if isJSON {
		header.Set("Content-Type", JSONContentType)
	}

	request, err := http.NewRequestWithContext(original.Context(), method, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	request.Header = header
	request.Host = original.Host
	request.RemoteAddr = original.RemoteAddr

	sub := &Request{
		Registry:            original.Registry,
		EffectivePrincipals: original.EffectivePrincipals,
		PrefixedUserID:      original.PrefixedUserID,
		Parent:              original,
		Invoker:             original.Invoker,
	}

	if sub.Registry != nil {
		sub.MatchedPattern, _ = sub.Registry.match(request)
	}

	sub.bind(request)
	return sub, nil
}

// redirect creates the request that follows sub to location.  The method, headers,
// body, parent, and bound data of sub are preserved.
func redirect(sub *Request, location string) (*Request, error) {
	var body io.Reader = http.NoBody
	if sub.GetBody != nil {
		rc, err := sub.GetBody()
		if err != nil {
			return nil, err
		}

		body = rc
	}

	request, err := http.NewRequestWithContext(sub.Context(), sub.Method, location, body)
	if err != nil {
		return nil, err
	}

	request.Header = sub.Header.Clone()
	request.Host = sub.Host
	request.RemoteAddr = sub.RemoteAddr

	next := &Request{
		Registry:            sub.Registry,
		EffectivePrincipals: sub.EffectivePrincipals,
		PrefixedUserID:      sub.PrefixedUserID,
		Parent:              sub.Parent,
		BoundData:           sub.BoundData,
		Invoker:             sub.Invoker,
	}

	if next.Registry != nil {
		next.MatchedPattern, _ = next.Registry.match(request)
	}

	next.bind(request)
	return next, nil
}

func (r *Request) invoker() Invoker {
	switch {
	case r.Invoker != nil:
		return r.Invoker

	case r.Registry != nil:
		return r.Registry

	default:
		return nil
	}
}

// FollowSubrequest executes sub on behalf of r.  A *StatusError below 500 is rendered
// as a response; any other error is returned as is.  If the response is a redirect
// with a Location, that location is requested once and its response returned along
// with the request that produced it.
func FollowSubrequest(r *Request, sub *Request) (*http.Response, *Request, error) {
	invoker := r.invoker()
	if invoker == nil {
		return nil, sub, ErrNoInvoker
	}

	response, err := invoker.InvokeSubrequest(sub)
	if err != nil {
		var se *StatusError
		if !errors.As(err, &se) || se.Code >= http.StatusInternalServerError {
			return nil, sub, err
		}

		response = se.Response(sub.Request)
	}

	if response == nil {
		return nil, sub, nil
	}

	location := response.Header.Get("Location")
	if response.StatusCode < 300 || response.StatusCode >= 400 || len(location) == 0 {
		return response, sub, nil
	}

	if response.Body != nil {
		response.Body.Close()
	}

	next, err := redirect(sub, location)
	if err != nil {
		return nil, sub, err
	}

	response, err = invoker.InvokeSubrequest(next)
	return response, next, err
}
