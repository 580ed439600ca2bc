package corehttp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResourceRegistry(t *testing.T, prefix string) *Registry {
	reg, err := NewRegistry(
		WithAPIPrefix(prefix),
		WithServices(
			&Service{Name: "bucket-plural", Pattern: "/buckets"},
			&Service{Name: "bucket-object", Pattern: "/buckets/{id}"},
			&Service{Name: "collection-plural", Pattern: "/buckets/{bucket_id}/collections"},
			&Service{Name: "collection-object", Pattern: "/buckets/{bucket_id}/collections/{id}"},
			&Service{Name: "heartbeat", Pattern: "/__heartbeat__"},
		),
	)

	require.NoError(t, err)
	return reg
}

func TestStripURIPrefix(t *testing.T) {
	testData := []struct {
		prefix   string
		path     string
		expected string
	}{
		{"", "/buckets", "/buckets"},
		{"v1", "/v1/buckets", "/buckets"},
		{"v1", "/v1", ""},
		{"v1", "/v10/buckets", "/v10/buckets"},
		{"v1", "/buckets", "/buckets"},
	}

	for _, record := range testData {
		t.Run(record.prefix+record.path, func(t *testing.T) {
			reg, err := NewRegistry(WithAPIPrefix(record.prefix))
			require.NoError(t, err)
			assert.Equal(t, record.expected, reg.StripURIPrefix(record.path))
		})
	}
}

func testInstanceURISuccess(t *testing.T) {
	for _, prefix := range []string{"", "v1"} {
		t.Run(prefix, func(t *testing.T) {
			var (
				assert  = assert.New(t)
				require = require.New(t)
				reg     = newResourceRegistry(t, prefix)
				r       = reg.NewRequest(httptest.NewRequest(http.MethodGet, "/", nil))
			)

			uri, err := InstanceURI(r, "bucket", map[string]string{"id": "a"})
			require.NoError(err)
			assert.Equal("/buckets/a", uri)

			uri, err = InstanceURI(r, "collection", map[string]string{"bucket_id": "a", "id": "b"})
			require.NoError(err)
			assert.Equal("/buckets/a/collections/b", uri)
		})
	}
}

func testInstanceURIErrors(t *testing.T) {
	var (
		assert = assert.New(t)
		reg    = newResourceRegistry(t, "v1")
		r      = reg.NewRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	)

	_, err := InstanceURI(r, "group", map[string]string{"id": "a"})
	assert.ErrorIs(err, ErrNoSuchRoute)

	_, err = InstanceURI(r, "bucket", nil)
	assert.Error(err)

	_, err = InstanceURI(&Request{}, "bucket", nil)
	assert.ErrorIs(err, ErrNoRegistry)

	_, err = InstanceURI(nil, "bucket", nil)
	assert.ErrorIs(err, ErrNoRegistry)
}

func TestInstanceURI(t *testing.T) {
	t.Run("Success", testInstanceURISuccess)
	t.Run("Errors", testInstanceURIErrors)
}

func testInstanceURIRegistryDelegates(t *testing.T) {
	var (
		assert   = assert.New(t)
		reg      = newResourceRegistry(t, "v1")
		params   = map[string]string{"id": "a"}
		expected = errors.New("expected")
		called   bool
	)

	defer func(original func(*Request, string, map[string]string) (string, error)) {
		instanceURI = original
	}(instanceURI)

	instanceURI = func(r *Request, resourceName string, actual map[string]string) (string, error) {
		called = true
		assert.Same(reg, r.Registry)
		assert.Equal("bucket", resourceName)
		assert.Equal(params, actual)
		return "/fake", expected
	}

	uri, err := InstanceURIRegistry(reg, "bucket", params)
	assert.True(called)
	assert.Equal("/fake", uri)
	assert.Same(expected, err)
}

func testInstanceURIRegistryReal(t *testing.T) {
	reg := newResourceRegistry(t, "v1")
	uri, err := InstanceURIRegistry(reg, "bucket", map[string]string{"id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "/buckets/a", uri)
}

func testInstanceURIRegistryNoAuthentication(t *testing.T) {
	var authenticated bool
	reg, err := NewRegistry(
		WithAuthenticator(func(*http.Request) Identity {
			authenticated = true
			return Identity{}
		}),
		WithServices(&Service{Name: "bucket-object", Pattern: "/buckets/{id}"}),
	)

	require.NoError(t, err)

	uri, err := InstanceURIRegistry(reg, "bucket", map[string]string{"id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "/buckets/a", uri)
	assert.False(t, authenticated)
}

func testInstanceURIRegistryNil(t *testing.T) {
	uri, err := InstanceURIRegistry(nil, "bucket", map[string]string{"id": "a"})
	assert.Empty(t, uri)
	assert.ErrorIs(t, err, ErrNoRegistry)
}

func TestInstanceURIRegistry(t *testing.T) {
	t.Run("Delegates", testInstanceURIRegistryDelegates)
	t.Run("Real", testInstanceURIRegistryReal)
	t.Run("NoAuthentication", testInstanceURIRegistryNoAuthentication)
	t.Run("Nil", testInstanceURIRegistryNil)
}

func TestViewLookup(t *testing.T) {
	testData := []struct {
		uri          string
		expectedName string
		expectedVars map[string]string
	}{
		{"/buckets", "bucket", map[string]string{}},
		{"/buckets/a", "bucket", map[string]string{"id": "a"}},
		{"/buckets/a/collections", "collection", map[string]string{"bucket_id": "a"}},
		{"/buckets/a/collections/b", "collection", map[string]string{"bucket_id": "a", "id": "b"}},
		{"/__heartbeat__", "heartbeat", map[string]string{}},
	}

	reg := newResourceRegistry(t, "v1")
	for _, record := range testData {
		t.Run(record.uri, func(t *testing.T) {
			name, vars, err := ViewLookup(reg, record.uri)
			require.NoError(t, err)
			assert.Equal(t, record.expectedName, name)
			assert.Equal(t, record.expectedVars, vars)
		})
	}

	t.Run("NoRoute", func(t *testing.T) {
		_, _, err := ViewLookup(reg, "/groups/a")
		assert.ErrorIs(t, err, ErrNoRoute)
	})
}
