package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseLookup(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "34.050000", r.URL.Query().Get("lat"))
		_, err := fmt.Fprint(w, `{"neighborhood": "Downtown", "city": "Los Angeles", "state": "CA"}`)
		assert.NoError(t, err)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 100)
	require.NoError(t, err)

	a, err := c.ReverseLookup(context.Background(), 34.05, -118.24)
	require.NoError(t, err)
	assert.Equal(t, "Downtown", a.Neighborhood)

	// Cached on the second call.
	name, err := c.ResolveArea(context.Background(), 34.05, -118.24)
	require.NoError(t, err)
	assert.Equal(t, "Downtown", name)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolveAreaFallsBackToCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := fmt.Fprint(w, `{"city": "Santa Monica"}`)
		assert.NoError(t, err)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 100)
	require.NoError(t, err)

	name, err := c.ResolveArea(context.Background(), 34.01, -118.49)
	require.NoError(t, err)
	assert.Equal(t, "Santa Monica", name)
}

func TestReverseLookupErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 100)
	require.NoError(t, err)

	_, err = c.ReverseLookup(context.Background(), 34.05, -118.24)
	assert.ErrorContains(t, err, "unexpected status 503")

	_, err = NewClient("", 1)
	assert.Error(t, err)
}

func TestReverseLookupCanceled(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", 100)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ReverseLookup(ctx, 34.05, -118.24)
	assert.Error(t, err)
}
