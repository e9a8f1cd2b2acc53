package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteListing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	listing := decodeBody[RouteListing](t, w)
	assert.Equal(t, "codetech-test", listing.Service)
	assert.Contains(t, listing.Routes, RouteInfo{Method: http.MethodPost, Path: "/quiz/:id/:levelId/submit"})
	assert.Contains(t, listing.Routes, RouteInfo{Method: http.MethodDelete, Path: "/admin/user/:id"})

	for i := 1; i < len(listing.Routes); i++ {
		prev, cur := listing.Routes[i-1], listing.Routes[i]
		assert.True(t, prev.Path < cur.Path || (prev.Path == cur.Path && prev.Method <= cur.Method), "routes not sorted at %d", i)
	}
}
