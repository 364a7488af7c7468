package thttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShouldGzip(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ring/events", nil)
	require.False(t, ShouldGzip(r))

	r.Header.Set("Accept-Encoding", "gzip, deflate")
	require.True(t, ShouldGzip(r))

	r.Header.Set("Accept-Encoding", "identity")
	require.False(t, ShouldGzip(r))
}

func TestNegotiateContentType(t *testing.T) {
	offers := []string{"application/octet-stream", "application/x-ndjson"}

	r := httptest.NewRequest(http.MethodGet, "/ring/events", nil)
	require.Equal(t, "application/octet-stream", NegotiateContentType(r, offers...))

	r.Header.Set("Accept", "application/x-ndjson")
	require.Equal(t, "application/x-ndjson", NegotiateContentType(r, offers...))

	r.Header.Set("Accept", "text/html")
	require.Equal(t, "application/octet-stream", NegotiateContentType(r, offers...))
}
