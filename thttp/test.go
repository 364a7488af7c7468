package thttp

import (
	"context"
	"net/http"
	"net/http/httptest"
)

// Test processes an http.Request (usually obtained from httptest.NewRequest)
// with the given handler as if it was received on the network, without a
// running server. Only useful in tests.
func Test(handler http.Handler, r *http.Request) *http.Response {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w.Result()
}

// TestCtx is Test with ctx injected into the request
func TestCtx(ctx context.Context, handler http.Handler, r *http.Request) *http.Response {
	return Test(handler, r.WithContext(ctx))
}
