package thttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ridge/ringsource/test"
	"github.com/ridge/ringsource/tlog"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := tlog.WithLogger(test.Context(t), zap.New(core))

	var status int
	handler := Log(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tlog.Get(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(CaptureStatus(w, &status), httptest.NewRequest(http.MethodGet, "/ring/events", nil).WithContext(ctx))
	require.Equal(t, http.StatusTeapot, status)

	requestID := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, requestID)

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, "inside", entries[1].Message)
	require.Equal(t, requestID, entries[1].ContextMap()["requestID"])
	require.Equal(t, "/ring/events", entries[1].ContextMap()["url"])
	require.Equal(t, int64(http.StatusTeapot), entries[2].ContextMap()["statusCode"])
}
