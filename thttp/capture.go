package thttp

import "net/http"

// CaptureStatus wraps a http.ResponseWriter to capture the response status
// code into *status.
//
// The returned writer keeps the http.Hijacker and http.Flusher abilities of
// the original one: the ring server needs both, for WebSocket upgrades and
// for streaming records.
func CaptureStatus(w http.ResponseWriter, status *int) http.ResponseWriter {
	cs := captureStatus{ResponseWriter: w, status: status}
	if h, ok := w.(http.Hijacker); ok {
		cs.Hijacker = h
	}
	if f, ok := w.(http.Flusher); ok {
		cs.Flusher = f
	}
	return cs
}

type captureStatus struct {
	http.ResponseWriter
	http.Hijacker
	http.Flusher
	status *int
}

func (cs captureStatus) Write(b []byte) (int, error) {
	if *cs.status == 0 {
		*cs.status = http.StatusOK
	}
	return cs.ResponseWriter.Write(b)
}

func (cs captureStatus) WriteHeader(statusCode int) {
	*cs.status = statusCode
	cs.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher; it does nothing if the wrapped writer can't
// flush
func (cs captureStatus) Flush() {
	if cs.Flusher != nil {
		cs.Flusher.Flush()
	}
}
