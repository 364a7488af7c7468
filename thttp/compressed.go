package thttp

import (
	"net/http"

	"github.com/kevinpollet/nego"
)

// ShouldGzip returns if the request asks for a gzip-compressed response
func ShouldGzip(r *http.Request) bool {
	// nego picks gzip when there is no Accept-Encoding at all
	return r.Header.Get("Accept-Encoding") != "" && nego.NegotiateContentEncoding(r, "gzip") == "gzip"
}

// NegotiateContentType returns the offered media type preferred by the
// request's Accept header, or the first offer if the client accepts anything
func NegotiateContentType(r *http.Request, offers ...string) string {
	if r.Header.Get("Accept") == "" {
		return offers[0]
	}
	if t := nego.NegotiateContentType(r, offers...); t != "" {
		return t
	}
	return offers[0]
}
