package thttp

import (
	"net/http"

	"github.com/gorilla/handlers"
)

var (
	allowedMethods = []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodOptions,
	}
	allowedHeaders = []string{
		"Accept",
		"Accept-Encoding",
		"Cache-Control",
		"User-Agent",
		"X-Requested-With",
	}
	exposedHeaders = []string{
		"Content-Length",
		http.CanonicalHeaderKey(RequestIDHeader),
	}
)

// CORS is a middleware that allows cross-origin reads of the ring server
var CORS = handlers.CORS(
	handlers.AllowedMethods(allowedMethods),
	handlers.AllowedHeaders(allowedHeaders),
	handlers.ExposedHeaders(exposedHeaders),
	handlers.AllowedOrigins([]string{"*"}),
)
