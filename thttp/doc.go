// Package thttp contains the HTTP server plumbing of the ring server.
//
// thttp.Server is controlled by the context passed to its Run method instead
// of the start-and-stop paradigm of http.Server, so it fits into parallel.Run
// hierarchies. Every request context descends from that context and thus
// carries its logger; during shutdown it stays open a little longer so that
// running requests, including hijacked WebSocket connections, can finish.
//
// Middleware are functions from http.Handler to http.Handler. Wrap applies
// them in order, the first listed seeing the request first:
//
//	server := thttp.NewServer(listener, thttp.Wrap(router, thttp.StandardMiddleware))
//
// In handlers, log through tlog.Get(r.Context()). The logger carries
// httpServer and remoteAddr, and with Log installed also requestID, method,
// hostname and url. On internal errors, panic: Recover answers 500 and shuts
// the server down with the panic as the error.
package thttp
