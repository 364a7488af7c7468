package thttp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ridge/must/v2"
	"github.com/ridge/parallel"
	"github.com/ridge/ringsource/tcontext"
	"github.com/ridge/ringsource/tlog"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout is how long running requests get to finish once the
// server context is closed
const DefaultShutdownTimeout = 5 * time.Second

// Server serves HTTP on a listener for as long as its Run context lives
type Server struct {
	listener net.Listener
	handler  http.Handler
	locked   sync.WaitGroup

	// ShutdownTimeout bounds graceful shutdown; DefaultShutdownTimeout if zero
	ShutdownTimeout time.Duration
}

// NewServer creates a Server
func NewServer(listener net.Listener, handler http.Handler) *Server {
	return &Server{
		listener: listener,
		handler:  handler,
	}
}

type panicKeyType int

const panicKey panicKeyType = iota

// Run serves requests until the context is closed, then shuts down
// gracefully. A handler panic caught by Recover terminates Run with the panic
// as the error.
func (s *Server) Run(ctx context.Context) error {
	shutdownTimeout := s.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		panics := make(chan error, 1)
		ctx = context.WithValue(ctx, panicKey, panics)
		ctx = tlog.With(ctx, zap.Stringer("httpServer", s.listener.Addr()))
		// request contexts outlive ctx by the shutdown period
		reqCtx, reqCancel := context.WithCancel(tcontext.Reopen(ctx))

		logger := tlog.Get(ctx)

		server := http.Server{
			Handler:     s.lock(s.handler),
			ErrorLog:    must.OK1(zap.NewStdLogAt(logger, zap.WarnLevel)),
			BaseContext: func(net.Listener) context.Context { return reqCtx },
			ConnContext: s.connContext,
		}

		spawn("serve", parallel.Fail, func(ctx context.Context) error {
			logger.Info("Serving requests")
			err := server.Serve(s.listener)
			// ErrServerClosed after our own Shutdown is a clean exit
			if errors.Is(err, http.ErrServerClosed) && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		})

		spawn("panicHandler", parallel.Fail, func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-panics:
				return err
			}
		})

		spawn("shutdownHandler", parallel.Fail, func(ctx context.Context) error {
			<-ctx.Done()
			logger.Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(reqCtx, shutdownTimeout)
			defer cancel()
			defer reqCancel()
			defer server.Close()

			if err := server.Shutdown(shutdownCtx); err != nil && shutdownCtx.Err() != nil {
				logger.Info("Shutdown canceled", zap.Error(err))
				return err
			}
			// other Shutdown errors come from closing the listener

			reqCancel() // hijacked connections, streaming ring readers
			s.locked.Wait()

			logger.Info("Shutdown complete")
			return ctx.Err()
		})

		return nil
	})
}

// ListenAddr returns the local address of the server's listener
func (s *Server) ListenAddr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) connContext(ctx context.Context, conn net.Conn) context.Context {
	return tlog.With(ctx, zap.Stringer("remoteAddr", conn.RemoteAddr()))
}

// lock keeps shutdown waiting for running handlers. http.Server does that
// itself except for hijacked connections, which WebSocket streams are.
func (s *Server) lock(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.locked.Add(1)
		defer s.locked.Done()
		next.ServeHTTP(w, r)
	})
}

// Wrap installs middleware on a handler. The first middleware listed sees the
// request first.
func Wrap(handler http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// StandardMiddleware logs, recovers and allows cross-origin reads, in that
// order
func StandardMiddleware(next http.Handler) http.Handler {
	return Log(Recover(CORS(next)))
}
