package thttp

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/ridge/parallel"
)

// runTask executes the task in the current goroutine, returning a panic as
// parallel.ErrPanic
func runTask(ctx context.Context, task parallel.Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = parallel.ErrPanic{Value: p, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}

// Recover is a middleware that turns a handler panic into a 500 response and
// hands the panic to the Server, which then shuts down with it as the error
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := runTask(r.Context(), func(ctx context.Context) error {
			next.ServeHTTP(w, r)
			return nil
		})
		if err == nil {
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		if panics, ok := r.Context().Value(panicKey).(chan error); ok {
			select {
			case panics <- err:
			default:
			}
		}
	})
}
