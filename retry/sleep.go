package retry

import (
	"context"
	"time"
)

// Sleep waits until the duration elapses (nil) or the context closes (the
// context's error). A non-positive duration returns immediately.
func Sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
