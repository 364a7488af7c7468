package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// EventTimeout is how long AssertEvents waits for each expected value
const EventTimeout = 3 * time.Second

// AssertForefrontEvents asserts that the expected values are received from ch
// in order, each within EventTimeout
func AssertForefrontEvents[T any](t *testing.T, ch <-chan T, expected ...T) bool {
	for i, e := range expected {
		ctx, cancel := context.WithTimeout(context.Background(), EventTimeout)
		select {
		case <-ctx.Done():
			cancel()
			return assert.Fail(t, "timed out waiting for event", "index: %d", i)
		case val, ok := <-ch:
			cancel()
			if !assert.Truef(t, ok, "channel closed, index: %d", i) {
				return false
			}
			if !assert.Equal(t, e, val, "index: %d", i) {
				return false
			}
		}
	}
	return true
}

// AssertEvents is AssertForefrontEvents that also asserts that nothing else
// is already queued in ch
func AssertEvents[T any](t *testing.T, ch <-chan T, expected ...T) bool {
	if !AssertForefrontEvents(t, ch, expected...) {
		return false
	}
	ok := true
	for i := len(ch); i > 0; i-- {
		val, open := <-ch
		if !open {
			break
		}
		assert.Fail(t, "unexpected event", "%#v", val)
		ok = false
	}
	return ok
}
