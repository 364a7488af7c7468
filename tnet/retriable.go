package tnet

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/ridge/ringsource/retry"
)

// MaybeRetriableError wraps the given network error with retry.Retriable if
// the failed operation is worth repeating: timeouts, temporary DNS failures,
// refused or reset connections and the like
func MaybeRetriableError(err error) error {
	if err == nil {
		return nil
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.Temporary() {
		return retry.Retriable(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return retry.Retriable(err)
	}
	for _, target := range []error{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.EHOSTUNREACH,
		syscall.EPIPE,
		io.ErrUnexpectedEOF,
	} {
		if errors.Is(err, target) {
			return retry.Retriable(err)
		}
	}
	return err
}

// IsTimeout returns if the error is a network timeout such as an expired
// read deadline
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
