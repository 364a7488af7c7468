package tnet

import (
	"strings"
)

// IsClosedConnectionError returns if the passed error is "use of closed
// network connection", which net doesn't export
func IsClosedConnectionError(err error) bool {
	return err != nil && strings.HasSuffix(err.Error(), "use of closed network connection")
}

// StripClosedConnectionError returns nil if the passed error is "use of
// closed network connection", and the original error otherwise.
//
// Closing a connection on context cancellation produces this error, so
// stripping it keeps shutdown quiet.
func StripClosedConnectionError(err error) error {
	if IsClosedConnectionError(err) {
		return nil
	}
	return err
}
