package thttp

import (
	"errors"
	"fmt"
	"net/http"
)

func requestScheme(r *http.Request) (string, error) {
	switch proto := r.Header.Get("X-Forwarded-Proto"); proto {
	case "":
		if r.TLS != nil {
			return "https", nil
		}
		return "http", nil
	case "http", "https":
		return proto, nil
	default:
		return "", fmt.Errorf("unexpected X-Forwarded-Proto %q", proto)
	}
}

// Origin returns the origin the client used to reach the server, honoring
// X-Forwarded-Proto set by a reverse proxy
func Origin(r *http.Request) (string, error) {
	scheme, err := requestScheme(r)
	if err != nil {
		return "", err
	}
	if r.Host == "" {
		return "", errors.New("missing Host header")
	}
	return scheme + "://" + r.Host, nil
}

// WebSocketOrigin is Origin with the matching WebSocket scheme: ws for http
// and wss for https
func WebSocketOrigin(r *http.Request) (string, error) {
	scheme, err := requestScheme(r)
	if err != nil {
		return "", err
	}
	if r.Host == "" {
		return "", errors.New("missing Host header")
	}
	if scheme == "https" {
		return "wss://" + r.Host, nil
	}
	return "ws://" + r.Host, nil
}
