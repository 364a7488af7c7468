// Package tnet contains networking helpers shared by ring clients and the
// ring server.
package tnet

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/ridge/must/v2"
)

var lc = net.ListenConfig{
	KeepAlive: 3 * time.Minute,
}

// Listen installs a listener on the specified address.
//
// "unix:path" listens on a UNIX domain socket. "tcp:[address]:port" or a bare
// "[address]:port" listens on TCP with keep-alive enabled.
func Listen(address string) (net.Listener, error) {
	network := "tcp"
	if proto, rest, ok := strings.Cut(address, ":"); ok {
		switch proto {
		case "unix":
			network = "unix"
			address = rest
		case "tcp":
			address = rest
		}
	}
	return lc.Listen(context.Background(), network, address)
}

// ListenOnRandomPort installs a listener on a random local TCP port
func ListenOnRandomPort() net.Listener {
	return must.OK1(Listen("localhost:"))
}
