package tnet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListen(t *testing.T) {
	for _, address := range []string{"localhost:", "tcp:localhost:"} {
		l, err := Listen(address)
		require.NoError(t, err, address)
		require.Equal(t, "tcp", l.Addr().Network())
		require.Regexp(t, `^127\.0\.0\.1:\d+$`, l.Addr().String())
		require.NoError(t, l.Close())
	}
}

func TestListenUnixRingServer(t *testing.T) {
	path := t.TempDir() + "/ringserver.sock"
	l, err := Listen("unix:" + path)
	require.NoError(t, err)
	defer l.Close()
	require.Equal(t, "unix", l.Addr().Network())
	require.Equal(t, path, l.Addr().String())

	accepted := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err == nil {
			conn.Close()
		}
		accepted <- err
	}()

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	require.NoError(t, <-accepted)
}

func TestListenOnRandomPort(t *testing.T) {
	l1 := ListenOnRandomPort()
	defer l1.Close()
	l2 := ListenOnRandomPort()
	defer l2.Close()
	require.NotEqual(t, l1.Addr().String(), l2.Addr().String())
}
