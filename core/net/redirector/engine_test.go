package redirector

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parsafarid/socks6chain/core/net/protocol/socks6"
	"github.com/parsafarid/socks6chain/internal/config"
)

// fakeUpstream accepts one connection and records the first bytes it
// receives, distinguishing a SOCKS5 greeting (version byte 0x05) from a
// SOCKS6 request (version byte 0x06) without implementing either protocol.
func fakeUpstream(t *testing.T) (addr string, firstByte chan byte) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	firstByte = make(chan byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1)
		if _, err := conn.Read(buf); err == nil {
			firstByte <- buf[0]
		}
		// Neither real protocol: write back two bytes that fail whichever
		// client is waiting on its 2-byte reply header, so Dial returns
		// promptly instead of blocking on a response that will never come.
		conn.Write([]byte{0xff, 0xff})
	}()
	return ln.Addr().String(), firstByte
}

func TestDialDispatchesBySocksVersion(t *testing.T) {
	destination := socks6.NewIPAddress(net.IPv4(127, 0, 0, 1), 9)

	t.Run("version 5 speaks a SOCKS5 greeting", func(t *testing.T) {
		addr, seen := fakeUpstream(t)
		rd := New(&config.RedirectorConfig{Proxy: addr, SocksVersion: 5})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		// The handshake itself is bound to fail against a fake upstream that
		// speaks neither protocol; dispatch, not a successful Connect, is
		// what's under test, so the call runs in the background and only the
		// dispatched byte is awaited.
		go func() {
			conn, _ := rd.dial(ctx, destination, nil)
			if conn != nil {
				conn.Close()
			}
		}()

		select {
		case b := <-seen:
			require.Equal(t, byte(0x05), b)
		case <-time.After(2 * time.Second):
			t.Fatal("upstream never saw a connection")
		}
	})

	t.Run("version 6 speaks a SOCKS6 request", func(t *testing.T) {
		addr, seen := fakeUpstream(t)
		rd := New(&config.RedirectorConfig{Proxy: addr, SocksVersion: 6})
		rd.cfg.Timeout.DialTimeout = 1
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		go func() {
			conn, _ := rd.dial(ctx, destination, nil)
			if conn != nil {
				conn.Close()
			}
		}()

		select {
		case b := <-seen:
			require.Equal(t, byte(0x06), b)
		case <-time.After(2 * time.Second):
			t.Fatal("upstream never saw a connection")
		}
	})
}
