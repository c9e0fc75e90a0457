package socks6handler

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parsafarid/socks6chain/core/net/protocol/socks6"
	"github.com/parsafarid/socks6chain/core/net/socks6client"
	"github.com/parsafarid/socks6chain/internal/config"
)

// startEchoServer runs a bare TCP listener that echoes every line it
// receives back to the caller, and returns its dial address.
func startEchoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					conn.Write(append(scanner.Bytes(), '\n'))
				}
			}()
		}
	}()
	return ln.Addr().String()
}

func startHandler(t *testing.T, cfg *config.HandlerConfig) string {
	t.Helper()
	h, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, h.Listen())
	go h.Start()
	return h.listener.Addr().String()
}

// TestHandlerTerminatesDirectlyAtDestination drives a real Socks6Client
// through a real Handler to a real echo backend: request, auth reply,
// operation reply, and a round-tripped payload all over actual sockets.
func TestHandlerTerminatesDirectlyAtDestination(t *testing.T) {
	echoAddr := startEchoServer(t)
	echoTCP, err := net.ResolveTCPAddr("tcp", echoAddr)
	require.NoError(t, err)

	cfg := &config.HandlerConfig{Listen: "127.0.0.1:0"}
	cfg.Timeout.DialTimeout = 2
	cfg.Timeout.AuthTimeout = 2
	handlerAddr := startHandler(t, cfg)
	time.Sleep(10 * time.Millisecond)

	client, err := socks6client.New(handlerAddr, nil, 2*time.Second)
	require.NoError(t, err)

	destination := socks6.NewIPAddress(echoTCP.IP, uint16(echoTCP.Port))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, bound, err := client.Connect(ctx, destination, []byte("hello\n"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NotZero(t, bound.Port)

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	reply := make([]byte, 6)
	_, err = readFull(conn, reply)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(reply))
}

// TestHandlerRejectsNoAuthWhenCredentialsRequired verifies RequiresAuth is
// actually consulted: a client that only offers NoAuthentication must be
// turned away once the handler is configured with credentials, rather than
// being waved through regardless of what it advertised.
func TestHandlerRejectsNoAuthWhenCredentialsRequired(t *testing.T) {
	echoAddr := startEchoServer(t)
	echoTCP, err := net.ResolveTCPAddr("tcp", echoAddr)
	require.NoError(t, err)

	cfg := &config.HandlerConfig{
		Listen:      "127.0.0.1:0",
		Credentials: []config.Account{{Username: "alice", Password: "secret"}},
	}
	cfg.Timeout.DialTimeout = 2
	cfg.Timeout.AuthTimeout = 2
	handlerAddr := startHandler(t, cfg)
	time.Sleep(10 * time.Millisecond)

	client, err := socks6client.New(handlerAddr, nil, 2*time.Second)
	require.NoError(t, err)

	destination := socks6.NewIPAddress(echoTCP.IP, uint16(echoTCP.Port))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, err = client.Connect(ctx, destination, nil, nil)
	require.ErrorIs(t, err, socks6.ErrAuthFailed)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
