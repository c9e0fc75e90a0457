// Package socks5client is the companion SOCKS5 client (RFC 1928/1929): the
// redirector falls back to it when asked to speak SOCKS5 to the upstream
// proxy instead of SOCKS6.
package socks5client

import (
	"fmt"
	"net"

	"golang.org/x/net/proxy"
)

// Socks5Client dials destinations through a single upstream SOCKS5 proxy.
type Socks5Client struct {
	dialer proxy.Dialer
}

// New builds a client bound to proxyAddr. username/password, if either is
// non-empty, are sent via RFC 1929 username/password authentication;
// golang.org/x/net/proxy selects NoAuth automatically when they're empty.
func New(proxyAddr, username, password string) (*Socks5Client, error) {
	var auth *proxy.Auth
	if username != "" || password != "" {
		auth = &proxy.Auth{User: username, Password: password}
	}
	dialer, err := proxy.SOCKS5("tcp", proxyAddr, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5client: building dialer for %s: %w", proxyAddr, err)
	}
	return &Socks5Client{dialer: dialer}, nil
}

// Connect dials destination through the proxy and, if initialData is
// non-empty, flushes it into the established stream before returning.
func (c *Socks5Client) Connect(destination string, initialData []byte) (net.Conn, error) {
	conn, err := c.dialer.Dial("tcp", destination)
	if err != nil {
		return nil, fmt.Errorf("socks5client: connecting to %s: %w", destination, err)
	}
	if len(initialData) > 0 {
		if _, err := conn.Write(initialData); err != nil {
			conn.Close()
			return nil, fmt.Errorf("socks5client: writing initial data: %w", err)
		}
	}
	return conn, nil
}
