// Package socks6client implements the client side of the SOCKS6 protocol:
// resolving a proxy once, then driving the request/auth/reply exchange for
// each connection it opens through that proxy.
package socks6client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/parsafarid/socks6chain/core/net/protocol/socks6"
)

// Credentials is an optional username/password advertised via the
// UsernamePassword authentication method.
type Credentials struct {
	Username string
	Password string
}

// Socks6Client resolves a proxy address once at construction and dials
// through it on every Connect call.
type Socks6Client struct {
	proxyAddr   string
	credentials *Credentials
	dialTimeout time.Duration
}

// New validates credentials (each of username/password, if present, must be
// 1..=255 bytes — anything longer is rejected, anything shorter simply
// means "absent"), resolves proxyAddr once, and returns a client bound to
// the resolved address.
func New(proxyAddr string, credentials *Credentials, dialTimeout time.Duration) (*Socks6Client, error) {
	if credentials != nil {
		if len(credentials.Username) > 0 {
			if err := socks6.CredentialLength([]byte(credentials.Username)); err != nil {
				return nil, fmt.Errorf("socks6client: username: %w", err)
			}
		}
		if len(credentials.Password) > 0 {
			if err := socks6.CredentialLength([]byte(credentials.Password)); err != nil {
				return nil, fmt.Errorf("socks6client: password: %w", err)
			}
		}
	}
	resolved, err := net.ResolveTCPAddr("tcp", proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("socks6client: resolving proxy %s: %w", proxyAddr, err)
	}
	return &Socks6Client{
		proxyAddr:   resolved.String(),
		credentials: credentials,
		dialTimeout: dialTimeout,
	}, nil
}

// Connect opens a CONNECT request to destination through the proxy,
// optionally forwarding initialData as a separate write right after the
// request, and extraOptions ahead of the auth-method advertisement (the
// chain resolver uses this to attach 998/999/1000.. metadata). It returns
// the established stream and the address the proxy bound on our behalf.
func (c *Socks6Client) Connect(ctx context.Context, destination socks6.Address, initialData []byte, extraOptions []socks6.SocksOption) (net.Conn, socks6.Address, error) {
	dialCtx := ctx
	if c.dialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.dialTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", c.proxyAddr)
	if err != nil {
		return nil, socks6.Address{}, fmt.Errorf("socks6client: dialing proxy %s: %w", c.proxyAddr, err)
	}
	closeOnError := true
	defer func() {
		if closeOnError {
			conn.Close()
		}
	}()

	methods := []byte{socks6.AuthMethodNoAuthentication}
	if c.credentials != nil {
		methods = append(methods, socks6.AuthMethodUsernamePassword)
	}
	advertisement := socks6.AuthMethodAdvertisementSocksOption(uint16(len(initialData)), methods)

	req := socks6.Request{
		Command: socks6.CmdConnect,
		Address: destination,
		Options: append(append([]socks6.SocksOption{}, extraOptions...), advertisement),
	}

	frame, err := req.Encode()
	if err != nil {
		return nil, socks6.Address{}, err
	}
	if _, err := conn.Write(frame); err != nil {
		return nil, socks6.Address{}, fmt.Errorf("socks6client: writing request: %w", err)
	}
	if len(initialData) > 0 {
		if _, err := conn.Write(initialData); err != nil {
			return nil, socks6.Address{}, fmt.Errorf("socks6client: writing initial data: %w", err)
		}
	}

	if err := socks6.ReadAuthReply(ctx, conn); err != nil {
		return nil, socks6.Address{}, fmt.Errorf("socks6client: %w", err)
	}

	reply, err := socks6.ReadReply(ctx, conn)
	if err != nil {
		if errors.Is(err, socks6.ErrReply) {
			return nil, socks6.Address{}, err
		}
		return nil, socks6.Address{}, fmt.Errorf("socks6client: reading operation reply: %w", err)
	}

	closeOnError = false
	return conn, reply.Address, nil
}
