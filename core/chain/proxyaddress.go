// Package chain resolves the next proxy hop for a SOCKS6 request, threading
// chain state through the reserved 998/999/1000.. metadata keys.
package chain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ProxyAddress identifies one hop in a proxy chain: a host/port and
// optional username/password credentials for it.
type ProxyAddress struct {
	Host     string
	Port     uint16
	Username string
	Password string
}

// HasCredentials reports whether this hop carries a username/password.
func (p ProxyAddress) HasCredentials() bool {
	return p.Username != "" || p.Password != ""
}

// Addr renders the hop as a host:port string suitable for net.Dial.
func (p ProxyAddress) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(int(p.Port)))
}

// String renders the hop back into its wire form, "user:pass@host:port" or
// "host:port" when no credentials are set — the inverse of ParseProxyAddress.
func (p ProxyAddress) String() string {
	if p.HasCredentials() {
		return fmt.Sprintf("%s:%s@%s", p.Username, p.Password, p.Addr())
	}
	return p.Addr()
}

// ParseProxyAddress parses "user:pass@host:port" or "host:port".
func ParseProxyAddress(s string) (ProxyAddress, error) {
	var creds, hostport string
	if at := strings.LastIndex(s, "@"); at >= 0 {
		creds = s[:at]
		hostport = s[at+1:]
	} else {
		hostport = s
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return ProxyAddress{}, fmt.Errorf("chain: parsing proxy address %q: %w", s, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return ProxyAddress{}, fmt.Errorf("chain: parsing proxy port %q: %w", portStr, err)
	}

	addr := ProxyAddress{Host: host, Port: uint16(port)}
	if creds != "" {
		user, pass, found := strings.Cut(creds, ":")
		if !found {
			return ProxyAddress{}, fmt.Errorf("chain: malformed credentials in %q", s)
		}
		addr.Username = user
		addr.Password = pass
	}
	return addr, nil
}
