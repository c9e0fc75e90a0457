// Package redirector implements the transparent-proxy half of the system:
// recovering the pre-NAT destination of a transparently redirected TCP
// connection and forwarding it through an upstream SOCKS proxy.
package redirector

import (
	"encoding/binary"
	"net"

	"golang.org/x/sys/unix"

	"github.com/parsafarid/socks6chain/core/net/protocol/socks6"
	"github.com/parsafarid/socks6chain/internal/proxy_error"
)

// OriginalDestination recovers the pre-NAT destination address of a TCP
// connection that the host's packet filter transparently redirected to us,
// via the SO_ORIGINAL_DST socket option. It returns ErrNoRedirection if the
// option is unset, meaning the socket arrived here by ordinary dialing
// rather than redirection.
//
// SO_ORIGINAL_DST reports its address in a struct sockaddr_in: 2 bytes
// family, 2 bytes port (big-endian), 4 bytes IPv4 address, and padding.
// GetsockoptIPv6Mreq happens to read the same 16-byte size, so we borrow it
// and parse the fields out of its Multiaddr byte array ourselves — this is
// the usual trick since x/sys/unix has no typed wrapper for this option.
func OriginalDestination(conn *net.TCPConn) (socks6.Address, error) {
	sysConn, err := conn.SyscallConn()
	if err != nil {
		return socks6.Address{}, err
	}

	var mreq *unix.IPv6Mreq
	var ctrlErr error
	err = sysConn.Control(func(fd uintptr) {
		mreq, ctrlErr = unix.GetsockoptIPv6Mreq(int(fd), unix.SOL_IP, unix.SO_ORIGINAL_DST)
	})
	if err != nil {
		return socks6.Address{}, err
	}
	if ctrlErr != nil {
		return socks6.Address{}, proxy_error.ErrNoRedirection
	}

	raw := mreq.Multiaddr
	// raw[0:2] is sin_family, raw[2:4] is sin_port, raw[4:8] is sin_addr.
	port := binary.BigEndian.Uint16(raw[2:4])
	ip := net.IPv4(raw[4], raw[5], raw[6], raw[7])

	return socks6.NewIPAddress(ip, port), nil
}
