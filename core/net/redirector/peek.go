package redirector

import (
	"errors"
	"net"
	"os"
	"time"
)

// maxInitialDataSize bounds how much of the client's first flight of bytes
// we forward as SOCKS6 initial data.
const maxInitialDataSize = 4096

// TryReadInitialData peeks at whatever the client has already written to
// conn within grace, without blocking beyond it. It's adapted from the
// buffered/backtrackable connection wrapper this codec used to re-read a
// protocol greeting: here there is nothing to backtrack into, since the
// bytes read are handed onward unmodified as SOCKS6 initial data rather
// than replayed to this same connection.
//
// Returns an empty, non-nil slice if nothing arrived within the grace
// window — that is not treated as an error, since a client that defers its
// first write until after the proxy handshake is completely ordinary.
func TryReadInitialData(conn net.Conn, grace time.Duration) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(grace)); err != nil {
		return nil, err
	}
	defer conn.SetReadDeadline(time.Time{})

	buf := make([]byte, maxInitialDataSize)
	n, err := conn.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return []byte{}, nil
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return []byte{}, nil
		}
		return nil, err
	}
	return buf[:n], nil
}
