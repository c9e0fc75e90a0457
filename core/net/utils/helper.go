// Package utils holds small network helpers shared by the SOCKS6 codec,
// client engine and handler engine.
package utils

import (
	"context"
	"net"
)

// ReadWithContext reads exactly len(buf) bytes from c, honoring ctx
// cancellation. Every network read in the SOCKS6 codec goes through here so
// that a cancelled context always aborts an in-flight read instead of
// blocking on it forever.
func ReadWithContext(ctx context.Context, c net.Conn, buf []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	readChan := make(chan result, 1)

	go func() {
		n, err := readFull(c, buf)
		readChan <- result{n, err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case v := <-readChan:
		return v.n, v.err
	}
}

// readFull reads until buf is full, EOF, or an error occurs.
func readFull(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
