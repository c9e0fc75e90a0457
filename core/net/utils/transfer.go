package utils

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/parsafarid/socks6chain/internal/proxy_error"
)

// DataTransfering copies from right to left using io.Copy, reporting
// completion through wg and any error through errChan.
func DataTransfering(wg *sync.WaitGroup, errChan chan error, left net.Conn, right net.Conn) {
	defer wg.Done()
	if _, err := io.Copy(left, right); err != nil {
		errChan <- errors.Join(proxy_error.ErrTransferError, err)
		return
	}
}

// Splice performs a bidirectional copy between a and b until both halves
// have reached EOF or an error occurs on either side. It blocks until both
// copy goroutines finish, and returns the first non-EOF error seen, if any.
//
// Closing a or b from the caller (e.g. via a deadline or cancellation) is
// what unblocks an in-flight Splice; it imposes no timeout of its own.
func Splice(a, b net.Conn) error {
	wg := sync.WaitGroup{}
	wg.Add(2)
	errChan := make(chan error, 2)

	go DataTransfering(&wg, errChan, a, b)
	go DataTransfering(&wg, errChan, b, a)

	go func() {
		wg.Wait()
		close(errChan)
	}()

	var first error
	for err := range errChan {
		if errors.Is(err, io.EOF) {
			continue
		}
		if first == nil {
			first = err
		}
	}
	return first
}
