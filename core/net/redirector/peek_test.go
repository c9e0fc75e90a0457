package redirector

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTryReadInitialDataReturnsWhatArrived(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	go func() { left.Write([]byte("hello")) }()

	data, err := TryReadInitialData(right, 200*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestTryReadInitialDataReturnsEmptyWithinGrace(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	data, err := TryReadInitialData(right, 20*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Empty(t, data)
}

func TestTryReadInitialDataClearsDeadlineAfterwards(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	_, err := TryReadInitialData(right, 10*time.Millisecond)
	require.NoError(t, err)

	// A later, unrelated read should not immediately fail with the peek's
	// now-expired deadline still in effect.
	done := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		right.Read(buf)
		close(done)
	}()
	left.Write([]byte("x"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read blocked on stale deadline")
	}
}
