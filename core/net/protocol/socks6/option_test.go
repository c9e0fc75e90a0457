package socks6

import (
	"context"
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionEncodePadsToFourByteBoundary(t *testing.T) {
	// kind=0x0002, data=[0x00,0x02] pads 6 header+data bytes up to 8.
	opt := AuthMethodAdvertisementSocksOption(2, nil)
	encoded, err := opt.Encode()
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x02, 0x00, 0x08, 0x00, 0x02}, encoded[:6])
	require.Equal(t, 8, len(encoded))
	require.Equal(t, byte(0), encoded[len(encoded)-1])
}

func TestOptionRoundTrip(t *testing.T) {
	opts := []SocksOption{
		AuthMethodAdvertisementSocksOption(128, []byte{AuthMethodNoAuthentication, AuthMethodUsernamePassword}),
		AuthMethodSelectionSocksOption(AuthMethodUsernamePassword),
		MetadataSocksOption(999, "2"),
		UnrecognizedSocksOption(0x1234, []byte{0x01, 0x02, 0x03}),
	}

	for _, opt := range opts {
		encoded, err := opt.Encode()
		require.NoError(t, err)
		require.Zero(t, len(encoded)%4)

		framed := make([]byte, 2+len(encoded))
		binary.BigEndian.PutUint16(framed, uint16(len(encoded)))
		copy(framed[2:], encoded)

		left, right := net.Pipe()
		go func() { left.Write(framed); left.Close() }()

		decoded, err := ReadOptions(context.Background(), right)
		require.NoError(t, err)
		require.Len(t, decoded, 1)
		require.Equal(t, opt, decoded[0])
		right.Close()
	}
}

func TestReadOptionsRejectsInconsistentBlockLength(t *testing.T) {
	// Declares a 10-byte block whose one option declares 8 bytes, but only 7
	// bytes follow before the stream ends.
	frame := []byte{0x00, 0x0A, 0x00, 0x02, 0x00, 0x08, 0x00, 0x00, 0x00}
	left, right := net.Pipe()
	go func() { left.Write(frame); left.Close() }()

	_, err := ReadOptions(context.Background(), right)
	require.ErrorIs(t, err, ErrMalformedOptions)
	right.Close()
}

func TestRequestMetadataInsertsEachOptionOnce(t *testing.T) {
	req := Request{
		Options: []SocksOption{
			MetadataSocksOption(998, "0"),
			MetadataSocksOption(999, "2"),
			MetadataSocksOption(1000, "a.example:1080"),
		},
	}
	md := req.Metadata()
	require.Len(t, md, 3)
	require.Equal(t, "0", md[998])
	require.Equal(t, "2", md[999])
	require.Equal(t, "a.example:1080", md[1000])
}
