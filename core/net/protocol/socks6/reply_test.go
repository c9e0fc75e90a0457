package socks6

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplyRoundTrip(t *testing.T) {
	rep := Reply{
		Code:    ReplySuccess,
		Address: NewIPAddress(net.IPv4(10, 0, 0, 1), 51820),
		Options: []SocksOption{AuthMethodSelectionSocksOption(AuthMethodNoAuthentication)},
	}
	encoded, err := rep.Encode()
	require.NoError(t, err)

	left, right := net.Pipe()
	go func() { left.Write(encoded); left.Close() }()

	decoded, err := ReadReply(context.Background(), right)
	require.NoError(t, err)
	require.Equal(t, rep.Code, decoded.Code)
	require.True(t, rep.Address.IP.Equal(decoded.Address.IP))
	require.Equal(t, rep.Address.Port, decoded.Address.Port)
	require.Equal(t, rep.Options, decoded.Options)

	method, ok := decoded.SelectedAuthMethod()
	require.True(t, ok)
	require.Equal(t, byte(AuthMethodNoAuthentication), method)
	right.Close()
}

func TestReplyEncodeAlwaysWritesTrailingOptionsLength(t *testing.T) {
	// An options-free reply must still carry its trailing zero-length field;
	// omitting it would desync a client that always reads it.
	rep := Reply{Code: ReplySuccess, Address: NewIPAddress(net.IPv4zero, 0)}
	encoded, err := rep.Encode()
	require.NoError(t, err)
	// version, code, port(2), padding, atyp, addr(4) = 10, then 2-byte options length.
	require.Equal(t, 12, len(encoded))
	require.Equal(t, []byte{0, 0}, encoded[10:12])
}

func TestReadReplyReportsFailureCode(t *testing.T) {
	left, right := net.Pipe()
	go func() {
		left.Write([]byte{Version, byte(ReplyHostUnreachable), 0, 0, Padding, AtypIPv4})
		left.Close()
	}()

	_, err := ReadReply(context.Background(), right)
	require.ErrorIs(t, err, ErrReply)
	right.Close()
}
