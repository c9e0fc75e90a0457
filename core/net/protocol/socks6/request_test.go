package socks6

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMinimalRequestEncodesExactBytes pins the minimal CONNECT request's
// wire bytes: version, command, IPv4 address, padding, zero-length options.
func TestMinimalRequestEncodesExactBytes(t *testing.T) {
	req := Request{
		Command: CmdConnect,
		Address: NewIPAddress(net.IPv4(192, 168, 1, 1), 80),
	}
	encoded, err := req.Encode()
	require.NoError(t, err)
	require.Equal(t, []byte{6, 1, 1, 192, 168, 1, 1, 0, 80, 0, 0, 0}, encoded)
}

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Command: CmdConnect,
		Address: NewDomainAddress("example.com", 443),
		Options: []SocksOption{
			AuthMethodAdvertisementSocksOption(4, []byte{AuthMethodNoAuthentication}),
			MetadataSocksOption(998, "0"),
		},
	}
	encoded, err := req.Encode()
	require.NoError(t, err)

	left, right := net.Pipe()
	go func() { left.Write(encoded); left.Close() }()

	decoded, err := ReadRequest(context.Background(), right)
	require.NoError(t, err)
	require.Equal(t, req.Command, decoded.Command)
	require.Equal(t, req.Address.Domain, decoded.Address.Domain)
	require.Equal(t, req.Address.Port, decoded.Address.Port)
	require.Equal(t, req.Options, decoded.Options)

	length, ok := decoded.InitialDataLength()
	require.True(t, ok)
	require.EqualValues(t, 4, length)
	right.Close()
}

func TestReadRequestRejectsVersionMismatch(t *testing.T) {
	left, right := net.Pipe()
	go func() { left.Write([]byte{0x04, CmdConnect}); left.Close() }()

	_, err := ReadRequest(context.Background(), right)
	require.ErrorIs(t, err, ErrVersionMismatch)
	right.Close()
}

func TestOffersAuthMethod(t *testing.T) {
	req := Request{
		Options: []SocksOption{
			AuthMethodAdvertisementSocksOption(0, []byte{AuthMethodNoAuthentication, AuthMethodUsernamePassword}),
		},
	}
	require.True(t, req.OffersAuthMethod(AuthMethodUsernamePassword))
	require.True(t, req.OffersAuthMethod(AuthMethodNoAuthentication))
	require.False(t, Request{}.OffersAuthMethod(AuthMethodUsernamePassword))
}

func TestReadRequestRejectsUnsupportedCommand(t *testing.T) {
	left, right := net.Pipe()
	go func() { left.Write([]byte{Version, CmdBind}); left.Close() }()

	_, err := ReadRequest(context.Background(), right)
	require.ErrorIs(t, err, ErrUnsupportedCommand)
	right.Close()
}
