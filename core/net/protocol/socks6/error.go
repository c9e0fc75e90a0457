package socks6

import "errors"

// Error taxonomy for the SOCKS6 wire codec and framing layer.
var (
	ErrMalformedAddress = errors.New("socks6: malformed address")
	ErrMalformedOptions = errors.New("socks6: malformed options block")

	ErrVersionMismatch    = errors.New("socks6: version mismatch")
	ErrUnsupportedCommand = errors.New("socks6: unsupported command")

	ErrOptionDataTooLarge = errors.New("socks6: option data exceeds maximum size")

	// ErrAuthFailed wraps the status byte returned by the proxy's authentication reply.
	ErrAuthFailed = errors.New("socks6: authentication failed")

	// ErrReply wraps a non-success operation reply code.
	ErrReply = errors.New("socks6: operation reply error")

	ErrCredentialTooLong = errors.New("socks6: credential exceeds 255 bytes")
)
