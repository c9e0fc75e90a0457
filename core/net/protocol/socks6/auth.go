package socks6

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/parsafarid/socks6chain/core/net/utils"
)

// ReadAuthReply performs the client side of the authentication exchange
// after the request has been written: version(1), status(1),
// options-length(2), options. A non-zero status is reported as
// ErrAuthFailed; the trailing options are parsed for forward compatibility
// but otherwise unused by the client engine.
func ReadAuthReply(ctx context.Context, r net.Conn) error {
	header := make([]byte, 2)
	if _, err := utils.ReadWithContext(ctx, r, header); err != nil {
		return fmt.Errorf("reading auth reply header: %w", err)
	}
	if header[0] != Version {
		return ErrVersionMismatch
	}
	status := header[1]

	optLenBuf := make([]byte, 2)
	if _, err := utils.ReadWithContext(ctx, r, optLenBuf); err != nil {
		return fmt.Errorf("reading auth reply options length: %w", err)
	}
	optLen := binary.BigEndian.Uint16(optLenBuf)
	if optLen > 0 {
		discard := make([]byte, optLen)
		if _, err := utils.ReadWithContext(ctx, r, discard); err != nil {
			return fmt.Errorf("reading auth reply options: %w", err)
		}
	}

	if status != AuthSuccess {
		return fmt.Errorf("%w: status %#x", ErrAuthFailed, status)
	}
	return nil
}

// WriteAuthSuccess performs the handler side of the authentication
// exchange: [version, success, 0x00, 0x00] — success status and a
// zero-length trailing options block.
func WriteAuthSuccess(w net.Conn) error {
	_, err := w.Write([]byte{Version, AuthSuccess, Padding, Padding})
	return err
}

// WriteAuthFailure writes the same [version, status, 0x00, 0x00] framing as
// WriteAuthSuccess but with AuthFailureStatus, for a client that didn't
// advertise a method the handler is willing to accept.
func WriteAuthFailure(w net.Conn) error {
	_, err := w.Write([]byte{Version, AuthFailureStatus, Padding, Padding})
	return err
}

// CredentialLength validates a username or password against the 1..=255
// byte range the draft requires. A length of zero is not a violation here:
// it means the credential is absent, which callers check for separately.
func CredentialLength(credential []byte) error {
	if len(credential) > 255 {
		return ErrCredentialTooLong
	}
	return nil
}
