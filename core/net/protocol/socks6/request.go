package socks6

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/parsafarid/socks6chain/core/net/utils"
)

// Request is the client's initial operation request: version, command,
// destination address and an options block.
//
// version(1) | command(1) | address | padding(1) | options-length(2) | options
type Request struct {
	Command byte
	Address Address
	Options []SocksOption
}

// Metadata collects the decoded MetadataOption entries from Options into a
// map keyed by their option key, so callers (the chain resolver in
// particular) don't have to re-scan the option slice themselves.
//
// Each metadata option is inserted exactly once, at the position its
// key occupies in the option slice — a later duplicate key silently
// overwrites an earlier one rather than appending.
func (r Request) Metadata() map[uint16]string {
	m := make(map[uint16]string)
	for _, o := range r.Options {
		if o.Kind == optionMetadata {
			m[o.Metadata.Key] = o.Metadata.Value
		}
	}
	return m
}

// Encode serializes the request, including the leading version/command/padding
// header and the length-prefixed options block.
func (r Request) Encode() ([]byte, error) {
	addr, err := r.Address.Encode()
	if err != nil {
		return nil, err
	}
	opts, err := EncodeOptions(r.Options)
	if err != nil {
		return nil, err
	}
	if len(opts) > 1<<16-1 {
		return nil, ErrOptionDataTooLarge
	}

	buf := make([]byte, 0, 2+len(addr)+1+2+len(opts))
	buf = append(buf, Version, r.Command)
	buf = append(buf, addr...)
	buf = append(buf, Padding)

	var optLen [2]byte
	binary.BigEndian.PutUint16(optLen[:], uint16(len(opts)))
	buf = append(buf, optLen[:]...)
	buf = append(buf, opts...)

	return buf, nil
}

// ReadRequest decodes a Request from the stream: version and command,
// the destination address, one unchecked padding byte, then the options
// block. Version mismatch and an unsupported command are both reported so
// the handler can special-case a version probe (4.5 step 1).
func ReadRequest(ctx context.Context, r net.Conn) (Request, error) {
	header := make([]byte, 2)
	if _, err := utils.ReadWithContext(ctx, r, header); err != nil {
		return Request{}, fmt.Errorf("reading request header: %w", err)
	}
	if header[0] != Version {
		return Request{}, ErrVersionMismatch
	}
	if header[1] != CmdConnect {
		return Request{}, ErrUnsupportedCommand
	}

	addr, err := ReadAddress(ctx, r)
	if err != nil {
		return Request{}, err
	}

	padding := make([]byte, 1)
	if _, err := utils.ReadWithContext(ctx, r, padding); err != nil {
		return Request{}, fmt.Errorf("reading request padding: %w", err)
	}

	options, err := ReadOptions(ctx, r)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Command: header[1],
		Address: addr,
		Options: options,
	}, nil
}

// InitialDataLength returns the first AuthMethodAdvertisement option's
// declared initial-data length. It scans the typed option list rather than
// indexing raw bytes or assuming the advertisement occupies a fixed
// position, since neither holds once other options are present.
func (r Request) InitialDataLength() (uint16, bool) {
	for _, o := range r.Options {
		if o.Kind == optionAuthMethodAdvertisement {
			return o.AuthMethodAdvertisement.InitialDataLength, true
		}
	}
	return 0, false
}

// OffersAuthMethod reports whether the request's AuthMethodAdvertisement
// lists method among the client's offered methods. A request with no
// advertisement at all offers nothing.
func (r Request) OffersAuthMethod(method byte) bool {
	for _, o := range r.Options {
		if o.Kind != optionAuthMethodAdvertisement {
			continue
		}
		for _, m := range o.AuthMethodAdvertisement.Methods {
			if m == method {
				return true
			}
		}
	}
	return false
}
