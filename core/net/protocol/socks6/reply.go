package socks6

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/parsafarid/socks6chain/core/net/utils"
)

// Reply is the handler's answer to an operation Request: the status code,
// the address the handler bound on behalf of the client, and an options
// block.
//
// Unlike Request, the reply splits the bound port away from the address
// body and places it right after the status code:
//
//	version(1) | code(1) | bnd_port(2) | padding(1) | atyp(1) | address-body | options-length(2) | options
type Reply struct {
	Code    ReplyCode
	Address Address
	Options []SocksOption
}

// Encode serializes the reply. The options-length field is always written,
// even when the reply carries no options, and the address body is always
// written in full for its type, so a client parsing this reply can read both
// fields unconditionally. The address is whatever the caller supplies: the
// handler passes its locally bound address on success and 0.0.0.0:0 on failure.
func (rep Reply) Encode() ([]byte, error) {
	body, err := rep.Address.encodeBody()
	if err != nil {
		return nil, err
	}
	opts, err := EncodeOptions(rep.Options)
	if err != nil {
		return nil, err
	}
	if len(opts) > 1<<16-1 {
		return nil, ErrOptionDataTooLarge
	}

	buf := make([]byte, 0, 6+len(body)+2+len(opts))
	buf = append(buf, Version, byte(rep.Code))
	buf = appendPort(buf, rep.Address.Port)
	buf = append(buf, Padding, rep.Address.Atyp)
	buf = append(buf, body...)

	var optLen [2]byte
	binary.BigEndian.PutUint16(optLen[:], uint16(len(opts)))
	buf = append(buf, optLen[:]...)
	buf = append(buf, opts...)

	return buf, nil
}

// ReadReply decodes a Reply from the stream: version, reply code, bound
// port, one padding byte, address type, the type-specific address body,
// then the trailing options block.
func ReadReply(ctx context.Context, r net.Conn) (Reply, error) {
	header := make([]byte, 6)
	if _, err := utils.ReadWithContext(ctx, r, header); err != nil {
		return Reply{}, fmt.Errorf("reading reply header: %w", err)
	}
	if header[0] != Version {
		return Reply{}, ErrVersionMismatch
	}
	code := ReplyCode(header[1])
	port := binary.BigEndian.Uint16(header[2:4])
	atyp := header[5]

	if code != ReplySuccess {
		return Reply{Code: code}, fmt.Errorf("%w: %s", ErrReply, code)
	}

	addr, err := readAddressBody(ctx, r, atyp)
	if err != nil {
		return Reply{}, err
	}
	addr.Port = port

	options, err := ReadOptions(ctx, r)
	if err != nil {
		return Reply{}, err
	}

	return Reply{
		Code:    code,
		Address: addr,
		Options: options,
	}, nil
}

// SelectedAuthMethod scans a reply's options for the handler's chosen
// authentication method.
func (rep Reply) SelectedAuthMethod() (byte, bool) {
	for _, o := range rep.Options {
		if o.Kind == optionAuthMethodSelection {
			return o.AuthMethodSelection.Method, true
		}
	}
	return 0, false
}
