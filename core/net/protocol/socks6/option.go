package socks6

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/parsafarid/socks6chain/core/net/utils"
	"net"
)

// maxOptionDataLen is the largest data payload an option can carry: the
// largest multiple of 4 that fits the uint16 total_length field (65532),
// minus the 4-byte kind+length header.
const maxOptionDataLen = (1<<16-1)&^3 - 4

// SocksOption is a tagged union of the known SOCKS6 option kinds plus a
// catch-all Unrecognized variant that preserves bytes for forward
// compatibility. Exactly one of the Option* fields is meaningful, selected
// by Kind.
type SocksOption struct {
	Kind byte // discriminant: one of the option* constants below

	AuthMethodAdvertisement AuthMethodAdvertisementOption
	AuthMethodSelection     AuthMethodSelectionOption
	Metadata                MetadataOption
	Unrecognized            UnrecognizedOption
}

// Discriminants for SocksOption.Kind.
const (
	optionAuthMethodAdvertisement byte = iota
	optionAuthMethodSelection
	optionMetadata
	optionUnrecognized
)

// AuthMethodAdvertisementOption announces the client's initial-data length
// and the authentication methods it offers.
type AuthMethodAdvertisementOption struct {
	InitialDataLength uint16
	Methods           []byte
}

// AuthMethodSelectionOption carries the single method the handler selected.
type AuthMethodSelectionOption struct {
	Method byte
}

// MetadataOption is an out-of-band key/value pair; the chain resolver reads
// keys 998/999/1000.. from these.
type MetadataOption struct {
	Key   uint16
	Value string
}

// UnrecognizedOption preserves an option kind this codec does not know how
// to interpret, along with its raw data bytes.
type UnrecognizedOption struct {
	Kind byte2
	Data []byte
}

// byte2 is a uint16 alias kept distinct from option Kind (a byte discriminant).
type byte2 = uint16

func AuthMethodAdvertisementSocksOption(initialDataLength uint16, methods []byte) SocksOption {
	return SocksOption{Kind: optionAuthMethodAdvertisement, AuthMethodAdvertisement: AuthMethodAdvertisementOption{
		InitialDataLength: initialDataLength,
		Methods:           methods,
	}}
}

func AuthMethodSelectionSocksOption(method byte) SocksOption {
	return SocksOption{Kind: optionAuthMethodSelection, AuthMethodSelection: AuthMethodSelectionOption{Method: method}}
}

func MetadataSocksOption(key uint16, value string) SocksOption {
	return SocksOption{Kind: optionMetadata, Metadata: MetadataOption{Key: key, Value: value}}
}

func UnrecognizedSocksOption(kind uint16, data []byte) SocksOption {
	return SocksOption{Kind: optionUnrecognized, Unrecognized: UnrecognizedOption{Kind: kind, Data: data}}
}

// data returns the option's (kind, payload) pair ready for TLV framing.
func (o SocksOption) data() (kind uint16, payload []byte) {
	switch o.Kind {
	case optionAuthMethodAdvertisement:
		payload = make([]byte, 2+len(o.AuthMethodAdvertisement.Methods))
		binary.BigEndian.PutUint16(payload, o.AuthMethodAdvertisement.InitialDataLength)
		copy(payload[2:], o.AuthMethodAdvertisement.Methods)
		return OptionKindAuthMethodAdvertisement, payload
	case optionAuthMethodSelection:
		return OptionKindAuthMethodSelection, []byte{o.AuthMethodSelection.Method}
	case optionMetadata:
		payload = make([]byte, 2+len(o.Metadata.Value))
		binary.BigEndian.PutUint16(payload, o.Metadata.Key)
		copy(payload[2:], o.Metadata.Value)
		return OptionKindMetadata, payload
	case optionUnrecognized:
		return o.Unrecognized.Kind, o.Unrecognized.Data
	default:
		return 0, nil
	}
}

// Encode builds kind, total_length, data and zero-padding to a 4-byte boundary.
// total_length is the padded length and is forbidden from exceeding 2^16-1.
func (o SocksOption) Encode() ([]byte, error) {
	kind, payload := o.data()
	if len(payload) > maxOptionDataLen {
		return nil, ErrOptionDataTooLarge
	}

	headerAndData := 4 + len(payload)
	totalLength := ((headerAndData + 3) / 4) * 4
	padding := totalLength - headerAndData

	buf := make([]byte, 0, totalLength)
	var kindBuf, lenBuf [2]byte
	binary.BigEndian.PutUint16(kindBuf[:], kind)
	binary.BigEndian.PutUint16(lenBuf[:], uint16(totalLength))

	buf = append(buf, kindBuf[:]...)
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, payload...)
	buf = append(buf, make([]byte, padding)...)
	return buf, nil
}

// EncodeOptions concatenates the wire bytes of every option.
func EncodeOptions(options []SocksOption) ([]byte, error) {
	var buf []byte
	for _, o := range options {
		b, err := o.Encode()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// ReadOptions reads a 2-byte options-block length, then repeatedly decodes
// {kind, length, data} entries until the running byte count equals the
// declared block length.
func ReadOptions(ctx context.Context, r net.Conn) ([]SocksOption, error) {
	blockLenBuf := make([]byte, 2)
	if _, err := utils.ReadWithContext(ctx, r, blockLenBuf); err != nil {
		return nil, fmt.Errorf("%w: reading options block length: %v", ErrMalformedOptions, err)
	}
	blockLen := binary.BigEndian.Uint16(blockLenBuf)

	var options []SocksOption
	var read uint16
	for read < blockLen {
		header := make([]byte, 4)
		if _, err := utils.ReadWithContext(ctx, r, header); err != nil {
			return nil, fmt.Errorf("%w: reading option header: %v", ErrMalformedOptions, err)
		}
		kind := binary.BigEndian.Uint16(header[0:2])
		length := binary.BigEndian.Uint16(header[2:4])
		if length < 4 {
			return nil, fmt.Errorf("%w: option length %d shorter than header", ErrMalformedOptions, length)
		}

		data := make([]byte, length-4)
		if _, err := utils.ReadWithContext(ctx, r, data); err != nil {
			return nil, fmt.Errorf("%w: reading option data: %v", ErrMalformedOptions, err)
		}

		option, err := decodeOption(kind, data)
		if err != nil {
			return nil, err
		}
		options = append(options, option)

		read += length
	}
	if read != blockLen {
		return nil, fmt.Errorf("%w: declared block length %d, read %d", ErrMalformedOptions, blockLen, read)
	}

	return options, nil
}

func decodeOption(kind uint16, data []byte) (SocksOption, error) {
	switch kind {
	case OptionKindAuthMethodAdvertisement:
		if len(data) < 2 {
			return SocksOption{}, fmt.Errorf("%w: truncated auth method advertisement", ErrMalformedOptions)
		}
		// The advertised methods are a set; the zero padding after them reads
		// as repeated NoAuthentication bytes, so repeats are dropped.
		var methods []byte
		for _, m := range data[2:] {
			if bytes.IndexByte(methods, m) < 0 {
				methods = append(methods, m)
			}
		}
		return AuthMethodAdvertisementSocksOption(binary.BigEndian.Uint16(data[0:2]), methods), nil
	case OptionKindAuthMethodSelection:
		if len(data) < 1 {
			return SocksOption{}, fmt.Errorf("%w: truncated auth method selection", ErrMalformedOptions)
		}
		return AuthMethodSelectionSocksOption(data[0]), nil
	case OptionKindMetadata:
		if len(data) < 2 {
			return SocksOption{}, fmt.Errorf("%w: truncated metadata option", ErrMalformedOptions)
		}
		key := binary.BigEndian.Uint16(data[0:2])
		// Trailing NUL bytes are the option's zero padding, not part of the value.
		return MetadataSocksOption(key, strings.TrimRight(string(data[2:]), "\x00")), nil
	default:
		return UnrecognizedSocksOption(kind, append([]byte(nil), data...)), nil
	}
}
