package socks6

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/parsafarid/socks6chain/core/net/utils"
)

// Address is a tagged value of kind IPv4, IPv6 or DomainName plus a port.
// It is produced at parse time and never mutated afterwards.
type Address struct {
	Atyp   byte
	IP     net.IP // set when Atyp is AtypIPv4 or AtypIPv6
	Domain string // set when Atyp is AtypDomainName
	Port   uint16
}

// NewIPAddress builds an Address around an IP, picking IPv4 or IPv6 based on
// the 4-in-16 shape of ip.To4().
func NewIPAddress(ip net.IP, port uint16) Address {
	if v4 := ip.To4(); v4 != nil {
		return Address{Atyp: AtypIPv4, IP: v4, Port: port}
	}
	return Address{Atyp: AtypIPv6, IP: ip.To16(), Port: port}
}

// NewDomainAddress builds a domain-name Address.
func NewDomainAddress(domain string, port uint16) Address {
	return Address{Atyp: AtypDomainName, Domain: domain, Port: port}
}

// String renders the address the way net.JoinHostPort would.
func (a Address) String() string {
	host := a.Domain
	if a.Atyp != AtypDomainName {
		host = a.IP.String()
	}
	return net.JoinHostPort(host, fmt.Sprint(a.Port))
}

// Encode serializes the address as [type_tag, address-bytes..., port_hi, port_lo].
// A domain name is preceded by its one-byte length.
func (a Address) Encode() ([]byte, error) {
	switch a.Atyp {
	case AtypIPv4:
		ip := a.IP.To4()
		if ip == nil {
			return nil, ErrMalformedAddress
		}
		buf := make([]byte, 0, 1+net.IPv4len+2)
		buf = append(buf, AtypIPv4)
		buf = append(buf, ip...)
		return appendPort(buf, a.Port), nil
	case AtypIPv6:
		ip := a.IP.To16()
		if ip == nil {
			return nil, ErrMalformedAddress
		}
		buf := make([]byte, 0, 1+net.IPv6len+2)
		buf = append(buf, AtypIPv6)
		buf = append(buf, ip...)
		return appendPort(buf, a.Port), nil
	case AtypDomainName:
		if len(a.Domain) == 0 || len(a.Domain) > 255 {
			return nil, ErrMalformedAddress
		}
		buf := make([]byte, 0, 2+len(a.Domain)+2)
		buf = append(buf, AtypDomainName, byte(len(a.Domain)))
		buf = append(buf, a.Domain...)
		return appendPort(buf, a.Port), nil
	default:
		return nil, ErrMalformedAddress
	}
}

func appendPort(buf []byte, port uint16) []byte {
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], port)
	return append(buf, p[:]...)
}

// encodeBody serializes only the address-type-specific bytes: no leading
// type tag, no trailing port. Reply framing (4.3) splits the atyp and the
// port away from the address body, so it builds its wire form from this
// instead of the request-side Encode above.
func (a Address) encodeBody() ([]byte, error) {
	switch a.Atyp {
	case AtypIPv4:
		ip := a.IP.To4()
		if ip == nil {
			return nil, ErrMalformedAddress
		}
		return append([]byte(nil), ip...), nil
	case AtypIPv6:
		ip := a.IP.To16()
		if ip == nil {
			return nil, ErrMalformedAddress
		}
		return append([]byte(nil), ip...), nil
	case AtypDomainName:
		if len(a.Domain) == 0 || len(a.Domain) > 255 {
			return nil, ErrMalformedAddress
		}
		buf := make([]byte, 0, 1+len(a.Domain))
		buf = append(buf, byte(len(a.Domain)))
		buf = append(buf, a.Domain...)
		return buf, nil
	default:
		return nil, ErrMalformedAddress
	}
}

// readAddressBody decodes an address's type-specific bytes given an atyp
// already consumed by the caller. Pairs with encodeBody.
func readAddressBody(ctx context.Context, r net.Conn, atyp byte) (Address, error) {
	a := Address{Atyp: atyp}
	switch atyp {
	case AtypIPv4:
		buf := make([]byte, net.IPv4len)
		if _, err := utils.ReadWithContext(ctx, r, buf); err != nil {
			return Address{}, fmt.Errorf("%w: reading IPv4 address: %v", ErrMalformedAddress, err)
		}
		a.IP = net.IP(buf)
	case AtypIPv6:
		buf := make([]byte, net.IPv6len)
		if _, err := utils.ReadWithContext(ctx, r, buf); err != nil {
			return Address{}, fmt.Errorf("%w: reading IPv6 address: %v", ErrMalformedAddress, err)
		}
		a.IP = net.IP(buf)
	case AtypDomainName:
		lenBuf := make([]byte, 1)
		if _, err := utils.ReadWithContext(ctx, r, lenBuf); err != nil {
			return Address{}, fmt.Errorf("%w: reading domain length: %v", ErrMalformedAddress, err)
		}
		if lenBuf[0] == 0 {
			return Address{}, fmt.Errorf("%w: zero-length domain name", ErrMalformedAddress)
		}
		domain := make([]byte, lenBuf[0])
		if _, err := utils.ReadWithContext(ctx, r, domain); err != nil {
			return Address{}, fmt.Errorf("%w: reading domain name: %v", ErrMalformedAddress, err)
		}
		a.Domain = string(domain)
	default:
		return Address{}, fmt.Errorf("%w: unknown address type %#x", ErrMalformedAddress, atyp)
	}
	return a, nil
}

// ReadAddress decodes an Address from the stream: a one-byte type tag
// dispatches to a length-aware reader, followed by a two-byte port.
func ReadAddress(ctx context.Context, r net.Conn) (Address, error) {
	tag := make([]byte, 1)
	if _, err := utils.ReadWithContext(ctx, r, tag); err != nil {
		return Address{}, fmt.Errorf("%w: reading type tag: %v", ErrMalformedAddress, err)
	}

	var a Address
	a.Atyp = tag[0]

	switch a.Atyp {
	case AtypIPv4:
		buf := make([]byte, net.IPv4len)
		if _, err := utils.ReadWithContext(ctx, r, buf); err != nil {
			return Address{}, fmt.Errorf("%w: reading IPv4 address: %v", ErrMalformedAddress, err)
		}
		a.IP = net.IP(buf)
	case AtypIPv6:
		buf := make([]byte, net.IPv6len)
		if _, err := utils.ReadWithContext(ctx, r, buf); err != nil {
			return Address{}, fmt.Errorf("%w: reading IPv6 address: %v", ErrMalformedAddress, err)
		}
		a.IP = net.IP(buf)
	case AtypDomainName:
		lenBuf := make([]byte, 1)
		if _, err := utils.ReadWithContext(ctx, r, lenBuf); err != nil {
			return Address{}, fmt.Errorf("%w: reading domain length: %v", ErrMalformedAddress, err)
		}
		if lenBuf[0] == 0 {
			return Address{}, fmt.Errorf("%w: zero-length domain name", ErrMalformedAddress)
		}
		domain := make([]byte, lenBuf[0])
		if _, err := utils.ReadWithContext(ctx, r, domain); err != nil {
			return Address{}, fmt.Errorf("%w: reading domain name: %v", ErrMalformedAddress, err)
		}
		a.Domain = string(domain)
	default:
		return Address{}, fmt.Errorf("%w: unknown address type %#x", ErrMalformedAddress, a.Atyp)
	}

	portBuf := make([]byte, 2)
	if _, err := utils.ReadWithContext(ctx, r, portBuf); err != nil {
		return Address{}, fmt.Errorf("%w: reading port: %v", ErrMalformedAddress, err)
	}
	a.Port = binary.BigEndian.Uint16(portBuf)

	return a, nil
}
