// Package address implements the tagged {IPv4, IPv6, Domain} destination
// address used by every inbound/outbound protocol, with a protocol-parametric
// on-the-wire family byte (a Dialect).
package address

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/parsadev/simorgh/pkg/ioctx"
)

// Family identifies which variant an Address holds.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
	FamilyDomain
)

const maxDomainLen = 255

var (
	// ErrInvalidAddrType is returned when a wire byte does not map to any
	// family under the active Dialect.
	ErrInvalidAddrType = errors.New("address: unknown address type byte")
	// ErrInvalidAddress is returned when a domain is malformed (e.g. too long).
	ErrInvalidAddress = errors.New("address: invalid address")
)

// Dialect maps the three address families to the numeric byte a particular
// protocol uses on the wire. VLESS and SOCKS each assign their own codes.
type Dialect struct {
	IPv4   byte
	IPv6   byte
	Domain byte
}

// SocksDialect is SOCKS4/5's {IPv4=1, Domain=3, IPv6=4}.
var SocksDialect = Dialect{IPv4: 1, Domain: 3, IPv6: 4}

// VlessDialect is VLESS's {IPv4=1, Domain=2, IPv6=3}.
var VlessDialect = Dialect{IPv4: 1, Domain: 2, IPv6: 3}

// ByteFor returns the wire byte this dialect assigns to family f.
func (d Dialect) ByteFor(f Family) (byte, bool) { return d.byteFor(f) }

// FamilyFor returns the family this dialect assigns to wire byte b.
func (d Dialect) FamilyFor(b byte) (Family, bool) { return d.familyFor(b) }

func (d Dialect) byteFor(f Family) (byte, bool) {
	switch f {
	case FamilyIPv4:
		return d.IPv4, true
	case FamilyIPv6:
		return d.IPv6, true
	case FamilyDomain:
		return d.Domain, true
	default:
		return 0, false
	}
}

func (d Dialect) familyFor(b byte) (Family, bool) {
	switch b {
	case d.IPv4:
		return FamilyIPv4, true
	case d.IPv6:
		return FamilyIPv6, true
	case d.Domain:
		return FamilyDomain, true
	default:
		return 0, false
	}
}

// Address is an immutable tagged destination address.
type Address struct {
	family Family
	ip     net.IP
	domain string
}

// NewIPAddress builds an Address from a net.IP, choosing IPv4 or IPv6 by the
// address's effective length.
func NewIPAddress(ip net.IP) Address {
	if v4 := ip.To4(); v4 != nil {
		return Address{family: FamilyIPv4, ip: v4}
	}
	return Address{family: FamilyIPv6, ip: ip.To16()}
}

// NewDomainAddress builds a domain Address, rejecting domains over 255 bytes.
func NewDomainAddress(domain string) (Address, error) {
	if len(domain) > maxDomainLen {
		return Address{}, fmt.Errorf("%w: domain %q exceeds %d bytes", ErrInvalidAddress, domain, maxDomainLen)
	}
	return Address{family: FamilyDomain, domain: domain}, nil
}

// Family reports which variant this Address holds.
func (a Address) Family() Family { return a.family }

// IsDomain reports whether this Address is a domain name.
func (a Address) IsDomain() bool { return a.family == FamilyDomain }

// IP returns the raw IP for an IPv4/IPv6 Address; nil for a domain.
func (a Address) IP() net.IP { return a.ip }

// Domain returns the domain string for a domain Address; "" otherwise.
func (a Address) Domain() string { return a.domain }

// String renders the address portion only (no port).
func (a Address) String() string {
	switch a.family {
	case FamilyDomain:
		return a.domain
	default:
		return a.ip.String()
	}
}

// ServiceAddress pairs an Address with a port, displayed as "addr:port".
type ServiceAddress struct {
	Address Address
	Port    uint16
}

func (s ServiceAddress) String() string {
	return net.JoinHostPort(s.Address.String(), strconv.Itoa(int(s.Port)))
}

// Write encodes addr onto w using dialect's family-byte mapping: one byte
// family tag, then either 4/16 raw octets or a 1-byte length plus domain
// bytes.
func Write(w io.Writer, addr Address, dialect Dialect) error {
	tag, ok := dialect.byteFor(addr.family)
	if !ok {
		return ErrInvalidAddrType
	}
	switch addr.family {
	case FamilyIPv4:
		buf := make([]byte, 1+net.IPv4len)
		buf[0] = tag
		copy(buf[1:], addr.ip.To4())
		_, err := w.Write(buf)
		return err
	case FamilyIPv6:
		buf := make([]byte, 1+net.IPv6len)
		buf[0] = tag
		copy(buf[1:], addr.ip.To16())
		_, err := w.Write(buf)
		return err
	case FamilyDomain:
		if len(addr.domain) > maxDomainLen {
			return ErrInvalidAddress
		}
		buf := make([]byte, 2+len(addr.domain))
		buf[0] = tag
		buf[1] = byte(len(addr.domain))
		copy(buf[2:], addr.domain)
		_, err := w.Write(buf)
		return err
	default:
		return ErrInvalidAddrType
	}
}

// Read decodes an Address from r: a family tag byte, mapped to a Family
// through dialect, then the family's payload.
func Read(ctx context.Context, r io.Reader, dialect Dialect) (Address, error) {
	tag, err := ioctx.ReadByte(ctx, r)
	if err != nil {
		return Address{}, err
	}
	family, ok := dialect.familyFor(tag)
	if !ok {
		return Address{}, fmt.Errorf("%w: byte %d", ErrInvalidAddrType, tag)
	}
	return ReadPayload(ctx, r, family)
}

// ReadPayload decodes an Address's payload given a Family already determined
// by the caller (used when the caller has already read the tag byte itself,
// as the SOCKS5 request and reply parsers do).
func ReadPayload(ctx context.Context, r io.Reader, family Family) (Address, error) {
	switch family {
	case FamilyIPv4:
		buf := make([]byte, net.IPv4len)
		if _, err := ioctx.ReadFull(ctx, r, buf); err != nil {
			return Address{}, err
		}
		return Address{family: FamilyIPv4, ip: net.IP(buf)}, nil
	case FamilyIPv6:
		buf := make([]byte, net.IPv6len)
		if _, err := ioctx.ReadFull(ctx, r, buf); err != nil {
			return Address{}, err
		}
		return Address{family: FamilyIPv6, ip: net.IP(buf)}, nil
	case FamilyDomain:
		n, err := ioctx.ReadByte(ctx, r)
		if err != nil {
			return Address{}, err
		}
		buf := make([]byte, n)
		if n > 0 {
			if _, err := ioctx.ReadFull(ctx, r, buf); err != nil {
				return Address{}, err
			}
		}
		return Address{family: FamilyDomain, domain: string(buf)}, nil
	default:
		return Address{}, ErrInvalidAddrType
	}
}

// ReadPort reads a big-endian 16-bit port.
func ReadPort(ctx context.Context, r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := ioctx.ReadFull(ctx, r, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// PutPort appends a big-endian 16-bit port to buf.
func PutPort(buf []byte, port uint16) []byte {
	return append(buf, byte(port>>8), byte(port))
}
