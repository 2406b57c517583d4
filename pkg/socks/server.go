package socks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/parsadev/simorgh/pkg/address"
	"github.com/parsadev/simorgh/pkg/ioctx"
)

// ServerState names the discrete states of the server-side handshake. Any
// error transitions the machine to StateFailed, an absorbing state.
type ServerState int

const (
	StateInitial ServerState = iota
	StateSocks5UsernameWait
	StateSocks5Wait
	StateDone
	StateFailed
)

// ServerHandshake drives the inbound SOCKS4/4a/5 handshake over a single
// connection. It is not safe for concurrent use; SOCKS handshakes are
// strictly half-duplex request/reply, so one goroutine per connection
// suffices.
type ServerHandshake struct {
	conn  net.Conn
	state ServerState
}

// NewServerHandshake wraps conn for a single inbound negotiation attempt.
func NewServerHandshake(conn net.Conn) *ServerHandshake {
	return &ServerHandshake{conn: conn, state: StateInitial}
}

// State returns the handshake's current discrete state.
func (h *ServerHandshake) State() ServerState { return h.state }

// Negotiate runs the handshake to completion, returning the parsed Request.
// Any failure transitions to StateFailed and is returned unwrapped; the
// caller is responsible for closing the connection.
func (h *ServerHandshake) Negotiate(ctx context.Context) (Request, error) {
	if h.state == StateFailed || h.state == StateDone {
		return Request{}, errHandshakeFinished
	}

	first, err := ioctx.ReadByte(ctx, h.conn)
	if err != nil {
		h.state = StateFailed
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}

	var req Request
	switch first {
	case byte(Version4):
		req, err = h.handleV4(ctx)
	case byte(Version5):
		req, err = h.handleV5Initial(ctx)
	default:
		err = fmt.Errorf("%w: %d", errInvalidVersion, first)
	}
	if err != nil {
		h.state = StateFailed
		return Request{}, err
	}
	h.state = StateDone
	return req, nil
}

// handleV4 parses a SOCKS4/4a request after the version byte has been read.
func (h *ServerHandshake) handleV4(ctx context.Context) (Request, error) {
	var hdr [7]byte // cmd(1) port(2) ip4(4)
	if _, err := ioctx.ReadFull(ctx, h.conn, hdr[:]); err != nil {
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}
	cmd := Command(hdr[0])
	port := uint16(hdr[1])<<8 | uint16(hdr[2])
	ip4 := hdr[3:7]

	ident, err := readUntilNUL(ctx, h.conn)
	if err != nil {
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}
	auth := Auth{Kind: AuthNoAuth}
	if len(ident) > 0 {
		auth = Auth{Kind: AuthSocks4, Name: ident}
	}

	var dest address.Address
	if ip4[0] == 0 && ip4[1] == 0 && ip4[2] == 0 && ip4[3] != 0 {
		// SOCKS4a: 0.0.0.x sentinel, x != 0 — a domain follows.
		domain, err := readUntilNUL(ctx, h.conn)
		if err != nil {
			return Request{}, errors.Join(errUnableToReadHeader, err)
		}
		if len(domain) == 0 {
			return Request{}, errInvalidAddress
		}
		dest, err = address.NewDomainAddress(string(domain))
		if err != nil {
			return Request{}, err
		}
	} else {
		dest = address.NewIPAddress(net.IP(ip4))
	}

	return NewRequest(Version4, cmd, address.ServiceAddress{Address: dest, Port: port}, auth)
}

func readUntilNUL(ctx context.Context, r io.Reader) ([]byte, error) {
	var out []byte
	for {
		b, err := ioctx.ReadByte(ctx, r)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return out, nil
		}
		out = append(out, b)
	}
}

// handleV5Initial parses the method-selection message and negotiates auth.
func (h *ServerHandshake) handleV5Initial(ctx context.Context) (Request, error) {
	n, err := ioctx.ReadByte(ctx, h.conn)
	if err != nil {
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}
	methods := make([]byte, n)
	if n > 0 {
		if _, err := ioctx.ReadFull(ctx, h.conn, methods); err != nil {
			return Request{}, errors.Join(errUnableToReadHeader, err)
		}
	}

	offersUserPass := containsByte(methods, methodUserPass)
	offersNoAuth := containsByte(methods, methodNoAuth)

	switch {
	case offersUserPass:
		if _, werr := ioctx.Write(ctx, h.conn, []byte{byte(Version5), methodUserPass}); werr != nil {
			return Request{}, errors.Join(errUnableToSendReply, werr)
		}
		h.state = StateSocks5UsernameWait
		return h.handleV5Username(ctx)
	case offersNoAuth:
		if _, werr := ioctx.Write(ctx, h.conn, []byte{byte(Version5), methodNoAuth}); werr != nil {
			return Request{}, errors.Join(errUnableToSendReply, werr)
		}
		h.state = StateSocks5Wait
		return h.handleV5Request(ctx, Auth{Kind: AuthNoAuth})
	default:
		_, _ = ioctx.Write(ctx, h.conn, []byte{byte(Version5), methodNoAccept})
		return Request{}, errUnsupportedAuthMethod
	}
}

func (h *ServerHandshake) handleV5Username(ctx context.Context) (Request, error) {
	sub, err := ioctx.ReadByte(ctx, h.conn)
	if err != nil {
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}
	if sub != 1 {
		return Request{}, fmt.Errorf("%w: %d", errInvalidVersion, sub)
	}

	ulen, err := ioctx.ReadByte(ctx, h.conn)
	if err != nil {
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}
	user := make([]byte, ulen)
	if ulen > 0 {
		if _, err := ioctx.ReadFull(ctx, h.conn, user); err != nil {
			return Request{}, errors.Join(errUnableToReadHeader, err)
		}
	}
	plen, err := ioctx.ReadByte(ctx, h.conn)
	if err != nil {
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}
	pass := make([]byte, plen)
	if plen > 0 {
		if _, err := ioctx.ReadFull(ctx, h.conn, pass); err != nil {
			return Request{}, errors.Join(errUnableToReadHeader, err)
		}
	}

	if _, werr := ioctx.Write(ctx, h.conn, []byte{0x01, 0x00}); werr != nil {
		return Request{}, errors.Join(errUnableToSendReply, werr)
	}
	h.state = StateSocks5Wait
	return h.handleV5Request(ctx, Auth{Kind: AuthUsername, Name: user, Pass: pass})
}

func (h *ServerHandshake) handleV5Request(ctx context.Context, auth Auth) (Request, error) {
	var hdr [4]byte // ver(1) cmd(1) rsv(1) atyp(1)
	if _, err := ioctx.ReadFull(ctx, h.conn, hdr[:]); err != nil {
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}
	if hdr[0] != byte(Version5) {
		return Request{}, fmt.Errorf("%w: %d", errInvalidVersion, hdr[0])
	}
	cmd := Command(hdr[1])
	family, ok := address.SocksDialect.FamilyFor(hdr[3])
	if !ok {
		return Request{}, fmt.Errorf("%w: %d", errInvalidAddress, hdr[3])
	}
	dest, err := address.ReadPayload(ctx, h.conn, family)
	if err != nil {
		return Request{}, errors.Join(errInvalidAddress, err)
	}
	port, err := address.ReadPort(ctx, h.conn)
	if err != nil {
		return Request{}, errors.Join(errUnableToReadHeader, err)
	}
	return NewRequest(Version5, cmd, address.ServiceAddress{Address: dest, Port: port}, auth)
}

func containsByte(b []byte, v byte) bool {
	for _, x := range b {
		if x == v {
			return true
		}
	}
	return false
}

// SendReply writes the reply for SOCKS version v, using addr as the
// server's reported bound address (callers typically pass the unspecified
// address on success). It is used both for the success path and for
// best-effort error replies.
func SendReply(ctx context.Context, conn net.Conn, v Version, status Status, addr address.ServiceAddress) error {
	if v == Version4 {
		buf := make([]byte, 0, 8)
		buf = append(buf, 0x00, status.ToSocks4())
		buf = address.PutPort(buf, addr.Port)
		ip4 := addr.Address.IP().To4()
		if ip4 == nil {
			ip4 = net.IPv4zero.To4()
		}
		buf = append(buf, ip4...)
		_, err := ioctx.Write(ctx, conn, buf)
		return err
	}

	buf := make([]byte, 0, 22)
	buf = append(buf, byte(Version5), byte(status), 0x00)
	var werr error
	buf, werr = appendAddress(buf, addr.Address)
	if werr != nil {
		return werr
	}
	buf = address.PutPort(buf, addr.Port)
	_, err := ioctx.Write(ctx, conn, buf)
	return err
}

func appendAddress(buf []byte, addr address.Address) ([]byte, error) {
	var w byteSliceWriter
	if err := address.Write(&w, addr, address.SocksDialect); err != nil {
		return nil, err
	}
	return append(buf, w.b...), nil
}

type byteSliceWriter struct{ b []byte }

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
