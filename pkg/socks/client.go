package socks

import (
	"errors"
	"fmt"
	"net"

	"context"

	"github.com/parsadev/simorgh/pkg/address"
	"github.com/parsadev/simorgh/pkg/ioctx"
)

// ClientState names the discrete states of the client-side handshake.
type ClientState int

const (
	ClientInitial ClientState = iota
	ClientSocks4Wait
	ClientSocks5AuthWait
	ClientSocks5UsernameWait
	ClientSocks5Wait
	ClientDone
	ClientFailed
)

// ClientHandshake drives the outbound SOCKS4/4a/5 negotiation over conn.
type ClientHandshake struct {
	conn  net.Conn
	state ClientState
}

// NewClientHandshake wraps conn for a single outbound negotiation attempt.
func NewClientHandshake(conn net.Conn) *ClientHandshake {
	return &ClientHandshake{conn: conn, state: ClientInitial}
}

// State returns the handshake's current discrete state.
func (h *ClientHandshake) State() ClientState { return h.state }

// Negotiate sends req and returns the server's Reply. When offered multiple
// SOCKS5 auth methods the tie-break is Username over NoAuth — callers select
// that by setting req.Auth accordingly; this function only speaks the one
// credential it's given.
func (h *ClientHandshake) Negotiate(ctx context.Context, req Request) (Reply, error) {
	if h.state != ClientInitial {
		return Reply{}, errHandshakeFinished
	}

	var reply Reply
	var err error
	if req.Version == Version4 {
		h.state = ClientSocks4Wait
		reply, err = h.v4(ctx, req)
	} else {
		h.state = ClientSocks5AuthWait
		reply, err = h.v5(ctx, req)
	}
	if err != nil {
		h.state = ClientFailed
		return Reply{}, err
	}
	h.state = ClientDone
	return reply, nil
}

func (h *ClientHandshake) v4(ctx context.Context, req Request) (Reply, error) {
	if req.Auth.Kind == AuthUsername {
		return Reply{}, errUnsupportedAuthMethod
	}

	buf := make([]byte, 0, 16)
	buf = append(buf, byte(Version4), byte(req.Command))
	buf = address.PutPort(buf, req.Dest.Port)

	isV4a := req.Dest.Address.IsDomain()
	if isV4a {
		buf = append(buf, 0, 0, 0, 1)
	} else {
		ip4 := req.Dest.Address.IP().To4()
		if ip4 == nil {
			return Reply{}, errInvalidAddress
		}
		buf = append(buf, ip4...)
	}
	if req.Auth.Kind == AuthSocks4 {
		buf = append(buf, req.Auth.Name...)
	}
	buf = append(buf, 0x00)
	if isV4a {
		buf = append(buf, req.Dest.Address.Domain()...)
		buf = append(buf, 0x00)
	}

	if _, err := ioctx.Write(ctx, h.conn, buf); err != nil {
		return Reply{}, errors.Join(errUnableToSendReply, err)
	}

	var resp [8]byte
	if _, err := ioctx.ReadFull(ctx, h.conn, resp[:]); err != nil {
		return Reply{}, errors.Join(errUnableToReadHeader, err)
	}
	if resp[0] != 0 {
		return Reply{}, fmt.Errorf("%w: %d", errInvalidVersion, resp[0])
	}
	status := StatusFromSocks4(resp[1])
	port := uint16(resp[2])<<8 | uint16(resp[3])
	addr := address.NewIPAddress(net.IP(resp[4:8]))
	return Reply{Status: status, Addr: address.ServiceAddress{Address: addr, Port: port}}, nil
}

func (h *ClientHandshake) v5(ctx context.Context, req Request) (Reply, error) {
	var methods []byte
	switch req.Auth.Kind {
	case AuthUsername:
		methods = []byte{methodUserPass, methodNoAuth}
	case AuthSocks4:
		return Reply{}, errUnsupportedAuthType
	default:
		methods = []byte{methodNoAuth}
	}
	greeting := append([]byte{byte(Version5), byte(len(methods))}, methods...)
	if _, err := ioctx.Write(ctx, h.conn, greeting); err != nil {
		return Reply{}, errors.Join(errUnableToSendReply, err)
	}

	var ack [2]byte
	if _, err := ioctx.ReadFull(ctx, h.conn, ack[:]); err != nil {
		return Reply{}, errors.Join(errUnableToReadHeader, err)
	}
	if ack[0] != byte(Version5) {
		return Reply{}, fmt.Errorf("%w: %d", errInvalidVersion, ack[0])
	}

	switch ack[1] {
	case methodNoAuth:
		h.state = ClientSocks5Wait
	case methodUserPass:
		h.state = ClientSocks5UsernameWait
		if err := h.sendUsernameAuth(ctx, req.Auth); err != nil {
			return Reply{}, err
		}
		h.state = ClientSocks5Wait
	default:
		return Reply{}, fmt.Errorf("%w: method %d", errUnsupportedAuthMethod, ack[1])
	}

	return h.sendCommand(ctx, req)
}

func (h *ClientHandshake) sendUsernameAuth(ctx context.Context, auth Auth) error {
	buf := make([]byte, 0, 3+len(auth.Name)+len(auth.Pass))
	buf = append(buf, 0x01, byte(len(auth.Name)))
	buf = append(buf, auth.Name...)
	buf = append(buf, byte(len(auth.Pass)))
	buf = append(buf, auth.Pass...)
	if _, err := ioctx.Write(ctx, h.conn, buf); err != nil {
		return errors.Join(errUnableToSendReply, err)
	}

	var ack [2]byte
	if _, err := ioctx.ReadFull(ctx, h.conn, ack[:]); err != nil {
		return errors.Join(errUnableToReadHeader, err)
	}
	if ack[0] != 0x01 {
		return fmt.Errorf("%w: %d", errInvalidVersion, ack[0])
	}
	if ack[1] != 0x00 {
		return errUnknownAuth
	}
	return nil
}

func (h *ClientHandshake) sendCommand(ctx context.Context, req Request) (Reply, error) {
	buf := make([]byte, 0, 22)
	buf = append(buf, byte(Version5), byte(req.Command), 0x00)
	var werr error
	buf, werr = appendAddress(buf, req.Dest.Address)
	if werr != nil {
		return Reply{}, werr
	}
	buf = address.PutPort(buf, req.Dest.Port)
	if _, err := ioctx.Write(ctx, h.conn, buf); err != nil {
		return Reply{}, errors.Join(errUnableToSendReply, err)
	}

	var hdr [3]byte // ver(1) status(1) rsv(1)
	if _, err := ioctx.ReadFull(ctx, h.conn, hdr[:]); err != nil {
		return Reply{}, errors.Join(errUnableToReadHeader, err)
	}
	if hdr[0] != byte(Version5) {
		return Reply{}, fmt.Errorf("%w: %d", errInvalidVersion, hdr[0])
	}
	atyp, err := ioctx.ReadByte(ctx, h.conn)
	if err != nil {
		return Reply{}, errors.Join(errUnableToReadHeader, err)
	}
	family, ok := address.SocksDialect.FamilyFor(atyp)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %d", errInvalidAddress, atyp)
	}
	addr, err := address.ReadPayload(ctx, h.conn, family)
	if err != nil {
		return Reply{}, errors.Join(errInvalidAddress, err)
	}
	port, err := address.ReadPort(ctx, h.conn)
	if err != nil {
		return Reply{}, errors.Join(errUnableToReadHeader, err)
	}
	return Reply{Status: Status(hdr[1]), Addr: address.ServiceAddress{Address: addr, Port: port}}, nil
}
