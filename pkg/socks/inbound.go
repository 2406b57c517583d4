package socks

import (
	"context"
	"net"

	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

// Inbound is the SOCKS4/4a/5 inbound adapter. Its user table is built once
// at construction and read only thereafter — safe to share across
// concurrently-handled connections without locking.
type Inbound struct {
	users []Auth // explicit NoAuth entries are filtered out at construction
}

// NewInbound builds an Inbound from its configuration surface. An empty
// auth list means NoAuth is accepted.
func NewInbound(opts []AuthOption) (*Inbound, error) {
	in := &Inbound{}
	for _, o := range opts {
		a, err := o.ToAuth()
		if err != nil {
			return nil, svcerr.Option(err)
		}
		if a.Kind == AuthNoAuth {
			continue
		}
		in.users = append(in.users, a)
	}
	return in, nil
}

func (in *Inbound) authorized(other Auth) bool {
	if len(in.users) == 0 {
		return other.Kind == AuthNoAuth
	}
	for _, u := range in.users {
		if u.Equal(other) {
			return true
		}
	}
	return false
}

// Handshake negotiates the inbound SOCKS request and returns the recovered
// packet alongside the post-handshake duplex stream (conn itself — SOCKS
// has no envelope to strip once the handshake completes).
func (in *Inbound) Handshake(ctx context.Context, conn net.Conn) (packet.Inbound, net.Conn, error) {
	hs := NewServerHandshake(conn)
	req, err := hs.Negotiate(ctx)
	if err != nil {
		return packet.Inbound{}, nil, svcerr.Handshake("socks", err)
	}

	if !in.authorized(req.Auth) {
		_ = SendReply(ctx, conn, req.Version, StatusNotAllowed, unspecifiedAddr())
		return packet.Inbound{}, nil, svcerr.Handshake("socks", errAuthMismatch)
	}

	var networkType packet.NetworkType
	switch req.Command {
	case CommandConnect:
		networkType = packet.NetworkTCP
	case CommandUDPAssociate:
		networkType = packet.NetworkUDP
	default:
		_ = SendReply(ctx, conn, req.Version, StatusCommandNotSupported, unspecifiedAddr())
		return packet.Inbound{}, nil, svcerr.Handshake("socks", errUnsupportedCommand)
	}

	if err := SendReply(ctx, conn, req.Version, StatusSucceeded, unspecifiedAddr()); err != nil {
		return packet.Inbound{}, nil, svcerr.IO(err)
	}

	return packet.Inbound{NetworkType: networkType, Dest: req.Dest}, conn, nil
}
