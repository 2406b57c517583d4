package socks

import (
	"context"
	"fmt"
	"net"

	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

// Outbound is the SOCKS4/4a/5 outbound adapter: dials a destination through
// an upstream SOCKS proxy already connected as conn.
type Outbound struct {
	version Version
	auth    Auth
}

// NewOutbound validates the version/auth combination eagerly so a
// misconfiguration fails at construction, not on the first handshake.
func NewOutbound(opt OutboundOption) (*Outbound, error) {
	v := Version5
	switch opt.Version {
	case 0, 5:
		v = Version5
	case 4:
		v = Version4
	default:
		return nil, svcerr.Option(fmt.Errorf("socks: unsupported version %d", opt.Version))
	}
	auth, err := opt.Auth.ToAuth()
	if err != nil {
		return nil, svcerr.Option(err)
	}
	if err := auth.Validate(v); err != nil {
		return nil, svcerr.Option(err)
	}
	return &Outbound{version: v, auth: auth}, nil
}

// Handshake negotiates the outbound SOCKS request over conn and returns the
// post-handshake duplex stream.
func (o *Outbound) Handshake(ctx context.Context, conn net.Conn, p packet.Outbound) (net.Conn, error) {
	cmd := CommandConnect
	if p.NetworkType == packet.NetworkUDP {
		cmd = CommandUDPAssociate
	}
	req, err := NewRequest(o.version, cmd, p.Dest, o.auth)
	if err != nil {
		return nil, svcerr.Option(err)
	}

	hs := NewClientHandshake(conn)
	reply, err := hs.Negotiate(ctx, req)
	if err != nil {
		return nil, svcerr.Handshake("socks", err)
	}
	if reply.Status != StatusSucceeded {
		return nil, svcerr.Handshake("socks", fmt.Errorf("%w: %d", errInvalidStatus, reply.Status))
	}
	return conn, nil
}
