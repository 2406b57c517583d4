// Package direct implements the outbound adapter that originates a
// connection itself rather than speaking a handshake over one already
// dialed to an upstream proxy.
package direct

import (
	"context"
	"net"

	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

// Outbound dials p.Dest directly: TCP gets a normal stream socket, UDP gets
// a connected datagram socket (so reads/writes need no further addressing).
// Domain destinations are rejected — this adapter never resolves names
// itself, it only connects to addresses already resolved upstream.
type Outbound struct {
	dialer net.Dialer
}

// NewOutbound builds an Outbound with default dial settings.
func NewOutbound() *Outbound {
	return &Outbound{}
}

// Dial connects to p.Dest and returns the resulting socket.
func (o *Outbound) Dial(ctx context.Context, p packet.Outbound) (net.Conn, error) {
	if p.Dest.Address.IsDomain() {
		return nil, svcerr.Unresolved(errDomainDestination)
	}

	network := "tcp"
	if p.NetworkType == packet.NetworkUDP {
		network = "udp"
	}
	conn, err := o.dialer.DialContext(ctx, network, p.Dest.String())
	if err != nil {
		return nil, svcerr.IO(err)
	}
	return conn, nil
}
