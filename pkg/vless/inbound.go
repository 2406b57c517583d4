package vless

import (
	"context"
	"net"

	"github.com/google/uuid"

	"github.com/parsadev/simorgh/pkg/ioctx"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

// Inbound authenticates a request's UUID against a configured user table and
// hands back the destination it carries.
type Inbound struct {
	users map[uuid.UUID]string
}

// NewInbound builds an Inbound from its configured user list.
func NewInbound(opt InboundOption) (*Inbound, error) {
	in := &Inbound{users: make(map[uuid.UUID]string, len(opt.Users))}
	for _, u := range opt.Users {
		id, err := uuid.Parse(u.UUID)
		if err != nil {
			return nil, svcerr.Option(err)
		}
		in.users[id] = u.Name
	}
	return in, nil
}

// Handshake reads one request header, checks its UUID, writes the empty
// response envelope, and returns the recovered packet. MUX is parsed but
// rejected: this adapter only forwards single TCP/UDP streams.
func (in *Inbound) Handshake(ctx context.Context, conn net.Conn) (packet.Inbound, net.Conn, error) {
	req, err := ReadRequest(ctx, conn)
	if err != nil {
		return packet.Inbound{}, nil, svcerr.Handshake("vless", err)
	}

	name, ok := in.users[req.UUID]
	if !ok {
		return packet.Inbound{}, nil, svcerr.Handshake("vless", errInvalidUUID)
	}

	if req.Command == CommandMux {
		return packet.Inbound{}, nil, svcerr.Handshake("vless", errInvalidCommand)
	}
	if req.Dest == nil {
		return packet.Inbound{}, nil, svcerr.Address(errNoDestination)
	}

	if _, err := ioctx.Write(ctx, conn, Response{}.Bytes()); err != nil {
		return packet.Inbound{}, nil, svcerr.IO(err)
	}

	networkType := packet.NetworkTCP
	if req.Command == CommandUDP {
		networkType = packet.NetworkUDP
	}
	return packet.Inbound{NetworkType: networkType, Dest: *req.Dest, Detail: name}, conn, nil
}
