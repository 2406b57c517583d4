package vless

import (
	"context"
	"net"

	"github.com/google/uuid"

	"github.com/parsadev/simorgh/pkg/ioctx"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/streamutil"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

// Outbound speaks the client side of the handshake against an upstream
// VLESS server already connected as conn.
type Outbound struct {
	uuid uuid.UUID
	flow string
}

// NewOutbound builds an Outbound from its UUID and optional flow tag.
func NewOutbound(opt OutboundOption) (*Outbound, error) {
	id, err := uuid.Parse(opt.UUID)
	if err != nil {
		return nil, svcerr.Option(err)
	}
	out := &Outbound{uuid: id}
	if opt.Flow != nil {
		out.flow = *opt.Flow
	}
	return out, nil
}

// Handshake sends the request header for p.Dest and returns a stream that
// strips the server's response envelope off the first read.
func (o *Outbound) Handshake(ctx context.Context, conn net.Conn, p packet.Outbound) (net.Conn, error) {
	command := byte(CommandTCP)
	if p.NetworkType == packet.NetworkUDP {
		command = CommandUDP
	}
	req := Request{
		UUID:    o.uuid,
		Addons:  Addons{Flow: o.flow},
		Command: command,
		Dest:    &p.Dest,
	}
	buf, err := req.Bytes()
	if err != nil {
		return nil, svcerr.Option(err)
	}
	if _, err := ioctx.Write(ctx, conn, buf); err != nil {
		return nil, svcerr.IO(err)
	}
	return streamutil.NewOneShot(conn, stripEnvelope), nil
}

// stripEnvelope reads one chunk from the upstream and peels the response
// envelope off its front. A short first read (fewer than two bytes, or an
// addons_len claiming more bytes than arrived) fails outright — it is not
// retried or accumulated into a second read.
func stripEnvelope(inner net.Conn) ([]byte, error) {
	buf := make([]byte, 4096)
	n, err := inner.Read(buf)
	if err != nil {
		return nil, err
	}
	consumed, err := EnvelopeLen(buf[:n])
	if err != nil {
		return nil, err
	}
	return buf[consumed:n], nil
}
