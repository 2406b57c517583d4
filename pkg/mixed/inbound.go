package mixed

import (
	"context"
	"net"

	"github.com/parsadev/simorgh/pkg/httpproxy"
	"github.com/parsadev/simorgh/pkg/ioctx"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/socks"
	"github.com/parsadev/simorgh/pkg/streamutil"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

// Inbound peeks the connection's leading byte and dispatches to a SOCKS or
// HTTP delegate without consuming that byte from either one's point of view.
type Inbound struct {
	socks *socks.Inbound
	http  *httpproxy.Inbound
}

// NewInbound builds both delegates from a single shared credential list,
// converted into each delegate's own auth-option shape.
func NewInbound(opt InboundOption) (*Inbound, error) {
	socksAuth := make([]socks.AuthOption, 0, len(opt.Auth))
	httpAuth := make([]httpproxy.AuthOption, 0, len(opt.Auth))
	for _, a := range opt.Auth {
		socksAuth = append(socksAuth, socks.AuthOption{Kind: "username", User: a.User, Pass: a.Pass})
		httpAuth = append(httpAuth, httpproxy.AuthOption{User: a.User, Pass: a.Pass})
	}

	socksIn, err := socks.NewInbound(socksAuth)
	if err != nil {
		return nil, err
	}
	httpIn, err := httpproxy.NewInbound(httpproxy.InboundOption{Auth: httpAuth})
	if err != nil {
		return nil, err
	}
	return &Inbound{socks: socksIn, http: httpIn}, nil
}

// Handshake reads the connection's leading byte and routes to SOCKS (version
// bytes 4 or 5) or to the HTTP delegate otherwise, re-delivering the peeked
// byte to whichever delegate is chosen via a streamutil.OneShot.
func (in *Inbound) Handshake(ctx context.Context, conn net.Conn) (packet.Inbound, net.Conn, error) {
	b, err := ioctx.ReadByte(ctx, conn)
	if err != nil {
		return packet.Inbound{}, nil, svcerr.IO(errUnableToPeek)
	}
	wrapped := streamutil.NewPrefixed(conn, []byte{b})

	if b == byte(socks.Version4) || b == byte(socks.Version5) {
		return in.socks.Handshake(ctx, wrapped)
	}
	return in.http.Handshake(ctx, wrapped)
}
