package httpproxy

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"

	"github.com/parsadev/simorgh/pkg/ioctx"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/svcerr"
)

// Outbound speaks CONNECT against an upstream HTTP proxy already connected
// as conn. UDP destinations are not supported.
type Outbound struct {
	authHeader string // "Basic <base64>", or "" if unconfigured
}

// NewOutbound builds an Outbound, pre-computing the Proxy-Authorization
// header value if credentials are configured.
func NewOutbound(opt OutboundOption) (*Outbound, error) {
	out := &Outbound{}
	if opt.Auth != nil {
		token := base64.StdEncoding.EncodeToString([]byte(opt.Auth.User + ":" + opt.Auth.Pass))
		out.authHeader = "Basic " + token
	}
	return out, nil
}

// Handshake sends a CONNECT request for p.Dest and returns the post-handshake
// duplex stream once the upstream answers with a 2xx status.
func (o *Outbound) Handshake(ctx context.Context, conn net.Conn, p packet.Outbound) (net.Conn, error) {
	if p.NetworkType == packet.NetworkUDP {
		return nil, svcerr.InvalidType(errUnsupportedNetwork)
	}

	target := p.Dest.String()
	h := Header{}
	h.Add("Host", target)
	h.Add("Proxy-Connection", "Keep-Alive")
	if o.authHeader != "" {
		h.Add("Proxy-Authorization", o.authHeader)
	}
	req := WriteRequest(Request{Method: "CONNECT", Target: target, Version: "HTTP/1.1", Header: h})
	if _, err := ioctx.Write(ctx, conn, req); err != nil {
		return nil, svcerr.IO(err)
	}

	resp, err := ReadResponse(ctx, conn, MaxHeaders, MaxHeaderBytes)
	if err != nil {
		return nil, svcerr.Handshake("http", err)
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, svcerr.Handshake("http", fmt.Errorf("%w: %d", errInvalidStatusCode, resp.Status))
	}
	return conn, nil
}
