package service

import (
	"context"
	"fmt"
	"net"

	"github.com/parsadev/simorgh/pkg/direct"
	"github.com/parsadev/simorgh/pkg/httpproxy"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/socks"
	"github.com/parsadev/simorgh/pkg/svcerr"
	"github.com/parsadev/simorgh/pkg/vless"
)

// OutboundKind tags which concrete adapter an OutboundService wraps.
type OutboundKind int

const (
	OutboundDirect OutboundKind = iota
	OutboundHTTP
	OutboundSOCKS
	OutboundVLESS
)

// outboundNetworkSupport lists, per kind, which packet.NetworkType values it
// can carry. Checked once at the façade boundary so every variant enforces
// it uniformly rather than relying on each adapter to self-check.
var outboundNetworkSupport = map[OutboundKind]map[packet.NetworkType]bool{
	OutboundDirect: {packet.NetworkTCP: true, packet.NetworkUDP: true},
	OutboundHTTP:   {packet.NetworkTCP: true},
	OutboundSOCKS:  {packet.NetworkTCP: true, packet.NetworkUDP: true},
	OutboundVLESS:  {packet.NetworkTCP: true, packet.NetworkUDP: true},
}

// OutboundService is a tagged union over the four outbound adapters,
// exposing one uniform Connect operation. Direct originates its own
// connection; the others speak a handshake over an already-dialed upstream.
type OutboundService struct {
	kind   OutboundKind
	direct *direct.Outbound
	http   *httpproxy.Outbound
	socks  *socks.Outbound
	vless  *vless.Outbound
}

// NewDirectOutbound builds an OutboundService that dials destinations itself.
func NewDirectOutbound() *OutboundService {
	return &OutboundService{kind: OutboundDirect, direct: direct.NewOutbound()}
}

// NewHTTPOutbound builds an OutboundService speaking CONNECT over an
// upstream HTTP proxy connection.
func NewHTTPOutbound(opt httpproxy.OutboundOption) (*OutboundService, error) {
	out, err := httpproxy.NewOutbound(opt)
	if err != nil {
		return nil, err
	}
	return &OutboundService{kind: OutboundHTTP, http: out}, nil
}

// NewSOCKSOutbound builds an OutboundService speaking SOCKS over an
// upstream SOCKS proxy connection.
func NewSOCKSOutbound(opt socks.OutboundOption) (*OutboundService, error) {
	out, err := socks.NewOutbound(opt)
	if err != nil {
		return nil, err
	}
	return &OutboundService{kind: OutboundSOCKS, socks: out}, nil
}

// NewVLESSOutbound builds an OutboundService speaking VLESS over an
// upstream VLESS server connection.
func NewVLESSOutbound(opt vless.OutboundOption) (*OutboundService, error) {
	out, err := vless.NewOutbound(opt)
	if err != nil {
		return nil, err
	}
	return &OutboundService{kind: OutboundVLESS, vless: out}, nil
}

// Kind reports which adapter this service wraps.
func (s *OutboundService) Kind() OutboundKind {
	return s.kind
}

// Connect dials or handshakes p.Dest, returning the resulting duplex
// stream. upstream is the already-dialed connection to the upstream proxy;
// it is ignored (and may be nil) for Direct, which dials itself.
func (s *OutboundService) Connect(ctx context.Context, upstream net.Conn, p packet.Outbound) (net.Conn, error) {
	if supported := outboundNetworkSupport[s.kind]; !supported[p.NetworkType] {
		return nil, svcerr.InvalidType(fmt.Errorf("service: network type %s not supported by this outbound", p.NetworkType))
	}

	switch s.kind {
	case OutboundDirect:
		return s.direct.Dial(ctx, p)
	case OutboundHTTP:
		return s.http.Handshake(ctx, upstream, p)
	case OutboundSOCKS:
		return s.socks.Handshake(ctx, upstream, p)
	case OutboundVLESS:
		return s.vless.Handshake(ctx, upstream, p)
	default:
		return nil, fmt.Errorf("service: unknown outbound kind %d", s.kind)
	}
}
