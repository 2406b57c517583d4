// Package service provides the tagged-union façade over the inbound and
// outbound protocol adapters: one construction function per concrete
// protocol, one Handshake/Connect operation dispatched by a switch on the
// kind tag rather than through an interface hierarchy.
package service

import (
	"context"
	"fmt"
	"net"

	"github.com/parsadev/simorgh/pkg/httpproxy"
	"github.com/parsadev/simorgh/pkg/mixed"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/socks"
	"github.com/parsadev/simorgh/pkg/vless"
)

// InboundKind tags which concrete adapter an InboundService wraps.
type InboundKind int

const (
	InboundHTTP InboundKind = iota
	InboundSOCKS
	InboundVLESS
	InboundMIXED
)

// InboundService is a tagged union over the four inbound adapters, exposing
// one uniform Handshake operation.
type InboundService struct {
	kind  InboundKind
	http  *httpproxy.Inbound
	socks *socks.Inbound
	vless *vless.Inbound
	mixed *mixed.Inbound
}

// NewHTTPInbound builds an InboundService wrapping an HTTP proxy adapter.
func NewHTTPInbound(opt httpproxy.InboundOption) (*InboundService, error) {
	in, err := httpproxy.NewInbound(opt)
	if err != nil {
		return nil, err
	}
	return &InboundService{kind: InboundHTTP, http: in}, nil
}

// NewSOCKSInbound builds an InboundService wrapping a SOCKS adapter.
func NewSOCKSInbound(opts []socks.AuthOption) (*InboundService, error) {
	in, err := socks.NewInbound(opts)
	if err != nil {
		return nil, err
	}
	return &InboundService{kind: InboundSOCKS, socks: in}, nil
}

// NewVLESSInbound builds an InboundService wrapping a VLESS adapter.
func NewVLESSInbound(opt vless.InboundOption) (*InboundService, error) {
	in, err := vless.NewInbound(opt)
	if err != nil {
		return nil, err
	}
	return &InboundService{kind: InboundVLESS, vless: in}, nil
}

// NewMIXEDInbound builds an InboundService wrapping a MIXED auto-detecting
// adapter.
func NewMIXEDInbound(opt mixed.InboundOption) (*InboundService, error) {
	in, err := mixed.NewInbound(opt)
	if err != nil {
		return nil, err
	}
	return &InboundService{kind: InboundMIXED, mixed: in}, nil
}

// Kind reports which adapter this service wraps.
func (s *InboundService) Kind() InboundKind {
	return s.kind
}

// Handshake dispatches to the wrapped adapter's Handshake.
func (s *InboundService) Handshake(ctx context.Context, conn net.Conn) (packet.Inbound, net.Conn, error) {
	switch s.kind {
	case InboundHTTP:
		return s.http.Handshake(ctx, conn)
	case InboundSOCKS:
		return s.socks.Handshake(ctx, conn)
	case InboundVLESS:
		return s.vless.Handshake(ctx, conn)
	case InboundMIXED:
		return s.mixed.Handshake(ctx, conn)
	default:
		return packet.Inbound{}, nil, fmt.Errorf("service: unknown inbound kind %d", s.kind)
	}
}
