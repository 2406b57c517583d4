// Package proxy wires one configured inbound adapter to one configured
// outbound adapter and relays every accepted connection between them. Both
// the inbound-facing and outbound-facing processes run the same Run loop
// over a different configuration.
package proxy

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/parsadev/simorgh/internal/config"
	"github.com/parsadev/simorgh/internal/logger"
	"github.com/parsadev/simorgh/internal/relay"
	"github.com/parsadev/simorgh/pkg/httpproxy"
	"github.com/parsadev/simorgh/pkg/mixed"
	"github.com/parsadev/simorgh/pkg/packet"
	"github.com/parsadev/simorgh/pkg/service"
	"github.com/parsadev/simorgh/pkg/socks"
	"github.com/parsadev/simorgh/pkg/vless"
)

var errUnknownKind = errors.New("proxy: unknown adapter kind")

// Run builds the inbound and outbound adapters named in cfg, listens on
// cfg.Inbound.Listen, and relays every accepted connection until the
// listener fails or the process is killed.
func Run(cfg *config.Config) error {
	in, err := buildInbound(cfg.Inbound)
	if err != nil {
		return err
	}
	out, err := buildOutbound(cfg.Outbound)
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", cfg.Inbound.Listen)
	if err != nil {
		return err
	}
	inLog := logger.Component(cfg.Inbound.Kind)
	outLog := logger.Component(cfg.Outbound.Kind)
	inLog.Info("listening on: ", cfg.Inbound.Listen)

	dialTimeout := time.Duration(cfg.Timeout.DialTimeout) * time.Second
	handshakeTimeout := time.Duration(cfg.Timeout.HandshakeTimeout) * time.Second

	for {
		conn, err := l.Accept()
		if err != nil {
			inLog.Warn("accept: ", err)
			continue
		}
		inLog.Debug("accepted connection from: ", conn.RemoteAddr())
		go handle(conn, in, out, cfg.Outbound.Upstream, dialTimeout, handshakeTimeout, inLog, outLog)
	}
}

func handle(conn net.Conn, in *service.InboundService, out *service.OutboundService, upstream string, dialTimeout, handshakeTimeout time.Duration, inLog, outLog *logger.Logger) {
	defer conn.Close()

	hctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()
	inPkt, stream, err := in.Handshake(hctx, conn)
	if err != nil {
		inLog.Warn("inbound handshake: ", err)
		return
	}
	defer stream.Close()

	var upstreamConn net.Conn
	if out.Kind() != service.OutboundDirect {
		upstreamConn, err = net.DialTimeout("tcp", upstream, dialTimeout)
		if err != nil {
			outLog.Warn("dial upstream: ", err)
			return
		}
		defer upstreamConn.Close()
	}

	dctx, cancel2 := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel2()
	outPkt := packet.Outbound{NetworkType: inPkt.NetworkType, Dest: inPkt.Dest}
	target, err := out.Connect(dctx, upstreamConn, outPkt)
	if err != nil {
		outLog.Warn("outbound connect: ", err)
		return
	}
	defer target.Close()

	outLog.Debug("proxying to: ", inPkt.Dest.String())
	if err := relay.Pipe(stream, target); err != nil {
		outLog.Error(err)
	}
}

func buildInbound(c config.InboundConfig) (*service.InboundService, error) {
	switch c.Kind {
	case "http":
		opt := httpproxy.InboundOption{}
		if c.HTTP != nil {
			opt = *c.HTTP
		}
		return service.NewHTTPInbound(opt)
	case "socks":
		var auth []socks.AuthOption
		if c.SOCKS != nil {
			auth = c.SOCKS.Auth
		}
		return service.NewSOCKSInbound(auth)
	case "vless":
		opt := vless.InboundOption{}
		if c.VLESS != nil {
			opt = *c.VLESS
		}
		return service.NewVLESSInbound(opt)
	case "mixed":
		opt := mixed.InboundOption{}
		if c.MIXED != nil {
			opt = *c.MIXED
		}
		return service.NewMIXEDInbound(opt)
	default:
		return nil, errUnknownKind
	}
}

func buildOutbound(c config.OutboundConfig) (*service.OutboundService, error) {
	switch c.Kind {
	case "direct":
		return service.NewDirectOutbound(), nil
	case "http":
		opt := httpproxy.OutboundOption{}
		if c.HTTP != nil {
			opt = *c.HTTP
		}
		return service.NewHTTPOutbound(opt)
	case "socks":
		opt := socks.OutboundOption{}
		if c.SOCKS != nil {
			opt = *c.SOCKS
		}
		return service.NewSOCKSOutbound(opt)
	case "vless":
		opt := vless.OutboundOption{}
		if c.VLESS != nil {
			opt = *c.VLESS
		}
		return service.NewVLESSOutbound(opt)
	default:
		return nil, errUnknownKind
	}
}
