package config

import "errors"

var (
	errInvalidConfigFile   = errors.New("invalid config file")
	errMissingListenAddr   = errors.New("inbound.listen is empty")
	errMissingUpstreamAddr = errors.New("outbound.upstream is empty")
	errUnknownInboundKind  = errors.New("inbound.kind is not one of http, socks, vless, mixed")
	errUnknownOutboundKind = errors.New("outbound.kind is not one of direct, http, socks, vless")
)
