package httpproxy

// AuthOption is one configured "user:pass" credential.
type AuthOption struct {
	User string `toml:"user"`
	Pass string `toml:"pass"`
}

// InboundOption is the TOML-facing configuration for Inbound.
type InboundOption struct {
	Auth []AuthOption `toml:"auth"`
}

// OutboundOption is the TOML-facing configuration for Outbound.
type OutboundOption struct {
	Auth *AuthOption `toml:"auth"`
}
