package socks

import "fmt"

// AuthOption is the TOML-facing shape of an Auth: a discriminated tag since
// TOML has no native sum types.
type AuthOption struct {
	Kind  string `toml:"kind"` // "no_auth" | "socks4" | "username"
	Ident string `toml:"ident,omitempty"`
	User  string `toml:"user,omitempty"`
	Pass  string `toml:"pass,omitempty"`
}

// ToAuth converts the configuration-surface shape into the wire-level Auth.
func (o AuthOption) ToAuth() (Auth, error) {
	switch o.Kind {
	case "", "no_auth":
		return Auth{Kind: AuthNoAuth}, nil
	case "socks4":
		return Auth{Kind: AuthSocks4, Name: []byte(o.Ident)}, nil
	case "username":
		return Auth{Kind: AuthUsername, Name: []byte(o.User), Pass: []byte(o.Pass)}, nil
	default:
		return Auth{}, fmt.Errorf("socks: unknown auth kind %q", o.Kind)
	}
}

// InboundOption is the TOML-facing configuration for Inbound.
type InboundOption struct {
	Auth []AuthOption `toml:"auth"`
}

// OutboundOption is the TOML-facing configuration for Outbound.
type OutboundOption struct {
	Version int        `toml:"version"` // 4 or 5, default 5
	Auth    AuthOption `toml:"auth"`
}
