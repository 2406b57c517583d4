package vless

// UserOption is one configured VLESS identity.
type UserOption struct {
	Name string `toml:"name"`
	UUID string `toml:"uuid"`
}

// InboundOption is the TOML-facing configuration for Inbound.
type InboundOption struct {
	Users []UserOption `toml:"users"`
}

// OutboundOption is the TOML-facing configuration for Outbound.
type OutboundOption struct {
	UUID string  `toml:"uuid"`
	Flow *string `toml:"flow"`
}
