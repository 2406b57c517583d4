// Package config provides configuration structures and loaders for the
// simorgh inbound and outbound processes.
package config

import (
	"errors"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/parsadev/simorgh/internal/logger"
	"github.com/parsadev/simorgh/pkg/httpproxy"
	"github.com/parsadev/simorgh/pkg/mixed"
	"github.com/parsadev/simorgh/pkg/socks"
	"github.com/parsadev/simorgh/pkg/vless"
)

// TimeoutConfig holds the dial and handshake timeouts shared by both
// processes.
type TimeoutConfig struct {
	DialTimeout      int `toml:"dialTimeout"`      // seconds
	HandshakeTimeout int `toml:"handshakeTimeout"` // seconds
}

// InboundConfig selects and configures the one inbound adapter a process
// listens with.
type InboundConfig struct {
	Listen string                   `toml:"listen"`
	Kind   string                   `toml:"kind"` // "http" | "socks" | "vless" | "mixed"
	HTTP   *httpproxy.InboundOption `toml:"http"`
	SOCKS  *socks.InboundOption     `toml:"socks"`
	VLESS  *vless.InboundOption     `toml:"vless"`
	MIXED  *mixed.InboundOption     `toml:"mixed"`
}

// OutboundConfig selects and configures the one outbound adapter a process
// dials through. Upstream is the next hop's dial address; it is unused for
// "direct".
type OutboundConfig struct {
	Upstream string                    `toml:"upstream"`
	Kind     string                    `toml:"kind"` // "direct" | "http" | "socks" | "vless"
	HTTP     *httpproxy.OutboundOption `toml:"http"`
	SOCKS    *socks.OutboundOption     `toml:"socks"`
	VLESS    *vless.OutboundOption     `toml:"vless"`
}

// Config is the complete TOML configuration for one process: it wires one
// inbound and one outbound adapter together with shared timeouts.
type Config struct {
	Inbound  InboundConfig  `toml:"inbound"`
	Outbound OutboundConfig `toml:"outbound"`
	Timeout  TimeoutConfig  `toml:"timeout"`
}

var (
	cfg            *Config
	cfgLoadingOnce sync.Once
)

// Load reads and validates the configuration file at path, applying default
// timeouts for any unspecified fields. It loads the file only once; later
// calls with a different path still return the first-loaded configuration.
// On error it logs a fatal message and terminates the process, matching the
// teacher's load-or-die startup behavior.
func Load(path string) *Config {
	cfgLoadingOnce.Do(func() {
		var err error
		if cfg, err = load(path); err != nil {
			logger.Fatal(errors.Join(errInvalidConfigFile, err))
		}
	})
	return cfg
}

func load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.applyDefaultValues()
	return &c, nil
}

func (c *Config) validate() error {
	if c.Inbound.Listen == "" {
		return errMissingListenAddr
	}
	switch c.Inbound.Kind {
	case "http", "socks", "vless", "mixed":
	default:
		return errUnknownInboundKind
	}
	switch c.Outbound.Kind {
	case "direct":
	case "http", "socks", "vless":
		if c.Outbound.Upstream == "" {
			return errMissingUpstreamAddr
		}
	default:
		return errUnknownOutboundKind
	}
	return nil
}

func (c *Config) applyDefaultValues() {
	if c.Timeout.DialTimeout == 0 {
		c.Timeout.DialTimeout = 10
	}
	if c.Timeout.HandshakeTimeout == 0 {
		c.Timeout.HandshakeTimeout = 10
	}
}
