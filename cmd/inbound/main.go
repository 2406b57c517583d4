// Package main is the entry point for the inbound-facing process: it listens
// with a locally-facing adapter (HTTP, SOCKS, MIXED, or VLESS) and relays
// each connection out through whichever outbound adapter its config names.
package main

import (
	"github.com/parsadev/simorgh/internal/config"
	"github.com/parsadev/simorgh/internal/flags"
	"github.com/parsadev/simorgh/internal/logger"
	"github.com/parsadev/simorgh/internal/proxy"
)

func main() {
	cfg := config.Load(flags.CfgPathFlag)
	if err := proxy.Run(cfg); err != nil {
		logger.Fatal(err)
	}
}
