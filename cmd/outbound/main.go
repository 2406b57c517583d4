// Package main is the entry point for the outbound-facing process: it
// listens with an upstream-facing adapter (typically VLESS) and relays each
// connection out through whichever outbound adapter its config names
// (typically direct).
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
