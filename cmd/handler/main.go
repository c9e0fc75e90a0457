// Package main is the entry point for the SOCKS6 handler application.
package main

import (
	"errors"

	"github.com/parsafarid/socks6chain/core/net/socks6handler"
	"github.com/parsafarid/socks6chain/internal/config"
	"github.com/parsafarid/socks6chain/internal/flags"
	"github.com/parsafarid/socks6chain/internal/logger"
	"github.com/parsafarid/socks6chain/internal/proxy_error"
)

// main loads the handler configuration, starts the listener, and accepts
// SOCKS6 requests indefinitely.
func main() {
	cfg := config.GetHandlerConfig(flags.CfgPathFlag)

	h, err := socks6handler.New(cfg)
	if err != nil {
		logger.Fatal(errors.Join(proxy_error.ErrInvalidConfigFile, err))
	}

	if err := h.Listen(); err != nil {
		logger.Fatal(errors.Join(proxy_error.ErrHandlerListenFailed, err))
	}

	if err := h.Start(); err != nil {
		logger.Fatal(err)
	}
}
