// Package main is the entry point for the transparent redirector application.
package main

import (
	"errors"

	"github.com/parsafarid/socks6chain/core/net/redirector"
	"github.com/parsafarid/socks6chain/internal/config"
	"github.com/parsafarid/socks6chain/internal/flags"
	"github.com/parsafarid/socks6chain/internal/logger"
	"github.com/parsafarid/socks6chain/internal/proxy_error"
)

// main loads the redirector configuration, applies any command-line
// overrides, starts the listener, and forwards redirected connections
// indefinitely.
func main() {
	cfg := config.GetRedirectorConfig(flags.CfgPathFlag)

	if flags.ProxyFlag != "" {
		cfg.Proxy = flags.ProxyFlag
	}
	if flags.SocksVersionFlag == 5 || flags.SocksVersionFlag == 6 {
		cfg.SocksVersion = flags.SocksVersionFlag
	}

	rd := redirector.New(cfg)
	if err := rd.Listen(); err != nil {
		logger.Fatal(errors.Join(proxy_error.ErrRedirectorListenFailed, err))
	}

	if err := rd.Start(); err != nil {
		logger.Fatal(err)
	}
}
