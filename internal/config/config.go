// Package config provides configuration structures and functions for the
// socks6chain project.
package config

import (
	"errors"
	"sync"

	"github.com/parsafarid/socks6chain/internal/logger"
)

// timeoutConfig holds various timeout settings for the application.
type timeoutConfig struct {
	DialTimeout      int `toml:"dialTimeout"`      // Dial timeout in seconds, to the next hop or the final destination
	AuthTimeout      int `toml:"authTimeout"`      // Deadline in seconds for the SOCKS6 request/auth exchange
	InitialDataGrace int `toml:"initialDataGrace"` // Grace window in milliseconds for the redirector's initial-data peek
}

// Account holds a username/password pair accepted by the handler's
// authentication sub-protocol.
type Account struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

var (
	handlerConfig            *HandlerConfig
	redirectorConfig         *RedirectorConfig
	handlerConfigLoadingOnce sync.Once
	redirectorLoadingOnce    sync.Once
)

// GetHandlerConfig loads and returns the handler configuration.
// It uses sync.Once to ensure the configuration is loaded only once, even in
// concurrent scenarios. A load failure is fatal.
func GetHandlerConfig(path string) *HandlerConfig {
	handlerConfigLoadingOnce.Do(func() {
		var err error
		if handlerConfig, err = loadHandlerConfig(path); err != nil {
			logger.Fatal(errors.Join(errInvalidConfigFile, err))
		}
	})
	return handlerConfig
}

// GetRedirectorConfig loads and returns the redirector configuration.
// It uses sync.Once to ensure the configuration is loaded only once, even in
// concurrent scenarios. A load failure is fatal.
func GetRedirectorConfig(path string) *RedirectorConfig {
	redirectorLoadingOnce.Do(func() {
		var err error
		if redirectorConfig, err = loadRedirectorConfig(path); err != nil {
			logger.Fatal(errors.Join(errInvalidConfigFile, err))
		}
	})
	return redirectorConfig
}
