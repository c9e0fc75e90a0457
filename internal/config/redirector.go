package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// RedirectorConfig is the configuration for the transparent redirector: the
// local address it listens on for intercepted connections, the upstream
// proxy it forwards to, which SOCKS version to speak to that proxy, and
// optional credentials to advertise.
type RedirectorConfig struct {
	Listen      string        `toml:"listen"`      // Local address accepting transparently redirected connections
	Proxy       string        `toml:"proxy"`        // Upstream proxy address, host:port
	SocksVersion int          `toml:"socksVersion"` // 5 or 6; selects the companion client
	Account     Account       `toml:"account"`       // Optional credentials to advertise to the upstream proxy
	Timeout     timeoutConfig `toml:"timeout"`
}

// loadRedirectorConfig reads and parses the redirector configuration from a TOML file.
func loadRedirectorConfig(path string) (*RedirectorConfig, error) {
	var cfg RedirectorConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaultValues()
	return &cfg, nil
}

// HasCredentials reports whether the redirector should advertise
// UsernamePassword authentication to the upstream proxy.
func (rc *RedirectorConfig) HasCredentials() bool {
	return rc.Account.Username != "" || rc.Account.Password != ""
}

func (rc *RedirectorConfig) validate() error {
	var missingFields []string
	if len(rc.Listen) < 1 {
		missingFields = append(missingFields, "listen")
	}
	if len(rc.Proxy) < 1 {
		missingFields = append(missingFields, "proxy")
	}
	if len(missingFields) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missingFields, ", "))
	}
	if rc.SocksVersion != 0 && rc.SocksVersion != 5 && rc.SocksVersion != 6 {
		return fmt.Errorf("socksVersion must be 5 or 6, got %d", rc.SocksVersion)
	}
	return nil
}

func (rc *RedirectorConfig) applyDefaultValues() {
	if rc.SocksVersion == 0 {
		rc.SocksVersion = 6
	}
	if rc.Timeout.DialTimeout == 0 {
		rc.Timeout.DialTimeout = 10
	}
	if rc.Timeout.AuthTimeout == 0 {
		rc.Timeout.AuthTimeout = 10
	}
	if rc.Timeout.InitialDataGrace == 0 {
		rc.Timeout.InitialDataGrace = 50
	}
}
