package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// HandlerConfig is the configuration for the SOCKS6 handler: where it
// listens, which credentials it accepts for UsernamePassword
// authentication, and a static detour chain spliced ahead of whatever chain
// a request already carries.
type HandlerConfig struct {
	Listen      string        `toml:"listen"`      // Address the handler listens on
	Credentials []Account     `toml:"credentials"` // Accounts accepted for UsernamePassword auth; empty means NoAuth only
	Detour      []string      `toml:"detour"`       // Static chain links, "user:pass@host:port" or "host:port", dialed before the request's own chain
	Timeout     timeoutConfig `toml:"timeout"`
}

// loadHandlerConfig reads and parses the handler configuration from a TOML file.
func loadHandlerConfig(path string) (*HandlerConfig, error) {
	var cfg HandlerConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaultValues()
	return &cfg, nil
}

// RequiresAuth reports whether the handler must negotiate
// UsernamePassword authentication rather than accepting NoAuth.
func (hc *HandlerConfig) RequiresAuth() bool {
	return len(hc.Credentials) > 0
}

func (hc *HandlerConfig) validate() error {
	var missingFields []string
	if len(hc.Listen) < 1 {
		missingFields = append(missingFields, "listen")
	}
	if len(missingFields) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missingFields, ", "))
	}
	for i, cred := range hc.Credentials {
		if len(cred.Username) < 1 || len(cred.Username) > 255 {
			return fmt.Errorf("element at index %d has invalid username length in credentials", i)
		}
		if len(cred.Password) < 1 || len(cred.Password) > 255 {
			return fmt.Errorf("element at index %d has invalid password length in credentials", i)
		}
	}
	return nil
}

func (hc *HandlerConfig) applyDefaultValues() {
	if hc.Timeout.DialTimeout == 0 {
		hc.Timeout.DialTimeout = 10
	}
	if hc.Timeout.AuthTimeout == 0 {
		hc.Timeout.AuthTimeout = 10
	}
}
