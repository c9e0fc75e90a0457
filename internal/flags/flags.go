package flags

import (
	"flag"
)

// The program's flags
var (
	// CfgPathFlag is the path to the configuration file
	CfgPathFlag string

	// SocksVersionFlag overrides the configured upstream SOCKS version (5 or 6)
	SocksVersionFlag int

	// ProxyFlag overrides the configured upstream proxy address
	ProxyFlag string
)

// Default values for the flags
const (
	defaultConfigFilePath = "./config.toml"
	defaultSocksVersion   = 0 // leaves RedirectorConfig.SocksVersion in effect
)

// init initializes the command-line flags
func init() {
	flag.StringVar(&CfgPathFlag, "config", defaultConfigFilePath, "path to config file")
	flag.IntVar(&SocksVersionFlag, "socks", defaultSocksVersion, "upstream SOCKS version to speak (5 or 6)")
	flag.StringVar(&ProxyFlag, "proxy", "", "upstream proxy address, host:port (overrides config)")

	flag.Parse()
}
