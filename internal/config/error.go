package config

import "errors"

var errInvalidConfigFile = errors.New("invalid config file")
