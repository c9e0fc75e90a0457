package proxy_error

import "errors"

// Config errors
var (
	ErrInvalidConfigFile = errors.New("invalid config file")
)

// Listening errors
var (
	ErrHandlerListenFailed      = errors.New("handler failed to start listening on specified address")
	ErrRedirectorListenFailed   = errors.New("redirector failed to start listening on specified address")
	ErrDialUpstreamFailed       = errors.New("failed to establish connection with the next hop or destination")
	ErrListenerIsNotInitialized = errors.New("listener is not initialized")
)

// Connection errors
var (
	ErrConnectionClosed    = errors.New("connection unexpectedly closed")
	ErrConnectionAccepting = errors.New("failed to accept incoming connection")
	ErrTransferError       = errors.New("data transfer failed between the two halves of a spliced connection")
)

// Redirector errors
var (
	ErrNoRedirection = errors.New("socket carries no original destination; it was not transparently redirected")
)
