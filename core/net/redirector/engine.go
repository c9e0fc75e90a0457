package redirector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/parsafarid/socks6chain/core/net/protocol/socks6"
	"github.com/parsafarid/socks6chain/core/net/socks5client"
	"github.com/parsafarid/socks6chain/core/net/socks6client"
	"github.com/parsafarid/socks6chain/core/net/utils"
	"github.com/parsafarid/socks6chain/internal/config"
	"github.com/parsafarid/socks6chain/internal/logger"
	"github.com/parsafarid/socks6chain/internal/proxy_error"
)

// Redirector accepts transparently redirected TCP connections, recovers
// their pre-NAT destination, and forwards them through an upstream proxy
// speaking either SOCKS6 or SOCKS5.
type Redirector struct {
	cfg      *config.RedirectorConfig
	listener net.Listener
}

// New builds a Redirector from cfg.
func New(cfg *config.RedirectorConfig) *Redirector {
	return &Redirector{cfg: cfg}
}

// Listen starts the redirector's TCP listener on the configured address.
func (rd *Redirector) Listen() error {
	var err error
	rd.listener, err = net.Listen("tcp", rd.cfg.Listen)
	if err != nil {
		return err
	}
	logger.Info("Redirector is listening on: ", rd.cfg.Listen)
	return nil
}

// Start begins accepting and handling redirected connections. It runs
// indefinitely and should be called after Listen.
func (rd *Redirector) Start() error {
	if rd.listener == nil {
		return proxy_error.ErrListenerIsNotInitialized
	}
	for {
		conn, err := rd.listener.Accept()
		if err != nil {
			logger.Warn(errors.Join(proxy_error.ErrConnectionAccepting, err))
			continue
		}
		logger.Debug("Accepted redirected connection from:", conn.RemoteAddr())
		go rd.handleConnection(context.Background(), conn)
	}
}

func (rd *Redirector) handleConnection(ctx context.Context, inbound net.Conn) {
	defer inbound.Close()

	tcpConn, ok := inbound.(*net.TCPConn)
	if !ok {
		logger.Warn("redirector: accepted non-TCP connection, cannot recover original destination")
		return
	}

	destination, err := OriginalDestination(tcpConn)
	if err != nil {
		logger.Warn(errors.Join(proxy_error.ErrNoRedirection, err))
		return
	}

	grace := time.Duration(rd.cfg.Timeout.InitialDataGrace) * time.Millisecond
	initialData, err := TryReadInitialData(inbound, grace)
	if err != nil {
		logger.Warn("redirector: peeking initial data:", err)
		return
	}

	outbound, err := rd.dial(ctx, destination, initialData)
	if err != nil {
		logger.Warn(errors.Join(proxy_error.ErrDialUpstreamFailed, err))
		return
	}
	defer outbound.Close()

	logger.Debug(fmt.Sprintf("proxying between %s/%s via %s", inbound.RemoteAddr(), destination, rd.cfg.Proxy))
	if err := utils.Splice(inbound, outbound); err != nil {
		logger.Error(errors.Join(proxy_error.ErrTransferError, err))
	}
}

func (rd *Redirector) dial(ctx context.Context, destination socks6.Address, initialData []byte) (net.Conn, error) {
	if rd.cfg.SocksVersion == 5 {
		client, err := socks5client.New(rd.cfg.Proxy, rd.cfg.Account.Username, rd.cfg.Account.Password)
		if err != nil {
			return nil, err
		}
		return client.Connect(destination.String(), initialData)
	}

	var creds *socks6client.Credentials
	if rd.cfg.HasCredentials() {
		creds = &socks6client.Credentials{Username: rd.cfg.Account.Username, Password: rd.cfg.Account.Password}
	}
	client, err := socks6client.New(rd.cfg.Proxy, creds, time.Duration(rd.cfg.Timeout.DialTimeout)*time.Second)
	if err != nil {
		return nil, err
	}
	conn, _, err := client.Connect(ctx, destination, initialData, nil)
	return conn, err
}
