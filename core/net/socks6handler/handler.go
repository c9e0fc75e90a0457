// Package socks6handler implements the server side of the SOCKS6 protocol:
// it accepts requests, consults the chain resolver, and either forwards to
// the next hop or terminates directly at the destination.
package socks6handler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/parsafarid/socks6chain/core/chain"
	"github.com/parsafarid/socks6chain/core/net/protocol/socks6"
	"github.com/parsafarid/socks6chain/core/net/socks6client"
	"github.com/parsafarid/socks6chain/core/net/utils"
	"github.com/parsafarid/socks6chain/internal/config"
	"github.com/parsafarid/socks6chain/internal/logger"
	"github.com/parsafarid/socks6chain/internal/proxy_error"
)

// Handler is the SOCKS6 server: it listens for inbound requests and, per
// connection, forwards to the next chain hop or terminates at the
// destination.
type Handler struct {
	cfg      *config.HandlerConfig
	detour   []chain.ProxyAddress
	listener net.Listener
}

// New builds a Handler from cfg, pre-parsing its static detour chain so a
// malformed entry is caught at startup rather than per-connection.
func New(cfg *config.HandlerConfig) (*Handler, error) {
	detour := make([]chain.ProxyAddress, 0, len(cfg.Detour))
	for _, raw := range cfg.Detour {
		addr, err := chain.ParseProxyAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("socks6handler: parsing detour entry %q: %w", raw, err)
		}
		detour = append(detour, addr)
	}
	return &Handler{cfg: cfg, detour: detour}, nil
}

// Listen starts the handler's TCP listener on the configured address.
func (h *Handler) Listen() error {
	var err error
	h.listener, err = net.Listen("tcp", h.cfg.Listen)
	if err != nil {
		return err
	}
	logger.Info("Handler is listening on: ", h.cfg.Listen)
	return nil
}

// Start begins accepting and handling incoming connections. It runs
// indefinitely and should be called after Listen.
func (h *Handler) Start() error {
	if h.listener == nil {
		return proxy_error.ErrListenerIsNotInitialized
	}
	for {
		conn, err := h.listener.Accept()
		if err != nil {
			logger.Warn(errors.Join(proxy_error.ErrConnectionAccepting, err))
			continue
		}
		logger.Debug("Accepted connection from:", conn.RemoteAddr())
		go h.handleConnection(context.Background(), conn)
	}
}

func (h *Handler) handleConnection(ctx context.Context, inbound net.Conn) {
	defer inbound.Close()

	authTimeout := time.Duration(h.cfg.Timeout.AuthTimeout) * time.Second
	reqCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	req, err := socks6.ReadRequest(reqCtx, inbound)
	if err != nil {
		if errors.Is(err, socks6.ErrVersionMismatch) {
			// A peer probing with a different version gets a hint back, not a hard error.
			inbound.Write([]byte{socks6.Version})
			return
		}
		if errors.Is(err, socks6.ErrUnsupportedCommand) {
			h.writeFailureReply(inbound, socks6.ReplyCommandNotSupported)
			return
		}
		logger.Warn("socks6handler: reading request:", err)
		return
	}

	if h.cfg.RequiresAuth() && !req.OffersAuthMethod(socks6.AuthMethodUsernamePassword) {
		logger.Warn("socks6handler: rejecting connection that didn't offer UsernamePassword")
		socks6.WriteAuthFailure(inbound)
		return
	}

	initialDataLength, _ := req.InitialDataLength()
	initialData := make([]byte, initialDataLength)
	if initialDataLength > 0 {
		if _, err := utils.ReadWithContext(reqCtx, inbound, initialData); err != nil {
			logger.Warn("socks6handler: reading initial data:", err)
			return
		}
	}

	resolved, forwarding, err := chain.Resolve(req.Metadata(), h.detour)
	if err != nil {
		logger.Warn("socks6handler: resolving chain:", err)
		h.writeFailureReply(inbound, socks6.ReplyGeneralFailure)
		return
	}

	var outbound net.Conn
	var bound socks6.Address
	if forwarding && !resolved.Exhausted() {
		outbound, bound, err = h.dialNextHop(reqCtx, resolved, req, initialData)
	} else {
		outbound, bound, err = h.dialDestination(reqCtx, req.Address, initialData)
	}
	if err != nil {
		logger.Warn(errors.Join(proxy_error.ErrDialUpstreamFailed, err))
		h.writeFailureReply(inbound, socks6.ReplyHostUnreachable)
		return
	}
	defer outbound.Close()

	if err := socks6.WriteAuthSuccess(inbound); err != nil {
		logger.Warn("socks6handler: writing auth reply:", err)
		return
	}
	reply := socks6.Reply{Code: socks6.ReplySuccess, Address: bound}
	frame, err := reply.Encode()
	if err != nil {
		logger.Warn("socks6handler: encoding operation reply:", err)
		return
	}
	if _, err := inbound.Write(frame); err != nil {
		logger.Warn("socks6handler: writing operation reply:", err)
		return
	}

	logger.Debug(fmt.Sprintf("proxying between %s/%s", inbound.RemoteAddr(), outbound.RemoteAddr()))
	if err := utils.Splice(inbound, outbound); err != nil {
		logger.Error(errors.Join(proxy_error.ErrTransferError, err))
	}
}

// dialNextHop connects a Socks6Client to the chain's next link, forwarding
// the destination, the buffered initial data, and the advanced chain state
// as metadata options.
func (h *Handler) dialNextHop(ctx context.Context, resolved chain.SocksChain, req socks6.Request, initialData []byte) (net.Conn, socks6.Address, error) {
	hop, _ := resolved.NextHop()

	var creds *socks6client.Credentials
	if hop.HasCredentials() {
		creds = &socks6client.Credentials{Username: hop.Username, Password: hop.Password}
	}

	client, err := socks6client.New(hop.Addr(), creds, time.Duration(h.cfg.Timeout.DialTimeout)*time.Second)
	if err != nil {
		return nil, socks6.Address{}, err
	}

	conn, bound, err := client.Connect(ctx, req.Address, initialData, resolved.ForwardOptions())
	if err != nil {
		return nil, socks6.Address{}, err
	}
	return conn, bound, nil
}

// dialDestination terminates the chain: it dials the request's destination
// directly and flushes the buffered initial data into it.
func (h *Handler) dialDestination(ctx context.Context, destination socks6.Address, initialData []byte) (net.Conn, socks6.Address, error) {
	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(h.cfg.Timeout.DialTimeout)*time.Second)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", destination.String())
	if err != nil {
		return nil, socks6.Address{}, err
	}
	if len(initialData) > 0 {
		if _, err := conn.Write(initialData); err != nil {
			conn.Close()
			return nil, socks6.Address{}, err
		}
	}

	bound := socks6.NewIPAddress(net.IPv4zero, 0)
	if tcpAddr, ok := conn.LocalAddr().(*net.TCPAddr); ok {
		bound = socks6.NewIPAddress(tcpAddr.IP, uint16(tcpAddr.Port))
	}
	return conn, bound, nil
}

func (h *Handler) writeFailureReply(inbound net.Conn, code socks6.ReplyCode) {
	reply := socks6.Reply{Code: code, Address: socks6.NewIPAddress(net.IPv4zero, 0)}
	frame, err := reply.Encode()
	if err != nil {
		return
	}
	inbound.Write(frame)
}
