package server

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"tarun-kavipurapu/netcom-transfer/pkg/logger"
	"tarun-kavipurapu/netcom-transfer/pkg/monitor"
	"tarun-kavipurapu/netcom-transfer/pkg/transport"
)

// Config describes both legs of one transfer as seen from the server.
type Config struct {
	// Upload is the transport the client sends the file over.
	Upload transport.Kind
	// Reply is the transport the echo goes back over.
	Reply transport.Kind
	// ServerRecvAddr is where the server listens for the file.
	ServerRecvAddr string
	// ClientRecvAddr is where the client waits for the echo.
	ClientRecvAddr string
}

// Server answers one request per Serve call.
type Server struct {
	cfg       Config
	opts      []transport.Option
	ready     chan struct{}
	readyOnce sync.Once
	// addr is the bound request address, set before ready is closed
	addr string
}

func NewServer(cfg Config, opts ...transport.Option) *Server {
	return &Server{
		cfg:   cfg,
		opts:  opts,
		ready: make(chan struct{}),
	}
}

// Ready is closed once the first request listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the address the request listener bound, with a :0 port resolved.
// It is empty until Ready is closed.
func (s *Server) Addr() string {
	select {
	case <-s.ready:
		return s.addr
	default:
		return ""
	}
}

// Serve receives one payload, dials back to the client and sends the same
// bytes unmodified. Every step is fatal on failure; nothing is retried.
func (s *Server) Serve(ctx context.Context) ([]byte, error) {
	logger.Sugar.Infof("[Server] [%s] starting: upload=%s reply=%s to %s",
		s.cfg.ServerRecvAddr, s.cfg.Upload, s.cfg.Reply, s.cfg.ClientRecvAddr)

	payload, err := s.receive(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.reply(ctx, payload); err != nil {
		return nil, err
	}
	logger.Sugar.Infof("[Server] echoed %d bytes to %s", len(payload), s.cfg.ClientRecvAddr)
	return payload, nil
}

func (s *Server) receive(ctx context.Context) ([]byte, error) {
	opts := append([]transport.Option{}, s.opts...)
	opts = append(opts, transport.WithReady(func(addr string) {
		logger.Sugar.Infof("[Server] listening: transport=%s addr=%s", s.cfg.Upload, addr)
		s.readyOnce.Do(func() {
			s.addr = addr
			close(s.ready)
		})
	}))

	sock, err := transport.Listen(ctx, s.cfg.ServerRecvAddr, s.cfg.Upload, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for request: %w", err)
	}
	defer sock.Close()

	leg := monitor.StartTransfer(monitor.LegReceive, s.cfg.Upload.String())
	payload, err := sock.Receive(ctx)
	leg.Done(len(payload), err)
	if err != nil {
		return nil, fmt.Errorf("failed to receive request: %w", err)
	}
	logger.Sugar.Infof("[Server] received %d bytes: transport=%s peer=%s", len(payload), s.cfg.Upload, sock.Peer())
	return payload, nil
}

func (s *Server) reply(ctx context.Context, payload []byte) error {
	leg := monitor.StartTransfer(monitor.LegReply, s.cfg.Reply.String())

	sock, err := transport.Dial(ctx, s.cfg.ClientRecvAddr, s.cfg.Reply, s.opts...)
	if err != nil {
		leg.Done(0, err)
		return fmt.Errorf("failed to dial client: %w", err)
	}
	err = sock.Send(ctx, payload)
	err = multierr.Append(err, sock.Close())
	leg.Done(len(payload), err)
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}
