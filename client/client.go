package client

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"tarun-kavipurapu/netcom-transfer/pkg/filetransfer"
	"tarun-kavipurapu/netcom-transfer/pkg/logger"
	"tarun-kavipurapu/netcom-transfer/pkg/monitor"
	"tarun-kavipurapu/netcom-transfer/pkg/transport"
)

// ErrTaskJoin means the reply listener died instead of returning a result.
var ErrTaskJoin = errors.New("listener task terminated abnormally")

// Config describes both legs of one transfer as seen from the client.
type Config struct {
	// Upload carries the file to the server.
	Upload transport.Kind
	// Reply carries the echo back.
	Reply transport.Kind
	// ClientRecvAddr is where the client listens for the echo.
	ClientRecvAddr string
	// ServerRecvAddr is where the server listens for the file.
	ServerRecvAddr string
}

type Client struct {
	cfg  Config
	opts []transport.Option

	// receive reads the echo off the listening socket
	receive func(ctx context.Context, sock *transport.ListeningSocket) ([]byte, error)
}

type reply struct {
	payload []byte
	err     error
}

func NewClient(cfg Config, opts ...transport.Option) *Client {
	c := &Client{
		cfg:  cfg,
		opts: opts,
		receive: func(ctx context.Context, sock *transport.ListeningSocket) ([]byte, error) {
			return sock.Receive(ctx)
		},
	}
	logger.Sugar.Infof("[Client] Initialized: upload=%s to %s, reply=%s on %s",
		cfg.Upload, cfg.ServerRecvAddr, cfg.Reply, cfg.ClientRecvAddr)
	return c
}

// Transfer sends the file at path to the server and returns the bytes the
// server echoed back. The reply listener is bound before the server is
// dialed, so a server answering over a connection-oriented transport never
// finds the client's port closed.
func (c *Client) Transfer(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan struct{})
	replies := c.listen(ctx, ready)

	select {
	case <-ready:
	case r := <-replies:
		if r.err != nil {
			return nil, fmt.Errorf("failed to listen for reply: %w", r.err)
		}
		return nil, fmt.Errorf("reply listener on %s finished before the upload started", c.cfg.ClientRecvAddr)
	}

	upload := monitor.StartTransfer(monitor.LegUpload, c.cfg.Upload.String())
	n, sendErr := c.upload(ctx, path)
	upload.Done(n, sendErr)
	if sendErr != nil {
		// nothing will answer; release the listener
		cancel()
	}

	r := <-replies
	if sendErr != nil {
		if r.err != nil && !errors.Is(r.err, context.Canceled) {
			return nil, multierr.Append(sendErr, r.err)
		}
		return nil, sendErr
	}
	if r.err != nil {
		return nil, fmt.Errorf("failed to receive reply: %w", r.err)
	}

	logger.Sugar.Infof("[Client] Transfer complete: sent=%d received=%d", n, len(r.payload))
	return r.payload, nil
}

// listen runs the reply listener in its own goroutine. ready is closed once
// the listening address is bound; the result, including a recovered panic,
// is delivered exactly once on the returned channel.
func (c *Client) listen(ctx context.Context, ready chan struct{}) <-chan reply {
	out := make(chan reply, 1)
	opts := append([]transport.Option{}, c.opts...)
	opts = append(opts, transport.WithReady(func(addr string) {
		logger.Sugar.Infof("[Client] Listening for reply: transport=%s addr=%s", c.cfg.Reply, addr)
		close(ready)
	}))

	go func() {
		var r reply
		defer func() {
			if p := recover(); p != nil {
				logger.Sugar.Errorf("[Client] Reply listener panicked: %v", p)
				r = reply{err: fmt.Errorf("%w: %v", ErrTaskJoin, p)}
			}
			out <- r
		}()

		sock, err := transport.Listen(ctx, c.cfg.ClientRecvAddr, c.cfg.Reply, opts...)
		if err != nil {
			r.err = err
			return
		}
		defer sock.Close()

		download := monitor.StartTransfer(monitor.LegDownload, c.cfg.Reply.String())
		r.payload, r.err = c.receive(ctx, sock)
		download.Done(len(r.payload), r.err)
	}()
	return out
}

// upload sends the file and closes the socket. Close only returns once the
// server has taken the message, so its error belongs to the upload.
func (c *Client) upload(ctx context.Context, path string) (n int, err error) {
	sock, err := transport.Dial(ctx, c.cfg.ServerRecvAddr, c.cfg.Upload, c.opts...)
	if err != nil {
		return 0, fmt.Errorf("failed to dial server: %w", err)
	}
	defer func() {
		err = multierr.Append(err, sock.Close())
	}()

	return filetransfer.SendFile(ctx, path, sock)
}
