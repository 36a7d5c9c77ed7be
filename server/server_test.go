package server

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"tarun-kavipurapu/netcom-transfer/pkg/testutils"
	"tarun-kavipurapu/netcom-transfer/pkg/transport"
)

type result struct {
	payload []byte
	err     error
}

func serve(ctx context.Context, srv *Server) <-chan result {
	out := make(chan result, 1)
	go func() {
		payload, err := srv.Serve(ctx)
		out <- result{payload, err}
	}()
	return out
}

func TestServeEchoesOverEveryTransportPair(t *testing.T) {
	kinds := []transport.Kind{transport.KindStream, transport.KindMessage}
	for _, upload := range kinds {
		for _, reply := range kinds {
			t.Run(upload.String()+"->"+reply.String(), func(t *testing.T) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				want := []byte("solid ascii part")

				// the echo listener must be bound before the server dials back
				bound := make(chan string, 1)
				echoes := make(chan result, 1)
				go func() {
					sock, err := transport.Listen(ctx, "127.0.0.1:0", reply,
						transport.WithReady(func(addr string) { bound <- addr }))
					if err != nil {
						echoes <- result{err: err}
						return
					}
					defer sock.Close()
					payload, err := sock.Receive(ctx)
					echoes <- result{payload, err}
				}()

				var echoAddr string
				select {
				case echoAddr = <-bound:
				case e := <-echoes:
					t.Fatalf("Listen echo: %v", e.err)
				}

				srv := NewServer(Config{
					Upload:         upload,
					Reply:          reply,
					ServerRecvAddr: "127.0.0.1:0",
					ClientRecvAddr: echoAddr,
				})
				served := serve(ctx, srv)
				<-srv.Ready()

				sock, err := transport.Dial(ctx, srv.Addr(), upload)
				if err != nil {
					t.Fatalf("Dial server: %v", err)
				}
				if err := sock.Send(ctx, want); err != nil {
					t.Fatalf("Send: %v", err)
				}
				if err := sock.Close(); err != nil {
					t.Fatalf("Close: %v", err)
				}

				s := <-served
				if s.err != nil {
					t.Fatalf("Serve: %v", s.err)
				}
				if !bytes.Equal(s.payload, want) {
					t.Errorf("Serve returned %q, want %q", s.payload, want)
				}

				e := <-echoes
				if e.err != nil {
					t.Fatalf("Receive echo: %v", e.err)
				}
				if !bytes.Equal(e.payload, want) {
					t.Errorf("echo = %q, want %q", e.payload, want)
				}
			})
		}
	}
}

// Without a bound reply listener the dial-back is refused; this is the
// failure the client avoids by listening before it uploads.
func TestServeReplyWithoutListenerIsRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// nothing listens on the reply address
	srv := NewServer(Config{
		Upload:         transport.KindStream,
		Reply:          transport.KindStream,
		ServerRecvAddr: "127.0.0.1:0",
		ClientRecvAddr: testutils.FreeAddr(t),
	})
	served := serve(ctx, srv)
	<-srv.Ready()

	sock, err := transport.Dial(ctx, srv.Addr(), transport.KindStream)
	if err != nil {
		t.Fatalf("Dial server: %v", err)
	}
	if err := sock.Send(ctx, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sock.Close()

	s := <-served
	if !errors.Is(s.err, transport.ErrConnectionRefused) {
		t.Fatalf("Serve err = %v, want ErrConnectionRefused", s.err)
	}
}

func TestServeReportsBoundAddr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(Config{
		Upload:         transport.KindMessage,
		Reply:          transport.KindMessage,
		ServerRecvAddr: "127.0.0.1:0",
		ClientRecvAddr: "127.0.0.1:1",
	})
	if srv.Addr() != "" {
		t.Errorf("Addr() before Serve = %q, want empty", srv.Addr())
	}
	served := serve(ctx, srv)
	<-srv.Ready()

	if _, port, _ := net.SplitHostPort(srv.Addr()); port == "" || port == "0" {
		t.Errorf("Addr() = %q, want a resolved port", srv.Addr())
	}
	cancel()
	if s := <-served; !errors.Is(s.err, context.Canceled) {
		t.Errorf("Serve err = %v, want context.Canceled", s.err)
	}
}

func TestServeListenFailure(t *testing.T) {
	srv := NewServer(Config{
		Upload:         transport.KindStream,
		Reply:          transport.KindStream,
		ServerRecvAddr: "127.0.0.1",
		ClientRecvAddr: "127.0.0.1:1",
	})
	if _, err := srv.Serve(context.Background()); !errors.Is(err, transport.ErrProtocol) {
		t.Errorf("Serve err = %v, want ErrProtocol", err)
	}
}
