package tcp

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"tarun-kavipurapu/netcom-transfer/pkg/logger"
)

// Listener is a bound TCP listener that hands out a single connection.
type Listener struct {
	listener *net.TCPListener
	addr     string
}

// Bind opens the listening socket without waiting for a peer.
func Bind(addr string) (*Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	tl, ok := l.(*net.TCPListener)
	if !ok {
		l.Close()
		return nil, fmt.Errorf("unexpected listener type %T", l)
	}
	return &Listener{listener: tl, addr: tl.Addr().String()}, nil
}

// Addr returns the bound address, with any :0 port resolved.
func (l *Listener) Addr() string {
	return l.addr
}

// AcceptOnce blocks until one peer connects, then stops listening.
func (l *Listener) AcceptOnce() (*net.TCPConn, error) {
	conn, err := l.listener.AcceptTCP()
	// no second connection is ever served
	l.listener.Close()
	if err != nil {
		return nil, err
	}
	logger.Sugar.Debugf("[TCPTransport] accepted connection: listen=%s remote=%s", l.addr, conn.RemoteAddr())
	return conn, nil
}

func (l *Listener) Close() error {
	return l.listener.Close()
}

// Dial connects to addr. A zero timeout leaves the limit to the OS.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*net.TCPConn, error) {
	d := &net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("unexpected connection type %T", conn)
	}
	logger.Sugar.Debugf("[TCPTransport] dialed: local=%s remote=%s", tc.LocalAddr(), addr)
	return tc, nil
}

// ReadAll reads until the peer half-closes its write side.
func ReadAll(conn *net.TCPConn) ([]byte, error) {
	buf, err := io.ReadAll(conn)
	if err != nil {
		return nil, err
	}
	logger.Sugar.Debugf("[TCPTransport] read %d bytes until EOF from %s", len(buf), conn.RemoteAddr())
	return buf, nil
}

// WriteAll writes the payload and half-closes the write side. The receiver
// relies on the resulting EOF to know the payload is complete.
func WriteAll(conn *net.TCPConn, payload []byte) error {
	written, err := conn.Write(payload)
	if err != nil {
		return err
	}
	if written != len(payload) {
		return fmt.Errorf("stream write incomplete: expected %d, wrote %d", len(payload), written)
	}
	if err := conn.CloseWrite(); err != nil {
		return fmt.Errorf("failed to half-close: %w", err)
	}
	logger.Sugar.Debugf("[TCPTransport] wrote %d bytes and half-closed to %s", written, conn.RemoteAddr())
	return nil
}
