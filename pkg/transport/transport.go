// Package transport gives the two supported transports one listen, dial,
// send and receive contract.
//
// A payload is delimited differently per kind: the stream kind ends a
// payload by half-closing the connection, so one connection carries exactly
// one payload; the message kind frames each payload as one atomic pair1
// message. Callers only ever see bytes in and bytes out.
package transport

import (
	"context"
	"net"
	"strconv"
	"time"

	"tarun-kavipurapu/netcom-transfer/pkg/transport/pair"
	"tarun-kavipurapu/netcom-transfer/pkg/transport/tcp"
)

// ListeningSocket is the receiving end of one transfer. Exactly one of
// stream and message is set, chosen by kind.
type ListeningSocket struct {
	kind    Kind
	addr    string
	stream  *net.TCPConn
	message *pair.Socket
	used    bool
}

// DialingSocket is the sending end of one transfer. Exactly one of stream
// and message is set, chosen by kind.
type DialingSocket struct {
	kind    Kind
	addr    string
	linger  time.Duration
	stream  *net.TCPConn
	message *pair.Socket
	// used marks a stream as consumed, or a message socket as having
	// something queued that Close must drain.
	used bool
}

// ValidateAddr checks that addr is a host:port pair with a numeric port.
func ValidateAddr(addr string) error {
	return validate("parse", KindUnknown, addr)
}

func validate(op string, kind Kind, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return &Error{Op: op, Kind: kind, Addr: addr, Class: ErrProtocol, Err: err}
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return &Error{Op: op, Kind: kind, Addr: addr, Class: ErrProtocol, Err: err}
	}
	return nil
}

// Listen binds addr with the given transport. For KindStream it blocks until
// exactly one peer has connected; for KindMessage it returns once bound.
// The WithReady callback fires as soon as the address is bound in both cases.
func Listen(ctx context.Context, addr string, kind Kind, opts ...Option) (*ListeningSocket, error) {
	o := buildOptions(opts)
	if err := validate(opListen, kind, addr); err != nil {
		return nil, err
	}

	switch kind {
	case KindStream:
		l, err := tcp.Bind(addr)
		if err != nil {
			return nil, normalize(ctx, opListen, kind, addr, err)
		}
		o.ready(l.Addr())

		stop := context.AfterFunc(ctx, func() { l.Close() })
		conn, err := l.AcceptOnce()
		stop()
		if err != nil {
			return nil, normalize(ctx, opListen, kind, addr, err)
		}
		return &ListeningSocket{kind: kind, addr: l.Addr(), stream: conn}, nil

	case KindMessage:
		sock, bound, err := pair.Listen(addr, o.MaxMessageSize)
		if err != nil {
			return nil, normalize(ctx, opListen, kind, addr, err)
		}
		o.ready(bound)
		return &ListeningSocket{kind: kind, addr: bound, message: sock}, nil

	default:
		return nil, unsupported(opListen, kind, addr)
	}
}

// Dial opens an outbound socket to addr with the given transport.
func Dial(ctx context.Context, addr string, kind Kind, opts ...Option) (*DialingSocket, error) {
	o := buildOptions(opts)
	if err := validate(opDial, kind, addr); err != nil {
		return nil, err
	}

	switch kind {
	case KindStream:
		conn, err := tcp.Dial(ctx, addr, o.DialTimeout)
		if err != nil {
			return nil, normalize(ctx, opDial, kind, addr, err)
		}
		return &DialingSocket{kind: kind, addr: addr, linger: o.Linger, stream: conn}, nil

	case KindMessage:
		sock, err := pair.Dial(addr, o.MaxMessageSize)
		if err != nil {
			return nil, normalize(ctx, opDial, kind, addr, err)
		}
		return &DialingSocket{kind: kind, addr: addr, linger: o.Linger, message: sock}, nil

	default:
		return nil, unsupported(opDial, kind, addr)
	}
}

func (s *ListeningSocket) Kind() Kind { return s.kind }

// Addr is the local address the socket was bound to.
func (s *ListeningSocket) Addr() string { return s.addr }

// Peer is the remote address of an accepted stream, empty for messages.
func (s *ListeningSocket) Peer() string {
	if s.kind == KindStream && s.stream != nil {
		return s.stream.RemoteAddr().String()
	}
	return ""
}

// Receive returns the next payload. A stream socket yields one payload and
// then ErrConsumed; a message socket may be read repeatedly.
func (s *ListeningSocket) Receive(ctx context.Context) ([]byte, error) {
	switch s.kind {
	case KindStream:
		if s.used {
			return nil, &Error{Op: opReceive, Kind: s.kind, Addr: s.addr, Class: ErrConsumed}
		}
		s.used = true

		stop := context.AfterFunc(ctx, func() { s.stream.Close() })
		defer stop()
		payload, err := tcp.ReadAll(s.stream)
		if err != nil {
			return nil, normalize(ctx, opReceive, s.kind, s.addr, err)
		}
		return payload, nil

	case KindMessage:
		stop := context.AfterFunc(ctx, func() { s.message.Close() })
		defer stop()
		payload, err := pair.Recv(s.message)
		if err != nil {
			return nil, normalize(ctx, opReceive, s.kind, s.addr, err)
		}
		return payload, nil

	default:
		return nil, unsupported(opReceive, s.kind, s.addr)
	}
}

func (s *ListeningSocket) Close() error {
	var err error
	switch s.kind {
	case KindStream:
		err = s.stream.Close()
	case KindMessage:
		err = s.message.Close()
	default:
		return unsupported(opClose, s.kind, s.addr)
	}
	return closeErr(s.kind, s.addr, err)
}

func (s *DialingSocket) Kind() Kind { return s.kind }

// Addr is the remote address the socket was dialed to.
func (s *DialingSocket) Addr() string { return s.addr }

// Send transmits payload as one unit. A stream socket writes everything and
// half-closes, so it can send only once; a message socket frames payload as
// a single message.
func (s *DialingSocket) Send(ctx context.Context, payload []byte) error {
	switch s.kind {
	case KindStream:
		if s.used {
			return &Error{Op: opSend, Kind: s.kind, Addr: s.addr, Class: ErrConsumed}
		}
		s.used = true

		stop := context.AfterFunc(ctx, func() { s.stream.Close() })
		defer stop()
		if err := tcp.WriteAll(s.stream, payload); err != nil {
			return normalize(ctx, opSend, s.kind, s.addr, err)
		}
		return nil

	case KindMessage:
		stop := context.AfterFunc(ctx, func() { s.message.Close() })
		defer stop()
		if err := pair.Send(s.message, payload); err != nil {
			return normalize(ctx, opSend, s.kind, s.addr, err)
		}
		s.used = true
		return nil

	default:
		return unsupported(opSend, s.kind, s.addr)
	}
}

// Close releases the socket. A message socket that has sent anything first
// waits for the peer to hang up, at most linger when linger is positive;
// giving up early is reported as ErrIoTransfer since the message may be lost.
func (s *DialingSocket) Close() error {
	var err error
	switch s.kind {
	case KindStream:
		err = s.stream.Close()
	case KindMessage:
		if s.used {
			err = pair.Drain(s.message, s.linger)
		} else {
			err = s.message.Close()
		}
	default:
		return unsupported(opClose, s.kind, s.addr)
	}
	return closeErr(s.kind, s.addr, err)
}

func closeErr(kind Kind, addr string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: opClose, Kind: kind, Addr: addr, Class: ErrIoTransfer, Err: err}
}
