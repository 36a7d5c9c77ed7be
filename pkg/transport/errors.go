package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"go.nanomsg.org/mangos/v3"
)

// Error classes. Every error leaving this package matches exactly one of
// them with errors.Is.
var (
	ErrAddressBind       = errors.New("address bind failed")
	ErrConnectionRefused = errors.New("connection refused")
	ErrConnectTimeout    = errors.New("connect timed out")
	ErrIoTransfer        = errors.New("i/o transfer failed")
	ErrProtocol          = errors.New("protocol error")
	ErrConsumed          = errors.New("socket already consumed")
)

const (
	opListen  = "listen"
	opDial    = "dial"
	opReceive = "receive"
	opSend    = "send"
	opClose   = "close"
)

// Error is the uniform error returned by sockets of either kind.
type Error struct {
	Op    string
	Kind  Kind
	Addr  string
	Class error
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s %s: %v", e.Kind, e.Op, e.Addr, e.Class)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the class sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Class}
	}
	return []error{e.Class, e.Err}
}

// normalize maps a raw net, syscall or mangos error onto the error classes.
// A cancelled ctx wins over whatever the closed socket reported.
func normalize(ctx context.Context, op string, kind Kind, addr string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s %s %s: %w", kind, op, addr, ctxErr)
	}
	return &Error{Op: op, Kind: kind, Addr: addr, Class: classify(op, err), Err: err}
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, syscall.EADDRINUSE),
		errors.Is(err, syscall.EADDRNOTAVAIL),
		errors.Is(err, syscall.EACCES),
		errors.Is(err, mangos.ErrAddrInUse):
		return ErrAddressBind
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, mangos.ErrConnRefused):
		return ErrConnectionRefused
	case isTimeout(err):
		if op == opDial {
			return ErrConnectTimeout
		}
		return ErrIoTransfer
	case errors.Is(err, mangos.ErrBadAddr),
		errors.Is(err, mangos.ErrBadTran),
		isAddrError(err):
		return ErrProtocol
	}

	switch op {
	case opListen:
		return ErrAddressBind
	case opDial:
		// unreachable hosts and networks count as refused
		return ErrConnectionRefused
	default:
		return ErrIoTransfer
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isAddrError(err error) bool {
	var addrErr *net.AddrError
	var parseErr *net.ParseError
	var dnsErr *net.DNSError
	return errors.As(err, &addrErr) || errors.As(err, &parseErr) || errors.As(err, &dnsErr)
}

func unsupported(op string, kind Kind, addr string) error {
	return &Error{Op: op, Kind: kind, Addr: addr, Class: ErrProtocol, Err: fmt.Errorf("unsupported transport kind %d", int(kind))}
}
