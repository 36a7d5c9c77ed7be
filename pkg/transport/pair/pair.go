// Package pair carries whole messages between exactly two endpoints over an
// nng pair1 socket, wire compatible with libnng's pair1 protocol.
package pair

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pair1"
	// registers the tcp:// scheme
	_ "go.nanomsg.org/mangos/v3/transport/tcp"
	"go.uber.org/multierr"

	"tarun-kavipurapu/netcom-transfer/pkg/logger"
)

const scheme = "tcp://"

// ErrPeerAttached means Close gave up waiting for the peer to hang up, so a
// queued message may not have been taken.
var ErrPeerAttached = errors.New("peer still attached")

// URL turns a host:port into the address form mangos expects.
func URL(addr string) string {
	return scheme + addr
}

// Socket is a pair1 socket that remembers when its peer hangs up.
type Socket struct {
	mangos.Socket

	detached chan struct{}
	once     sync.Once
}

func newSocket(maxRecvSize int) (*Socket, error) {
	sock, err := pair1.NewSocket()
	if err != nil {
		return nil, err
	}
	if err := sock.SetOption(mangos.OptionMaxRecvSize, maxRecvSize); err != nil {
		sock.Close()
		return nil, err
	}

	s := &Socket{Socket: sock, detached: make(chan struct{})}
	sock.SetPipeEventHook(func(ev mangos.PipeEvent, p mangos.Pipe) {
		if ev == mangos.PipeEventDetached {
			logger.Sugar.Debugf("[PairTransport] peer detached: pipe=%d", p.ID())
			s.once.Do(func() { close(s.detached) })
		}
	})
	return s, nil
}

// Listen binds a pair1 socket to addr and returns it with the address it
// actually bound, so a :0 port comes back resolved. It does not wait for a
// peer.
func Listen(addr string, maxRecvSize int) (*Socket, string, error) {
	s, err := newSocket(maxRecvSize)
	if err != nil {
		return nil, "", err
	}
	l, err := s.NewListener(URL(addr), nil)
	if err != nil {
		s.Close()
		return nil, "", err
	}
	if err := l.Listen(); err != nil {
		s.Close()
		return nil, "", err
	}
	bound := strings.TrimPrefix(l.Address(), scheme)
	logger.Sugar.Debugf("[PairTransport] listening: url=%s", l.Address())
	return s, bound, nil
}

// Dial connects a pair1 socket to addr. The first connection attempt is
// synchronous; reconnects after that are left to mangos.
func Dial(addr string, maxRecvSize int) (*Socket, error) {
	s, err := newSocket(maxRecvSize)
	if err != nil {
		return nil, err
	}
	if err := s.Socket.Dial(URL(addr)); err != nil {
		s.Close()
		return nil, err
	}
	logger.Sugar.Debugf("[PairTransport] dialed: url=%s", URL(addr))
	return s, nil
}

// Send queues payload as one message.
func Send(s *Socket, payload []byte) error {
	if err := s.Send(payload); err != nil {
		return err
	}
	logger.Sugar.Debugf("[PairTransport] sent message of %d bytes", len(payload))
	return nil
}

// Recv blocks until one whole message arrives.
func Recv(s *Socket) ([]byte, error) {
	payload, err := s.Recv()
	if err != nil {
		return nil, err
	}
	logger.Sugar.Debugf("[PairTransport] received message of %d bytes", len(payload))
	return payload, nil
}

// Drain waits for the peer to hang up, which it does once it has taken the
// message, and then closes s. mangos discards whatever is still queued on
// close, so closing earlier loses data. A positive limit bounds the wait and
// yields ErrPeerAttached when it runs out; zero waits as long as it takes.
func Drain(s *Socket, limit time.Duration) error {
	var expired <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		expired = timer.C
	}

	var err error
	select {
	case <-s.detached:
	case <-expired:
		err = fmt.Errorf("%w after %s", ErrPeerAttached, limit)
	}
	return multierr.Append(err, s.Close())
}
