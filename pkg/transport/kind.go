package transport

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Kind selects how a payload travels between two endpoints.
type Kind int

const (
	KindUnknown Kind = iota
	// KindStream is a TCP byte stream; a payload ends where the sender half-closes.
	KindStream
	// KindMessage is an nng pair1 socket; a payload is one atomic message.
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "tcp"
	case KindMessage:
		return "nng"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the supported transports.
func (k Kind) Valid() bool {
	return k == KindStream || k == KindMessage
}

// ParseKind accepts the canonical names (tcp, nng) and the aliases
// stream, message and pair.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp", "stream":
		return KindStream, nil
	case "nng", "message", "pair":
		return KindMessage, nil
	default:
		return KindUnknown, fmt.Errorf("%w: unknown transport %q (want tcp or nng)", ErrProtocol, s)
	}
}

// Set implements pflag.Value.
func (k *Kind) Set(s string) error {
	v, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Type implements pflag.Value.
func (k *Kind) Type() string {
	return "transport"
}

var _ pflag.Value = (*Kind)(nil)
