// Package testutils holds helpers shared by the package tests.
package testutils

import (
	"net"
	"testing"
)

// FreeAddr returns a loopback host:port that was free a moment ago. Prefer
// listening on :0 and reading the bound address back; this is for addresses
// that must be known before anything binds them, such as the reply address a
// server is configured with ahead of the client's listener, or an address
// nothing should answer on.
func FreeAddr(t testing.TB) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().String()
	if err := l.Close(); err != nil {
		t.Fatalf("release port: %v", err)
	}
	return addr
}

// Payload returns n bytes counting up from 1 and wrapping at 256.
func Payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b
}
