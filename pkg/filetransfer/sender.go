// Package filetransfer loads a whole file into memory and hands it to a
// dialing socket as one payload.
package filetransfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"tarun-kavipurapu/netcom-transfer/pkg/logger"
	"tarun-kavipurapu/netcom-transfer/pkg/transport"
)

// ErrSizeConversion means the file is larger than an in-memory buffer can be
// on this platform.
var ErrSizeConversion = errors.New("file size does not fit in a buffer")

// maxBufferSize is the largest payload a single []byte can hold here.
var maxBufferSize int64 = math.MaxInt

// BufferSize converts a file size reported by the filesystem into a buffer
// length.
func BufferSize(size int64) (int, error) {
	if size < 0 || size > maxBufferSize {
		return 0, fmt.Errorf("%w: %d bytes (limit %d)", ErrSizeConversion, size, maxBufferSize)
	}
	return int(size), nil
}

// ReadFile reads the whole file at path into a buffer sized from its
// metadata. Short reads are retried until the buffer is full.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size, err := BufferSize(info.Size())
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file at %s: %w", path, err)
	}
	defer file.Close()

	buf := make([]byte, size)
	if err := fill(file, buf); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return buf, nil
}

// fill reads exactly len(buf) bytes. A file that shrank after it was
// measured is a transfer error, not a shorter payload.
func fill(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return fmt.Errorf("%w: read %d of %d bytes: %v", transport.ErrIoTransfer, n, len(buf), err)
	}
	return nil
}

// SendFile reads the file at path and sends it over sock as one payload.
// The size check happens before the file is opened or the socket is used.
func SendFile(ctx context.Context, path string, sock *transport.DialingSocket) (int, error) {
	buf, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	logger.Sugar.Infof("[FileTransfer] sending %s: size=%d transport=%s to=%s", path, len(buf), sock.Kind(), sock.Addr())
	if err := sock.Send(ctx, buf); err != nil {
		return 0, fmt.Errorf("failed to send file: %w", err)
	}
	return len(buf), nil
}
