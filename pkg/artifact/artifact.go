// Package artifact validates the file a client is asked to send and stores
// the echo it gets back.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrExtension means the path lacks the expected file-type suffix.
var ErrExtension = errors.New("unexpected file extension")

// Validate returns a cleaned path when it ends in "."+ext, case-insensitive.
func Validate(path, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	got := strings.TrimPrefix(filepath.Ext(path), ".")
	if got == "" {
		return "", fmt.Errorf("%w: %s has no extension, it must be of type .%s", ErrExtension, path, ext)
	}
	if !strings.EqualFold(got, ext) {
		return "", fmt.Errorf("%w: %s must have .%s extension", ErrExtension, path, ext)
	}
	return filepath.Clean(path), nil
}

// OutputPath is where the echo of input is stored: name in input's directory.
func OutputPath(input, name string) string {
	return filepath.Join(filepath.Dir(input), name)
}

// WriteOutput stores data as name next to input and returns the path written.
func WriteOutput(input, name string, data []byte) (string, error) {
	out := OutputPath(input, name)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}
