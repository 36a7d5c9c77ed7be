package artifact

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"models/part.stl", true},
		{"models/PART.STL", true},
		{"./part.stl", true},
		{"models/part.obj", false},
		{"models/part", false},
		{"models/stl", false},
	}
	for _, tt := range tests {
		_, err := Validate(tt.path, "stl")
		if tt.ok && err != nil {
			t.Errorf("Validate(%q): %v", tt.path, err)
		}
		if !tt.ok && !errors.Is(err, ErrExtension) {
			t.Errorf("Validate(%q) err = %v, want ErrExtension", tt.path, err)
		}
	}

	if _, err := Validate("part.stl", ".stl"); err != nil {
		t.Errorf("Validate with dotted extension: %v", err)
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "part.stl")
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	out, err := WriteOutput(input, "output.stl", data)
	if err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	if out != filepath.Join(dir, "output.stl") {
		t.Errorf("output path = %q", out)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("output = %v, want %v", got, data)
	}
}
