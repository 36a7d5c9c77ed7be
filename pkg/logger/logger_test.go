package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestSetupWritesToFiles(t *testing.T) {
	t.Setenv("NETCOM_LOG_LEVEL", "")
	saved := Log
	defer replace(saved)

	dir := t.TempDir()
	plain := filepath.Join(dir, "logs", "plain.log")
	rotated := filepath.Join(dir, "logs", "rotated.log")

	if err := Setup(Options{Level: "debug", Format: "json", Outputs: []string{plain}}); err != nil {
		t.Fatalf("Setup plain: %v", err)
	}
	Sugar.Debugf("[Test] plain %d", 1)
	Sync()

	if err := Setup(Options{Level: "info", Outputs: []string{rotated}, Rotate: true, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1}); err != nil {
		t.Fatalf("Setup rotated: %v", err)
	}
	Sugar.Debugf("[Test] filtered")
	Sugar.Infof("[Test] rotated %d", 2)
	Sync()

	data, err := os.ReadFile(plain)
	if err != nil {
		t.Fatalf("ReadFile plain: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"[Test] plain 1"`) {
		t.Errorf("plain log = %q", data)
	}

	data, err = os.ReadFile(rotated)
	if err != nil {
		t.Fatalf("ReadFile rotated: %v", err)
	}
	if strings.Contains(string(data), "filtered") || !strings.Contains(string(data), "[Test] rotated 2") {
		t.Errorf("rotated log = %q", data)
	}
}

func TestLevelFrom(t *testing.T) {
	t.Setenv("NETCOM_LOG_LEVEL", "")
	tests := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := levelFrom(in); got != want {
			t.Errorf("levelFrom(%q) = %v, want %v", in, got, want)
		}
	}

	t.Setenv("NETCOM_LOG_LEVEL", "error")
	if got := levelFrom("debug"); got != zapcore.ErrorLevel {
		t.Errorf("env override: levelFrom = %v, want error", got)
	}
}
