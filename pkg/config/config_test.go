package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"tarun-kavipurapu/netcom-transfer/pkg/transport"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netcom.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NETCOM_CONFIG", "")
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" || cfg.Transfer.Extension != "stl" || cfg.Transfer.OutputName != "output.stl" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	upload, reply := cfg.Kinds()
	if upload != transport.KindStream || reply != transport.KindStream {
		t.Errorf("Kinds() = %v, %v, want tcp, tcp", upload, reply)
	}
	if err := cfg.RequireAddrs(); err == nil {
		t.Error("RequireAddrs accepted empty addresses")
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
transfer:
  client_transport_protocol: tcp
  server_transport_protocol: nng
  client_recv_socket_addr: 127.0.0.1:6000
  server_recv_socket_addr: 127.0.0.1:7000
message:
  linger_ms: 50
  max_message_size: 1048576
`)
	t.Setenv("NETCOM_STREAM_DIAL_TIMEOUT_MS", "1500")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("server-recv-socket-addr", "", "")
	fs.String("log-level", "info", "")
	if err := fs.Parse([]string{"--server-recv-socket-addr", "127.0.0.1:7100"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want the file value over the unset flag's default", cfg.Log.Level)
	}
	if cfg.Transfer.ServerRecvAddr != "127.0.0.1:7100" {
		t.Errorf("server addr = %q, want flag value", cfg.Transfer.ServerRecvAddr)
	}
	if cfg.Transfer.ClientRecvAddr != "127.0.0.1:6000" {
		t.Errorf("client addr = %q, want file value", cfg.Transfer.ClientRecvAddr)
	}
	if cfg.Stream.DialTimeoutMS != 1500 {
		t.Errorf("dial timeout = %d, want env value", cfg.Stream.DialTimeoutMS)
	}
	if err := cfg.RequireAddrs(); err != nil {
		t.Errorf("RequireAddrs: %v", err)
	}

	upload, reply := cfg.Kinds()
	if upload != transport.KindStream || reply != transport.KindMessage {
		t.Errorf("Kinds() = %v, %v, want tcp, nng", upload, reply)
	}

	o := transport.DefaultOptions()
	for _, opt := range cfg.TransportOptions() {
		opt(o)
	}
	if o.DialTimeout != 1500*time.Millisecond || o.Linger != 50*time.Millisecond || o.MaxMessageSize != 1<<20 {
		t.Errorf("transport options = %+v", o)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"level":     "log:\n  level: loud\n",
		"transport": "transfer:\n  client_transport_protocol: udp\n",
		"linger":    "message:\n  linger_ms: -1\n",
		"no linger": "message:\n  linger_ms: 0\n",
	}
	for name, body := range tests {
		if _, err := Load(writeConfig(t, body), nil); err == nil {
			t.Errorf("%s: Load accepted invalid config", name)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Error("Load accepted a missing explicit config file")
	}
}

func TestRequireAddrsRejectsMalformed(t *testing.T) {
	cfg := Default()
	cfg.Transfer.ClientRecvAddr = "127.0.0.1:6000"
	cfg.Transfer.ServerRecvAddr = "127.0.0.1"
	if err := cfg.RequireAddrs(); err == nil {
		t.Error("RequireAddrs accepted an address without a port")
	}
}
