// Package config loads netcom configuration from YAML, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tarun-kavipurapu/netcom-transfer/pkg/logger"
	"tarun-kavipurapu/netcom-transfer/pkg/transport"
)

// Config is the root configuration shared by the client and the server.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Message  MessageConfig  `mapstructure:"message"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs  []string       `mapstructure:"outputs"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// Options converts the section for logger.Setup.
func (c LogConfig) Options() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Format:     c.Format,
		Outputs:    c.Outputs,
		Rotate:     c.Rotation.Enable,
		MaxSizeMB:  c.Rotation.MaxSizeMB,
		MaxBackups: c.Rotation.MaxBackups,
		MaxAgeDays: c.Rotation.MaxAgeDays,
		Compress:   c.Rotation.Compress,
	}
}

// RotationConfig controls rotation of file outputs.
type RotationConfig struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// TransferConfig names both legs of a transfer. The same four values are
// given to the client and to the server.
type TransferConfig struct {
	// ClientTransport carries the file from client to server.
	ClientTransport string `mapstructure:"client_transport_protocol"`
	// ServerTransport carries the echo from server to client.
	ServerTransport string `mapstructure:"server_transport_protocol"`
	// ClientRecvAddr is where the client listens for the echo.
	ClientRecvAddr string `mapstructure:"client_recv_socket_addr"`
	// ServerRecvAddr is where the server listens for the file.
	ServerRecvAddr string `mapstructure:"server_recv_socket_addr"`
	// Extension the client accepts, without the dot.
	Extension string `mapstructure:"extension"`
	// OutputName is the file written next to the input with the echo.
	OutputName string `mapstructure:"output_name"`
}

type StreamConfig struct {
	// DialTimeoutMS bounds a TCP dial; 0 leaves it to the OS.
	DialTimeoutMS int `mapstructure:"dial_timeout_ms"`
}

type MessageConfig struct {
	// LingerMS caps how long a sender waits on close for the peer to take
	// its message.
	LingerMS int `mapstructure:"linger_ms"`
	// MaxMessageSize caps inbound messages in bytes; 0 is unlimited.
	MaxMessageSize int `mapstructure:"max_message_size"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the prometheus metrics after a run.
	Textfile string `mapstructure:"textfile"`
	// StatsIntervalSec logs runtime stats periodically while waiting; 0 disables.
	StatsIntervalSec int `mapstructure:"stats_interval_sec"`
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"log-level":                 "log.level",
	"client-transport-protocol": "transfer.client_transport_protocol",
	"server-transport-protocol": "transfer.server_transport_protocol",
	"client-recv-socket-addr":   "transfer.client_recv_socket_addr",
	"server-recv-socket-addr":   "transfer.server_recv_socket_addr",
	"metrics-file":              "metrics.textfile",
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Enable:     false,
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Transfer: TransferConfig{
			ClientTransport: "tcp",
			ServerTransport: "tcp",
			Extension:       "stl",
			OutputName:      "output.stl",
		},
		Message: MessageConfig{LingerMS: 30000},
	}
}

// Load reads configuration from path (if non-empty), otherwise from
// NETCOM_CONFIG or netcom.yaml in the usual places, then applies NETCOM_*
// environment variables and finally any flag in fs the user set.
// Example: NETCOM_TRANSFER_CLIENT_RECV_SOCKET_ADDR=127.0.0.1:6000
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NETCOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("transfer.client_transport_protocol", cfg.Transfer.ClientTransport)
	v.SetDefault("transfer.server_transport_protocol", cfg.Transfer.ServerTransport)
	v.SetDefault("transfer.client_recv_socket_addr", cfg.Transfer.ClientRecvAddr)
	v.SetDefault("transfer.server_recv_socket_addr", cfg.Transfer.ServerRecvAddr)
	v.SetDefault("transfer.extension", cfg.Transfer.Extension)
	v.SetDefault("transfer.output_name", cfg.Transfer.OutputName)
	v.SetDefault("stream.dial_timeout_ms", cfg.Stream.DialTimeoutMS)
	v.SetDefault("message.linger_ms", cfg.Message.LingerMS)
	v.SetDefault("message.max_message_size", cfg.Message.MaxMessageSize)
	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)
	v.SetDefault("metrics.stats_interval_sec", cfg.Metrics.StatsIntervalSec)

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path == "" {
		path = os.Getenv("NETCOM_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("netcom")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".netcom"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	if _, err := transport.ParseKind(c.Transfer.ClientTransport); err != nil {
		return fmt.Errorf("invalid transfer.client_transport_protocol: %w", err)
	}
	if _, err := transport.ParseKind(c.Transfer.ServerTransport); err != nil {
		return fmt.Errorf("invalid transfer.server_transport_protocol: %w", err)
	}
	c.Transfer.Extension = strings.TrimPrefix(strings.TrimSpace(c.Transfer.Extension), ".")
	if c.Transfer.OutputName == "" {
		c.Transfer.OutputName = "output." + c.Transfer.Extension
	}

	if c.Stream.DialTimeoutMS < 0 {
		return fmt.Errorf("invalid stream.dial_timeout_ms: %d", c.Stream.DialTimeoutMS)
	}
	if c.Message.LingerMS <= 0 {
		return fmt.Errorf("invalid message.linger_ms: %d, must be positive", c.Message.LingerMS)
	}
	if c.Message.MaxMessageSize < 0 {
		return fmt.Errorf("invalid message.max_message_size: %d", c.Message.MaxMessageSize)
	}
	return nil
}

// RequireAddrs checks that both socket addresses are set and well formed.
// Addresses are only mandatory once a transfer is about to run, so Load
// does not insist on them.
func (c *Config) RequireAddrs() error {
	for key, addr := range map[string]string{
		"client_recv_socket_addr": c.Transfer.ClientRecvAddr,
		"server_recv_socket_addr": c.Transfer.ServerRecvAddr,
	} {
		if addr == "" {
			return fmt.Errorf("transfer.%s is required", key)
		}
		if err := transport.ValidateAddr(addr); err != nil {
			return fmt.Errorf("invalid transfer.%s: %w", key, err)
		}
	}
	return nil
}

// Kinds returns the parsed client-to-server and server-to-client transports.
func (c *Config) Kinds() (upload, reply transport.Kind) {
	upload, _ = transport.ParseKind(c.Transfer.ClientTransport)
	reply, _ = transport.ParseKind(c.Transfer.ServerTransport)
	return upload, reply
}

// TransportOptions turns the stream and message sections into socket options.
func (c *Config) TransportOptions() []transport.Option {
	return []transport.Option{
		transport.WithDialTimeout(time.Duration(c.Stream.DialTimeoutMS) * time.Millisecond),
		transport.WithLinger(time.Duration(c.Message.LingerMS) * time.Millisecond),
		transport.WithMaxMessageSize(c.Message.MaxMessageSize),
	}
}
