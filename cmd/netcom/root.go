package main

import (
	"os"

	"github.com/spf13/cobra"

	"tarun-kavipurapu/netcom-transfer/pkg/config"
	"tarun-kavipurapu/netcom-transfer/pkg/logger"
	"tarun-kavipurapu/netcom-transfer/pkg/monitor"
	"tarun-kavipurapu/netcom-transfer/pkg/transport"
)

var (
	configPath     string
	clientProtocol = transport.KindStream
	serverProtocol = transport.KindStream
)

var rootCmd = &cobra.Command{
	Use:   "netcom",
	Short: "Point-to-point file echo over TCP or nng",
	Long: `netcom sends one file from a client to a server, which echoes it back.
Each direction may use a raw TCP stream or an nng pair socket.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		logger.Sugar.Error(err)
		os.Exit(1)
	}
}

// addTransferFlags registers the flags shared by client and server. Both
// sides must be given the same four values.
func addTransferFlags(cmd *cobra.Command) {
	cmd.Flags().Var(&clientProtocol, "client-transport-protocol", "Transport for the client to server leg (tcp|nng)")
	cmd.Flags().Var(&serverProtocol, "server-transport-protocol", "Transport for the server to client leg (tcp|nng)")
	cmd.Flags().String("client-recv-socket-addr", "", "host:port the client listens on for the echo")
	cmd.Flags().String("server-recv-socket-addr", "", "host:port the server listens on for the file")
}

// setup loads configuration for cmd and points the global logger at it.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.Log.Options()); err != nil {
		return nil, err
	}
	if err := cfg.RequireAddrs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeMetrics(cfg *config.Config) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := monitor.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Sugar.Warnf("Failed to write metrics to %s: %v", cfg.Metrics.Textfile, err)
		return
	}
	logger.Sugar.Debugf("Metrics written to %s", cfg.Metrics.Textfile)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write prometheus metrics to this file after the run")
}
