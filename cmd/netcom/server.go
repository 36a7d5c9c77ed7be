package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tarun-kavipurapu/netcom-transfer/pkg/config"
	"tarun-kavipurapu/netcom-transfer/pkg/monitor"
	"tarun-kavipurapu/netcom-transfer/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Receive one file and echo it back to the client",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer writeMetrics(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg)
	},
}

// runServer answers one request with the loaded configuration.
var runServer = func(ctx context.Context, cfg *config.Config) error {
	if interval := cfg.Metrics.StatsIntervalSec; interval > 0 {
		statsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go monitor.LogPeriodic(statsCtx, time.Duration(interval)*time.Second)
	}

	upload, reply := cfg.Kinds()
	srv := server.NewServer(server.Config{
		Upload:         upload,
		Reply:          reply,
		ServerRecvAddr: cfg.Transfer.ServerRecvAddr,
		ClientRecvAddr: cfg.Transfer.ClientRecvAddr,
	}, cfg.TransportOptions()...)

	_, err := srv.Serve(ctx)
	return err
}

func init() {
	rootCmd.AddCommand(serverCmd)
	addTransferFlags(serverCmd)
}
