package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tarun-kavipurapu/netcom-transfer/client"
	"tarun-kavipurapu/netcom-transfer/pkg/artifact"
	"tarun-kavipurapu/netcom-transfer/pkg/config"
	"tarun-kavipurapu/netcom-transfer/pkg/logger"
)

var filePath string

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Send a file to the server and store the echo",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer writeMetrics(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runClient(ctx, cfg, filePath)
	},
}

// runClient performs one transfer of path with the loaded configuration.
var runClient = func(ctx context.Context, cfg *config.Config, path string) error {
	path, err := artifact.Validate(path, cfg.Transfer.Extension)
	if err != nil {
		return err
	}

	upload, reply := cfg.Kinds()
	c := client.NewClient(client.Config{
		Upload:         upload,
		Reply:          reply,
		ClientRecvAddr: cfg.Transfer.ClientRecvAddr,
		ServerRecvAddr: cfg.Transfer.ServerRecvAddr,
	}, cfg.TransportOptions()...)

	payload, err := c.Transfer(ctx, path)
	if err != nil {
		return err
	}

	out, err := artifact.WriteOutput(path, cfg.Transfer.OutputName, payload)
	if err != nil {
		return err
	}
	logger.Sugar.Infof("Echo of %s stored in %s (%d bytes)", path, out, len(payload))
	return nil
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.Flags().StringVarP(&filePath, "stl-file-path", "f", "", "Path of the file to send")
	_ = clientCmd.MarkFlagRequired("stl-file-path")
	addTransferFlags(clientCmd)
}
