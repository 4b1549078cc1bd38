/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/avrokit/pkg/api"
	"github.com/ssargent/avrokit/pkg/di"
	"github.com/ssargent/avrokit/pkg/storage"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the avrokit REST API server on top of the container archive in
the data directory. Requests must carry the configured X-API-Key unless
the configuration has none.

Examples:
  avrokit serve
  avrokit serve --port 9000 --bind 0.0.0.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.GetConfig()
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, container)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().StringP("data-dir", "d", "./data", "Data directory holding the archive")
}

// serve opens the archive under the configured data directory and runs the
// server until ctx is done.
func serve(ctx context.Context, c *di.Container) error {
	cfg := c.GetConfig()
	logger := c.GetLogger()

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	archive, err := storage.Open(filepath.Join(cfg.DataDir, "archive"), storage.Options{Sync: true})
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	writerConfig, err := cfg.WriterConfig(logger)
	if err != nil {
		return err
	}
	if cfg.Security.APIKey == "" {
		logger.Warn("no api_key configured, the REST API is unauthenticated")
	}

	starter := c.GetServerFactory().CreateServerStarter()
	return starter.StartServer(ctx, archive, api.ServerConfig{
		Bind:   cfg.Bind,
		Port:   cfg.Port,
		APIKey: cfg.Security.APIKey,
		Writer: writerConfig,
		Logger: logger,
	})
}
