/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/avrokit/pkg/config"
	"github.com/ssargent/avrokit/pkg/di"
)

var container *di.Container

// SetContainer injects the dependency container used by all commands
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "avrokit",
	Short: "avrokit - Avro object container toolkit",
	Long: `avrokit reads and writes Avro object container files, inspects
schemas and serves an archive of containers over a REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}
		configPath, _ := cmd.Flags().GetString("config")
		level, _ := cmd.Flags().GetString("log-level")
		return setup(container, configPath, level)
	},
}

// setup loads the configuration, when present, and installs a logger at
// the requested level. An empty level falls back to the configured one.
func setup(c *di.Container, configPath, level string) error {
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	lvl, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	c.SetConfig(cfg)
	c.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (default ~/.config/avrokit/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}
