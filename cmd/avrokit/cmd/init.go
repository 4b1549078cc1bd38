/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/avrokit/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with a fresh API key",
	Long: `Create the avrokit configuration file with default container settings
and a newly generated API key for the REST server.

Examples:
  avrokit init
  avrokit init --data-dir ./data --config ./avrokit.yaml --print-key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")
		printKey, _ := cmd.Flags().GetBool("print-key")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		_, err := initializeConfig(cmd.OutOrStdout(), configPath, dataDir, force, printKey)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("data-dir", "", "Data directory for the archive (default ./data)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
}

// initializeConfig bootstraps the configuration at configPath. An existing
// file is left alone unless force is set.
func initializeConfig(out io.Writer, configPath, dataDir string, force, printKey bool) (*config.Config, error) {
	if config.ConfigExists(configPath) && !force {
		fmt.Fprintf(out, "Configuration already exists at %s. Use --force to overwrite.\n", configPath)
		return config.LoadConfig(configPath)
	}

	cfg, err := config.BootstrapConfig(configPath, dataDir)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Configuration created at %s\n", configPath)
	fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
	if printKey {
		fmt.Fprintf(out, "API key: %s\n", cfg.Security.APIKey)
	}
	return cfg, nil
}
