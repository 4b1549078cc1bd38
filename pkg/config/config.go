/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/avrokit/pkg/codec"
	"github.com/ssargent/avrokit/pkg/container"
)

// Config represents the avrokit configuration
type Config struct {
	DataDir   string    `yaml:"data_dir"`
	Port      int       `yaml:"port"`
	Bind      string    `yaml:"bind"`
	Container Container `yaml:"container"`
	Security  Security  `yaml:"security"`
	Logging   Logging   `yaml:"logging"`
}

// Container holds the defaults for writing containers
type Container struct {
	Codec        string `yaml:"codec"`
	DeflateLevel int    `yaml:"deflate_level"`
	BlockSize    int    `yaml:"block_size"`
	BlockCount   int    `yaml:"block_count"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Container: Container{
			Codec:        codec.NullName,
			DeflateLevel: 6,
			BlockSize:    container.DefaultBlockSize,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Validate checks the codec, deflate level, block limits and log level.
func (c *Config) Validate() error {
	if _, err := c.Codec(); err != nil {
		return err
	}
	if c.Container.BlockSize <= 0 {
		return fmt.Errorf("block_size must be positive, got %d", c.Container.BlockSize)
	}
	if c.Container.BlockCount < 0 {
		return fmt.Errorf("block_count must not be negative, got %d", c.Container.BlockCount)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// Codec returns the configured block codec.
func (c *Config) Codec() (codec.Codec, error) {
	if c.Container.Codec == codec.DeflateName {
		return codec.NewDeflate(c.Container.DeflateLevel)
	}
	return codec.ByName(c.Container.Codec)
}

// WriterConfig builds container writer settings from the configuration.
func (c *Config) WriterConfig(logger *slog.Logger) (container.WriterConfig, error) {
	cd, err := c.Codec()
	if err != nil {
		return container.WriterConfig{}, err
	}
	return container.WriterConfig{
		Codec:      cd,
		BlockSize:  c.Container.BlockSize,
		BlockCount: c.Container.BlockCount,
		Logger:     logger,
	}, nil
}

// ParseLevel maps a level name to a slog level. The empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a fresh API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./avrokit.yaml"
	}

	// For Linux/macOS, use ~/.config/avrokit/config.yaml
	configDir := filepath.Join(homeDir, ".config", "avrokit")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
