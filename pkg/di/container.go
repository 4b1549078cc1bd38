// Package di provides dependency injection container
package di

import (
	"log/slog"

	"github.com/ssargent/avrokit/pkg/api" //nolint:depguard
	"github.com/ssargent/avrokit/pkg/config"
)

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        *slog.Logger
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container with default
// configuration and the default logger.
func NewContainer() *Container {
	return &Container{
		config:        config.DefaultConfig(),
		logger:        slog.Default(),
		serverFactory: api.NewServerFactory(),
	}
}

// GetConfig returns the loaded configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// SetConfig replaces the configuration, typically after loading a file
func (c *Container) SetConfig(cfg *config.Config) {
	c.config = cfg
}

// GetLogger returns the application logger
func (c *Container) GetLogger() *slog.Logger {
	return c.logger
}

// SetLogger replaces the application logger
func (c *Container) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
