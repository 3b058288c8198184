package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateHub(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateHub() error {
	if c.Hub.IdleTimeoutSeconds <= 0 {
		return errors.New("hub.idle_timeout_seconds must be positive")
	}
	if c.Hub.SweepIntervalSeconds <= 0 {
		return errors.New("hub.sweep_interval_seconds must be positive")
	}
	if c.Hub.KeepAliveSeconds <= 0 {
		return errors.New("hub.keepalive_seconds must be positive")
	}
	if c.Hub.ClientBuffer <= 0 {
		return errors.New("hub.client_buffer must be positive")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.WindowSeconds <= 0 {
		return errors.New("metrics.window_seconds must be positive")
	}
	if c.Metrics.MaxSamples <= 0 {
		return errors.New("metrics.max_samples must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
