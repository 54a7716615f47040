package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFrame(); err != nil {
		return err
	}
	if err := c.validateSupervisor(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFrame() error {
	if !filepath.IsAbs(c.Frame.DevicePath) {
		return fmt.Errorf("frame.device_path must be absolute, got %q", c.Frame.DevicePath)
	}
	if !filepath.IsAbs(c.Frame.MountPoint) {
		return fmt.Errorf("frame.mount_point must be absolute, got %q", c.Frame.MountPoint)
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if err := ensurePositiveMap(map[string]int{
		"supervisor.poll_interval_seconds": c.Supervisor.PollIntervalSeconds,
		"supervisor.grace_period_seconds":  c.Supervisor.GracePeriodSeconds,
	}); err != nil {
		return err
	}
	if c.Supervisor.SetupMissingThreshold < 1 {
		return errors.New("supervisor.setup_missing_threshold must be >= 1")
	}
	return nil
}

func (c *Config) validateDisplay() error {
	return ensurePositiveMap(map[string]int{
		"display.rotate_interval_seconds": c.Display.RotateIntervalSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
