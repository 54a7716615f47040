package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Frame identifies the target storage device and its fixed mount point.
type Frame struct {
	DevicePath string `toml:"device_path"`
	MountPoint string `toml:"mount_point"`
}

// Supervisor contains control-loop timing and classification settings.
type Supervisor struct {
	PollIntervalSeconds   int `toml:"poll_interval_seconds"`
	GracePeriodSeconds    int `toml:"grace_period_seconds"`
	SetupMissingThreshold int `toml:"setup_missing_threshold"`
}

// Display contains settings for the spawned display child process.
type Display struct {
	RotateIntervalSeconds int  `toml:"rotate_interval_seconds"`
	HideCursor            bool `toml:"hide_cursor"`
}

// Paths contains directory configuration.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for picframe.
type Config struct {
	Frame      Frame      `toml:"frame"`
	Supervisor Supervisor `toml:"supervisor"`
	Display    Display    `toml:"display"`
	Paths      Paths      `toml:"paths"`
	Logging    Logging    `toml:"logging"`
}

// Source reports where a Config came from. Err is informational: when set,
// the returned Config is the built-in defaults.
type Source struct {
	Path  string
	Found bool
	Err   error
}

// Load locates and parses a configuration file. Failure to locate, parse, or
// validate the file is never fatal; the defaults are returned alongside a
// Source describing what went wrong so callers can log it.
func Load(path string) (*Config, Source) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	src := Source{Path: resolvedPath, Found: exists, Err: err}
	if err != nil {
		fallback := Default()
		_ = fallback.normalize()
		return &fallback, src
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			src.Err = err
			fallback := Default()
			_ = fallback.normalize()
			return &fallback, src
		}
	}

	if err := cfg.normalize(); err != nil {
		src.Err = err
	} else if err := cfg.Validate(); err != nil {
		src.Err = err
	}
	if src.Err != nil {
		fallback := Default()
		_ = fallback.normalize()
		return &fallback, src
	}

	return &cfg, src
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return expanded, false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	systemPath := "/etc/picframe/config.toml"
	userPath, err := expandPath("~/.config/picframe/config.toml")
	if err != nil {
		userPath = systemPath
	}

	if info, err := os.Stat(systemPath); err == nil && !info.IsDir() {
		return systemPath, true, nil
	}
	if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
		return userPath, true, nil
	}
	return userPath, false, nil
}

func (c *Config) normalize() error {
	c.Frame.DevicePath = strings.TrimSpace(c.Frame.DevicePath)
	c.Frame.MountPoint = strings.TrimSpace(c.Frame.MountPoint)
	if c.Frame.DevicePath == "" {
		c.Frame.DevicePath = defaultDevicePath
	}
	if c.Frame.MountPoint == "" {
		c.Frame.MountPoint = defaultMountPoint
	}

	logDir := strings.TrimSpace(c.Paths.LogDir)
	if logDir == "" {
		logDir = defaultLogDir
	}
	expanded, err := expandPath(logDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = expanded

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates directories required for daemon operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// PollInterval returns the supervisor poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Supervisor.PollIntervalSeconds) * time.Second
}

// GracePeriod returns the bounded wait between SIGTERM and SIGKILL when the
// supervisor replaces the display child.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Supervisor.GracePeriodSeconds) * time.Second
}

// RotateInterval returns how long the display child shows each image.
func (c *Config) RotateInterval() time.Duration {
	return time.Duration(c.Display.RotateIntervalSeconds) * time.Second
}

// LogPath returns the daemon log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "picframe.log")
}

// FallbackLogPath returns a local path used when the configured log file
// cannot be opened (for example on a read-only or root-owned log directory).
func (c *Config) FallbackLogPath() string {
	return filepath.Join(os.TempDir(), "picframe.log")
}

// SocketPath returns the IPC socket path.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "picframe.sock")
}

// PIDPath returns the daemon pid file path.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "picframe.pid")
}

// LockPath returns the daemon single-instance lock path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "picframe.lock")
}

// DisplayLockPath returns the display child's duplicate-instance lock path.
func (c *Config) DisplayLockPath() string {
	return filepath.Join(c.Paths.LogDir, "display.lock")
}

// JournalPath returns the transition journal database path.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.LogDir, "journal.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
