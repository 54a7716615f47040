package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, src := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if src.Err != nil {
		t.Fatalf("missing config must not be an error, got %v", src.Err)
	}
	if src.Found {
		t.Fatal("expected Found=false for missing file")
	}
	if cfg.Frame.DevicePath != "/dev/sda1" {
		t.Errorf("unexpected default device path %q", cfg.Frame.DevicePath)
	}
	if cfg.Frame.MountPoint != "/mnt" {
		t.Errorf("unexpected default mount point %q", cfg.Frame.MountPoint)
	}
	if cfg.Supervisor.SetupMissingThreshold != 4 {
		t.Errorf("unexpected setup threshold %d", cfg.Supervisor.SetupMissingThreshold)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[frame]
device_path = "/dev/sdb1"
mount_point = "/media/frame"

[supervisor]
poll_interval_seconds = 10

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, src := Load(path)
	if src.Err != nil {
		t.Fatalf("Load: %v", src.Err)
	}
	if !src.Found {
		t.Fatal("expected Found=true")
	}
	if cfg.Frame.DevicePath != "/dev/sdb1" {
		t.Errorf("device path not applied: %q", cfg.Frame.DevicePath)
	}
	if cfg.Frame.MountPoint != "/media/frame" {
		t.Errorf("mount point not applied: %q", cfg.Frame.MountPoint)
	}
	if cfg.Supervisor.PollIntervalSeconds != 10 {
		t.Errorf("poll interval not applied: %d", cfg.Supervisor.PollIntervalSeconds)
	}
	if cfg.Supervisor.GracePeriodSeconds != 5 {
		t.Errorf("grace period default lost: %d", cfg.Supervisor.GracePeriodSeconds)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging overrides not applied: %+v", cfg.Logging)
	}
}

func TestLoadMalformedFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("frame = {{{"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, src := Load(path)
	if src.Err == nil {
		t.Fatal("expected parse error to be reported in Source")
	}
	if cfg.Frame.DevicePath != "/dev/sda1" {
		t.Errorf("expected defaults after malformed file, got device %q", cfg.Frame.DevicePath)
	}
}

func TestLoadInvalidValuesFallBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[supervisor]
poll_interval_seconds = -1
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, src := Load(path)
	if src.Err == nil {
		t.Fatal("expected validation error to be reported in Source")
	}
	if cfg.Supervisor.PollIntervalSeconds != 3 {
		t.Errorf("expected default poll interval, got %d", cfg.Supervisor.PollIntervalSeconds)
	}
}

func TestValidateRejectsRelativeDevicePath(t *testing.T) {
	cfg := Default()
	cfg.Frame.DevicePath = "sda1"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for relative device path")
	}
}

func TestDerivedPathsLiveUnderLogDir(t *testing.T) {
	cfg := Default()
	cfg.Paths.LogDir = "/var/log/picframe"
	for name, got := range map[string]string{
		"socket":  cfg.SocketPath(),
		"pid":     cfg.PIDPath(),
		"lock":    cfg.LockPath(),
		"journal": cfg.JournalPath(),
	} {
		if filepath.Dir(got) != "/var/log/picframe" {
			t.Errorf("%s path %q not under log dir", name, got)
		}
	}
}
