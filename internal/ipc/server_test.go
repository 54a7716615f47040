package ipc

import (
	"context"
	"path/filepath"
	"testing"

	"picframe/internal/config"
	"picframe/internal/daemon"
	"picframe/internal/logging"
)

func startServer(t *testing.T) (string, *daemon.Daemon) {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	d, err := daemon.New(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Close)

	socketPath := filepath.Join(cfg.Paths.LogDir, "picframe.sock")
	server, err := NewServer(context.Background(), socketPath, d, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(server.Close)
	server.Serve()

	return socketPath, d
}

func TestStatusRoundTrip(t *testing.T) {
	socketPath, _ := startServer(t)

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Error("daemon was never started, must not report running")
	}
	if status.State != "absent" {
		t.Errorf("expected absent, got %q", status.State)
	}
	if status.DevicePath == "" || status.MountPoint == "" {
		t.Errorf("expected device and mount point in status, got %+v", status)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	socketPath, _ := startServer(t)

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.History(5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(resp.Transitions) != 0 {
		t.Errorf("expected empty history, got %d rows", len(resp.Transitions))
	}
}

func TestStopRequestInvokesCallback(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	d, err := daemon.New(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Close)

	stopped := make(chan struct{})
	socketPath := filepath.Join(cfg.Paths.LogDir, "picframe.sock")
	server, err := NewServer(context.Background(), socketPath, d, func() { close(stopped) }, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(server.Close)
	server.Serve()

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !resp.Stopped {
		t.Error("expected stop acknowledgement")
	}
	select {
	case <-stopped:
	default:
		t.Error("stop callback was not invoked")
	}
}
