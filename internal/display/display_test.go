package display

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"picframe/internal/content"
	"picframe/internal/logging"
)

func populatedDrive(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := content.EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "xxxxx", "pic.jpg"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write picture: %v", err)
	}
	return root
}

func TestDuplicateInstanceExitsImmediately(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "display.lock")
	holder := flock.New(lockPath)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = holder.Unlock() }()

	runner := New(Options{
		Logger:   logging.NewNop(),
		Mode:     ModeNoDevice,
		LockPath: lockPath,
	})

	err = runner.Run(context.Background())
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestSetupModeWritesLayoutAndIdles(t *testing.T) {
	root := t.TempDir()
	runner := New(Options{
		Logger:     logging.NewNop(),
		Mode:       ModeSetup,
		MountPoint: root,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		if _, err := os.Stat(filepath.Join(root, content.SettingsFileName)); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("setup never wrote the drive layout")
		case <-time.After(10 * time.Millisecond):
		}
	}

	for _, bucket := range content.Buckets {
		if _, err := os.Stat(filepath.Join(root, bucket)); err != nil {
			t.Errorf("bucket %s not created: %v", bucket, err)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestShowModeStopsOnCancel(t *testing.T) {
	root := populatedDrive(t)
	runner := New(Options{
		Logger:         logging.NewNop(),
		Mode:           ModeShow,
		MountPoint:     root,
		RotateInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("show mode did not stop after cancel")
	}
}

func TestNextPictureWalksIndexAndWraps(t *testing.T) {
	root := t.TempDir()
	if err := content.EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	mustWrite := func(bucket, name string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(root, bucket, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	mustWrite("x", "low.jpg")
	mustWrite("xxxxx", "high.jpg")

	runner := New(Options{Logger: logging.NewNop(), Mode: ModeShow, MountPoint: root})

	var names []string
	for i := 0; i < 3; i++ {
		pick := runner.nextPicture()
		if pick == "" {
			t.Fatal("expected a picture")
		}
		names = append(names, filepath.Base(pick))
	}
	want := []string{"low.jpg", "high.jpg", "low.jpg"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected bucket-order walk with wrap %v, got %v", want, names)
		}
	}
}

func TestNextPictureEmptyDrive(t *testing.T) {
	root := t.TempDir()
	runner := New(Options{Logger: logging.NewNop(), Mode: ModeShow, MountPoint: root})
	if pick := runner.nextPicture(); pick != "" {
		t.Errorf("expected empty pick, got %q", pick)
	}
}

func TestNextPictureToleratesVanishedMount(t *testing.T) {
	root := populatedDrive(t)
	runner := New(Options{Logger: logging.NewNop(), Mode: ModeShow, MountPoint: root})

	if pick := runner.nextPicture(); pick == "" {
		t.Fatal("expected a picture before removal")
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("remove drive: %v", err)
	}
	if pick := runner.nextPicture(); pick != "" {
		t.Errorf("expected empty pick after mount vanished, got %q", pick)
	}
}

func TestDriveRotateIntervalOverride(t *testing.T) {
	root := populatedDrive(t)
	settings := content.LoadDriveSettings(root)
	if settings.RotateIntervalSeconds != 30 {
		t.Fatalf("expected default drive settings, got %+v", settings)
	}
}
