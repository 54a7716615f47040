package mountctl

import (
	"context"
	"errors"
	"testing"
)

type stubRunner struct {
	output string
	err    error

	gotName string
	gotArgs []string
}

func (s *stubRunner) CombinedOutput(_ context.Context, name string, args ...string) ([]byte, error) {
	s.gotName = name
	s.gotArgs = args
	return []byte(s.output), s.err
}

func TestMountSuccess(t *testing.T) {
	runner := &stubRunner{}
	ctl := NewController().WithRunner(runner)

	outcome, err := ctl.Mount(context.Background(), "/dev/sda1", "/mnt")
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if outcome != Mounted {
		t.Errorf("expected Mounted, got %v", outcome)
	}
	if runner.gotName != "sudo" {
		t.Errorf("expected sudo invocation, got %q", runner.gotName)
	}
	want := []string{"mount", "/dev/sda1", "/mnt"}
	for i, arg := range want {
		if runner.gotArgs[i] != arg {
			t.Errorf("arg %d: expected %q, got %q", i, arg, runner.gotArgs[i])
		}
	}
}

func TestMountAlreadyMountedIsSuccess(t *testing.T) {
	runner := &stubRunner{
		output: "mount: /mnt: /dev/sda1 already mounted on /mnt.\n",
		err:    errors.New("exit status 32"),
	}
	ctl := NewController().WithRunner(runner)

	outcome, err := ctl.Mount(context.Background(), "/dev/sda1", "/mnt")
	if err != nil {
		t.Fatalf("already mounted must be success, got %v", err)
	}
	if outcome != AlreadyMounted {
		t.Errorf("expected AlreadyMounted, got %v", outcome)
	}
}

func TestMountDeviceVanished(t *testing.T) {
	runner := &stubRunner{
		output: "mount: /mnt: special device /dev/sda1 does not exist.\n",
		err:    errors.New("exit status 32"),
	}
	ctl := NewController().WithRunner(runner)

	_, err := ctl.Mount(context.Background(), "/dev/sda1", "/mnt")
	if !errors.Is(err, ErrDeviceVanished) {
		t.Fatalf("expected ErrDeviceVanished, got %v", err)
	}
	if errors.Is(err, ErrMountFailed) {
		t.Fatal("DeviceVanished must not also classify as MountFailed")
	}
}

func TestMountOtherFailure(t *testing.T) {
	runner := &stubRunner{
		output: "mount: /mnt: wrong fs type, bad option, bad superblock on /dev/sda1.\n",
		err:    errors.New("exit status 32"),
	}
	ctl := NewController().WithRunner(runner)

	_, err := ctl.Mount(context.Background(), "/dev/sda1", "/mnt")
	if !errors.Is(err, ErrMountFailed) {
		t.Fatalf("expected ErrMountFailed, got %v", err)
	}
}

func TestUnmountNotMountedIsSuccess(t *testing.T) {
	runner := &stubRunner{
		output: "umount: /mnt: not mounted.\n",
		err:    errors.New("exit status 32"),
	}
	ctl := NewController().WithRunner(runner)

	if err := ctl.Unmount(context.Background(), "/mnt"); err != nil {
		t.Fatalf("not mounted must be success, got %v", err)
	}
}

func TestUnmountFailureReported(t *testing.T) {
	runner := &stubRunner{
		output: "umount: /mnt: target is busy.\n",
		err:    errors.New("exit status 32"),
	}
	ctl := NewController().WithRunner(runner)

	if err := ctl.Unmount(context.Background(), "/mnt"); err == nil {
		t.Fatal("expected unmount error")
	}
}
