package mountctl

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Outcome describes how a successful mount call concluded.
type Outcome int

const (
	// Mounted means this call performed the mount.
	Mounted Outcome = iota
	// AlreadyMounted means the device was usable before this call; the mount
	// command reported "already mounted", which is success for our purposes.
	AlreadyMounted
)

func (o Outcome) String() string {
	if o == AlreadyMounted {
		return "already-mounted"
	}
	return "mounted"
}

// ErrDeviceVanished indicates the device was enumerated a moment ago but was
// gone by the time mount ran, typically a race with physical removal.
var ErrDeviceVanished = errors.New("device vanished before mount")

// ErrMountFailed indicates a retryable mount failure.
var ErrMountFailed = errors.New("mount failed")

// Runner abstracts command execution with combined output capture.
type Runner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

func (ExecRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Controller issues mount and unmount commands with elevated privilege.
type Controller struct {
	runner  Runner
	timeout time.Duration
}

// NewController builds a Controller using the real command runner.
func NewController() *Controller {
	return &Controller{runner: ExecRunner{}, timeout: 30 * time.Second}
}

// WithRunner replaces the command runner. Used by tests.
func (c *Controller) WithRunner(runner Runner) *Controller {
	c.runner = runner
	return c
}

// Mount mounts device at mountPoint. The returned Outcome distinguishes a
// fresh mount from an already-mounted device; both are success.
func (c *Controller) Mount(ctx context.Context, device, mountPoint string) (Outcome, error) {
	output, err := c.run(ctx, "sudo", "mount", device, mountPoint)
	diag := strings.ToLower(output)

	switch {
	case strings.Contains(diag, "already mounted"):
		return AlreadyMounted, nil
	case strings.Contains(diag, "does not exist"):
		return 0, fmt.Errorf("%w: %s", ErrDeviceVanished, firstLine(output))
	case err != nil:
		if out := firstLine(output); out != "" {
			return 0, fmt.Errorf("%w: %s", ErrMountFailed, out)
		}
		return 0, fmt.Errorf("%w: %v", ErrMountFailed, err)
	default:
		return Mounted, nil
	}
}

// Unmount unmounts mountPoint. Callers treat failures as best-effort; an
// already-unmounted path is not an error.
func (c *Controller) Unmount(ctx context.Context, mountPoint string) error {
	output, err := c.run(ctx, "sudo", "umount", mountPoint)
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(output), "not mounted") {
		return nil
	}
	if out := firstLine(output); out != "" {
		return fmt.Errorf("unmount %s: %s", mountPoint, out)
	}
	return fmt.Errorf("unmount %s: %w", mountPoint, err)
}

func (c *Controller) run(ctx context.Context, name string, args ...string) (string, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	output, err := c.runner.CombinedOutput(runCtx, name, args...)
	return string(output), err
}

func firstLine(output string) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return ""
	}
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
