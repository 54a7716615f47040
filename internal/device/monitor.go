package device

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Attachment is a fresh observation of the target device.
type Attachment struct {
	Attached   bool
	MountPoint string
}

// EnumerationError indicates the block-device listing could not be obtained
// or understood. Callers treat it like an absent device but log it apart from
// an ordinary unplug.
type EnumerationError struct {
	Op  string
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate block devices: %s: %v", e.Op, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Monitor queries the OS block-device enumeration for one target device.
type Monitor struct {
	devicePath string
	runner     CommandRunner
	timeout    time.Duration
}

// NewMonitor builds a Monitor for the given device path.
func NewMonitor(devicePath string) *Monitor {
	return &Monitor{
		devicePath: strings.TrimSpace(devicePath),
		runner:     ExecRunner{},
		timeout:    10 * time.Second,
	}
}

// WithRunner replaces the command runner. Used by tests.
func (m *Monitor) WithRunner(runner CommandRunner) *Monitor {
	m.runner = runner
	return m
}

// QueryAttachment runs lsblk and searches the listing for the target device.
// A well-formed listing without the device is a normal "not attached" result;
// a listing that cannot be produced or parsed is an *EnumerationError.
func (m *Monitor) QueryAttachment(ctx context.Context) (Attachment, error) {
	if m.devicePath == "" {
		return Attachment{}, &EnumerationError{Op: "query", Err: fmt.Errorf("no device configured")}
	}

	queryCtx := ctx
	var cancel context.CancelFunc
	if m.timeout > 0 {
		queryCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	output, err := m.runner.Output(queryCtx, "lsblk", "-P", "-o", "PATH,MOUNTPOINT")
	if err != nil {
		return Attachment{}, &EnumerationError{Op: "lsblk", Err: err}
	}

	records, err := parseListing(string(output))
	if err != nil {
		return Attachment{}, &EnumerationError{Op: "parse lsblk output", Err: err}
	}

	for _, rec := range records {
		if rec.path == m.devicePath {
			return Attachment{Attached: true, MountPoint: rec.mountPoint}, nil
		}
	}
	return Attachment{}, nil
}

type record struct {
	path       string
	mountPoint string
}

func parseListing(output string) ([]record, error) {
	var records []record
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		data := parseKeyValueLine(line)
		path, ok := data["PATH"]
		if !ok {
			return nil, fmt.Errorf("line %q has no PATH field", line)
		}
		records = append(records, record{path: path, mountPoint: data["MOUNTPOINT"]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// parseKeyValueLine splits lsblk -P output lines of the form KEY="value".
func parseKeyValueLine(line string) map[string]string {
	result := make(map[string]string)
	fields := strings.Fields(line)
	for _, field := range fields {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"")
		result[key] = value
	}
	return result
}
