package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"picframe/internal/logging"
)

// ErrSpawn marks a failure to start the display child. Spawn failures are
// fatal to the daemon; everything else the lifecycle does is retryable.
var ErrSpawn = errors.New("spawn display child")

// childProcess is the slice of a running child the manager needs.
type childProcess interface {
	PID() int
	Signal(sig os.Signal) error
	// Done yields the child's exit error exactly once, then stays closed.
	Done() <-chan error
}

// SpawnFunc starts a display child with the given state flags appended to
// the base invocation.
type SpawnFunc func(extraArgs []string) (childProcess, error)

type execChild struct {
	cmd  *exec.Cmd
	done chan error
}

func (c *execChild) PID() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

func (c *execChild) Signal(sig os.Signal) error {
	if c.cmd.Process == nil {
		return os.ErrProcessDone
	}
	return c.cmd.Process.Signal(sig)
}

func (c *execChild) Done() <-chan error {
	return c.done
}

func execSpawner(binary string, baseArgs []string) SpawnFunc {
	return func(extraArgs []string) (childProcess, error) {
		args := append(append([]string{}, baseArgs...), extraArgs...)
		cmd := exec.Command(binary, args...) //nolint:gosec
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		child := &execChild{cmd: cmd, done: make(chan error, 1)}
		go func() {
			child.done <- cmd.Wait()
			close(child.done)
		}()
		return child, nil
	}
}

// Lifecycle keeps at most one display child alive and restarts it whenever
// the attachment state calls for a different invocation.
type Lifecycle struct {
	logger *slog.Logger
	grace  time.Duration
	spawn  SpawnFunc

	mu        sync.Mutex
	child     childProcess
	childArgs string
}

// NewLifecycle builds a Lifecycle that runs `binary baseArgs... <state flags>`.
func NewLifecycle(logger *slog.Logger, binary string, baseArgs []string, grace time.Duration) *Lifecycle {
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &Lifecycle{
		logger: logging.NewComponentLogger(logger, "lifecycle"),
		grace:  grace,
		spawn:  execSpawner(binary, baseArgs),
	}
}

// WithSpawner overrides how children are started. Used by tests.
func (l *Lifecycle) WithSpawner(spawn SpawnFunc) *Lifecycle {
	l.spawn = spawn
	return l
}

// FlagsFor maps an attachment state to the display child's invocation flags.
func FlagsFor(state State) []string {
	switch state {
	case MountedNeedsSetup:
		return []string{"--setup"}
	case MountedReady:
		return nil
	default:
		return []string{"--no-device"}
	}
}

// Ensure makes the running child match the given state, spawning or replacing
// as needed. A child that exited on its own is reaped and respawned. The
// returned error wraps ErrSpawn when a start attempt fails.
func (l *Lifecycle) Ensure(ctx context.Context, state State) error {
	flags := FlagsFor(state)
	signature := strings.Join(flags, " ")

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.child != nil {
		select {
		case err := <-l.child.Done():
			l.logger.Warn("display child exited unexpectedly",
				logging.Int(logging.FieldPID, l.child.PID()),
				logging.Error(err),
				logging.String(logging.FieldEventType, "child_exited"),
			)
			l.child = nil
		default:
		}
	}

	if l.child != nil {
		if l.childArgs == signature {
			return nil
		}
		l.terminateLocked(ctx)
	}

	child, err := l.spawn(flags)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}
	l.child = child
	l.childArgs = signature
	l.logger.Info("started display child",
		logging.Int(logging.FieldPID, child.PID()),
		logging.String("flags", signature),
		logging.String(logging.FieldState, state.String()),
		logging.String(logging.FieldEventType, "child_started"),
	)
	return nil
}

// Shutdown stops any running child and waits for it to exit.
func (l *Lifecycle) Shutdown(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.child != nil {
		l.terminateLocked(ctx)
	}
}

// ChildPID returns the running child's pid, or zero when none is running.
func (l *Lifecycle) ChildPID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.child == nil {
		return 0
	}
	return l.child.PID()
}

// terminateLocked sends SIGTERM, waits up to the grace period, then SIGKILLs.
// Signals racing a child that already exited are logged and ignored.
func (l *Lifecycle) terminateLocked(ctx context.Context) {
	child := l.child
	pid := child.PID()

	if err := child.Signal(unix.SIGTERM); err != nil {
		l.logger.Debug("SIGTERM to exited child ignored",
			logging.Int(logging.FieldPID, pid),
			logging.Error(err),
		)
	}

	timer := time.NewTimer(l.grace)
	defer timer.Stop()

	select {
	case <-child.Done():
		l.logger.Info("display child stopped",
			logging.Int(logging.FieldPID, pid),
			logging.String(logging.FieldEventType, "child_stopped"),
		)
	case <-timer.C:
		l.logger.Warn("display child ignored SIGTERM, killing",
			logging.Int(logging.FieldPID, pid),
			logging.Duration("grace", l.grace),
			logging.String(logging.FieldEventType, "child_killed"),
		)
		if err := child.Signal(unix.SIGKILL); err != nil {
			l.logger.Debug("SIGKILL to exited child ignored",
				logging.Int(logging.FieldPID, pid),
				logging.Error(err),
			)
		}
		<-child.Done()
	case <-ctx.Done():
		if err := child.Signal(unix.SIGKILL); err == nil {
			<-child.Done()
		}
	}

	l.child = nil
	l.childArgs = ""
}
