package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"picframe/internal/config"
	"picframe/internal/content"
	"picframe/internal/device"
	"picframe/internal/journal"
	"picframe/internal/logging"
	"picframe/internal/mountctl"
	"picframe/internal/supervisor"
)

// ErrAlreadyRunning means another picframe daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("picframe daemon already running")

// Status is a point-in-time daemon summary for IPC and the CLI.
type Status struct {
	Running     bool
	PID         int
	SessionID   string
	State       string
	ChildPID    int
	DevicePath  string
	MountPoint  string
	LastChange  time.Time
	LockPath    string
	JournalPath string
}

// Daemon owns the supervisor and its supporting machinery.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	sessionID string

	lock    *flock.Flock
	store   *journal.Store
	watcher *device.Watcher
	sup     *supervisor.Supervisor

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan error
}

// New builds a Daemon and claims the single-instance lock. ErrAlreadyRunning
// is returned when another daemon already holds it.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	sessionID := uuid.NewString()
	binary, err := os.Executable()
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("locate executable: %w", err)
	}

	watcher := device.NewWatcher(logger, cfg.Frame.DevicePath)
	lifecycle := supervisor.NewLifecycle(logger, binary, []string{"run", "--no-fork"}, cfg.GracePeriod())

	sup, err := supervisor.New(supervisor.Options{
		Logger:       logger,
		SessionID:    sessionID,
		DevicePath:   cfg.Frame.DevicePath,
		MountPoint:   cfg.Frame.MountPoint,
		PollInterval: cfg.PollInterval(),
		Querier:      device.NewMonitor(cfg.Frame.DevicePath),
		Mounter:      mountctl.NewController(),
		Prober:       content.NewProber(cfg.Supervisor.SetupMissingThreshold),
		Lifecycle:    lifecycle,
		Journal:      store,
		Nudges:       watcher.Nudges(),
	})
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		sessionID: sessionID,
		lock:      lock,
		store:     store,
		watcher:   watcher,
		sup:       sup,
	}, nil
}

// Start launches the supervisor loop. It is an error to start twice.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan error, 1)
	d.running = true

	d.watcher.Start(runCtx)

	go func() {
		err := d.sup.Run(runCtx)
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		d.done <- err
		close(d.done)
	}()
	return nil
}

// Done yields the supervisor's terminal error once the loop exits. A non-nil
// value means the daemon died on its own, for example on a child spawn
// failure.
func (d *Daemon) Done() <-chan error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Stop cancels the supervisor loop and waits for it to wind down.
func (d *Daemon) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	d.watcher.Stop()
}

// Status reports the daemon's current view for IPC clients.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()

	snap := d.sup.Status()
	return Status{
		Running:     running,
		PID:         os.Getpid(),
		SessionID:   snap.SessionID,
		State:       snap.State.String(),
		ChildPID:    snap.ChildPID,
		DevicePath:  snap.DevicePath,
		MountPoint:  snap.MountPoint,
		LastChange:  snap.LastChange,
		LockPath:    d.cfg.LockPath(),
		JournalPath: d.store.Path(),
	}
}

// RecentTransitions returns the newest journal rows for the history command.
func (d *Daemon) RecentTransitions(ctx context.Context, limit int) ([]journal.Transition, error) {
	return d.store.Recent(ctx, limit)
}

// Close stops the loop if needed and releases the lock and journal.
func (d *Daemon) Close() {
	d.Stop()
	if err := d.store.Close(); err != nil {
		d.logger.Warn("journal close failed", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("lock release failed", logging.Error(err))
	}
}
