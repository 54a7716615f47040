package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"picframe/internal/content"
	"picframe/internal/device"
	"picframe/internal/logging"
	"picframe/internal/mountctl"
)

type attachmentQuerier interface {
	QueryAttachment(ctx context.Context) (device.Attachment, error)
}

type mounter interface {
	Mount(ctx context.Context, devicePath, mountPoint string) (mountctl.Outcome, error)
	Unmount(ctx context.Context, mountPoint string) error
}

type contentProber interface {
	Probe(mountedPath string) content.Report
}

type childEnsurer interface {
	Ensure(ctx context.Context, state State) error
	Shutdown(ctx context.Context)
	ChildPID() int
}

type transitionRecorder interface {
	RecordTransition(ctx context.Context, sessionID, fromState, toState, detail string) error
}

// Snapshot is a point-in-time view of the supervisor for status reporting.
type Snapshot struct {
	SessionID  string
	State      State
	ChildPID   int
	DevicePath string
	MountPoint string
	LastChange time.Time
}

// Options collects the supervisor's collaborators.
type Options struct {
	Logger       *slog.Logger
	SessionID    string
	DevicePath   string
	MountPoint   string
	PollInterval time.Duration

	Querier   attachmentQuerier
	Mounter   mounter
	Prober    contentProber
	Lifecycle childEnsurer
	Journal   transitionRecorder

	// Nudges lets a udev watcher trigger an immediate cycle between ticks.
	// Nil disables nudging; polling alone is sufficient.
	Nudges <-chan struct{}
}

// Supervisor drives the poll loop.
type Supervisor struct {
	logger       *slog.Logger
	sessionID    string
	devicePath   string
	mountPoint   string
	pollInterval time.Duration

	querier   attachmentQuerier
	mounter   mounter
	prober    contentProber
	lifecycle childEnsurer
	journal   transitionRecorder
	nudges    <-chan struct{}

	mu         sync.Mutex
	state      State
	lastChange time.Time
}

// New builds a Supervisor. The initial state is Absent; the first cycle
// replaces it with a fresh classification before any child is spawned.
func New(opts Options) (*Supervisor, error) {
	if opts.Querier == nil || opts.Mounter == nil || opts.Prober == nil || opts.Lifecycle == nil {
		return nil, errors.New("supervisor: missing collaborator")
	}
	if opts.DevicePath == "" || opts.MountPoint == "" {
		return nil, errors.New("supervisor: device path and mount point required")
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Supervisor{
		logger:       logging.NewComponentLogger(opts.Logger, "supervisor"),
		sessionID:    opts.SessionID,
		devicePath:   opts.DevicePath,
		mountPoint:   opts.MountPoint,
		pollInterval: interval,
		querier:      opts.Querier,
		mounter:      opts.Mounter,
		prober:       opts.Prober,
		lifecycle:    opts.Lifecycle,
		journal:      opts.Journal,
		nudges:       opts.Nudges,
		state:        Absent,
		lastChange:   time.Now(),
	}, nil
}

// Run executes poll cycles until ctx is cancelled or a fatal error occurs.
// The fixed interval never backs off: on an idle frame the steady Absent
// polls are the cheapest thing the appliance does. The display child is shut
// down before Run returns.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.lifecycle.Shutdown(context.Background())

	s.logger.Info("supervisor started",
		logging.String(logging.FieldSessionID, s.sessionID),
		logging.String(logging.FieldDevice, s.devicePath),
		logging.String(logging.FieldMount, s.mountPoint),
		logging.Duration("poll_interval", s.pollInterval),
		logging.String(logging.FieldEventType, "supervisor_started"),
	)

	if err := s.cycle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("supervisor stopping",
				logging.String(logging.FieldEventType, "supervisor_stopped"),
			)
			return nil
		case <-ticker.C:
			if err := s.cycle(ctx); err != nil {
				return err
			}
		case <-s.nudges:
			if err := s.cycle(ctx); err != nil {
				return err
			}
		}
	}
}

// cycle performs one classify-transition-ensure pass. Only a child spawn
// failure is returned; every other problem is logged and retried next cycle.
func (s *Supervisor) cycle(ctx context.Context) error {
	next, detail := s.classify(ctx)

	s.mu.Lock()
	prev := s.state
	if next != prev {
		s.state = next
		s.lastChange = time.Now()
	}
	s.mu.Unlock()

	if next != prev {
		s.handleTransition(ctx, prev, next, detail)
	}

	if err := s.lifecycle.Ensure(ctx, next); err != nil {
		s.logger.Error("cannot start display child",
			logging.Error(err),
			logging.String(logging.FieldState, next.String()),
			logging.String(logging.FieldEventType, "child_spawn_failed"),
			logging.String(logging.FieldErrorHint, "check that the picframe binary is executable"),
		)
		return err
	}
	return nil
}

// classify produces the device's current state from a fresh probe chain:
// enumerate, mount if needed, then inspect content. The cached state is
// never consulted.
func (s *Supervisor) classify(ctx context.Context) (State, string) {
	attachment, err := s.querier.QueryAttachment(ctx)
	if err != nil {
		var enumErr *device.EnumerationError
		if errors.As(err, &enumErr) {
			s.logger.Warn("device enumeration failed, treating as absent",
				logging.Error(err),
				logging.String(logging.FieldEventType, "enumeration_failed"),
				logging.String(logging.FieldErrorHint, "check that lsblk is installed and on PATH"),
			)
		} else {
			s.logger.Warn("device query failed, treating as absent",
				logging.Error(err),
				logging.String(logging.FieldEventType, "device_query_failed"),
			)
		}
		return Absent, "enumeration failed"
	}

	if !attachment.Attached {
		return Absent, ""
	}

	// Only the configured mount point counts as mounted. A device sitting at
	// some other path (an automounter beat us to it) is remounted at the fixed
	// point so the display child finds the pictures where it expects them.
	mountedAt := attachment.MountPoint
	if mountedAt != "" && mountedAt != s.mountPoint {
		s.logger.Warn("device mounted outside the configured mount point",
			logging.String(logging.FieldDevice, s.devicePath),
			logging.String(logging.FieldMount, mountedAt),
			logging.String("expected_mount", s.mountPoint),
			logging.String(logging.FieldEventType, "foreign_mount"),
		)
		mountedAt = ""
	}
	if mountedAt == "" {
		outcome, mountErr := s.mounter.Mount(ctx, s.devicePath, s.mountPoint)
		if mountErr != nil {
			switch {
			case errors.Is(mountErr, mountctl.ErrDeviceVanished):
				s.logger.Warn("device vanished during mount",
					logging.String(logging.FieldDevice, s.devicePath),
					logging.String(logging.FieldEventType, "device_vanished"),
				)
				return AttachedUnmounted, "device vanished during mount"
			default:
				s.logger.Warn("mount failed, will retry",
					logging.Error(mountErr),
					logging.String(logging.FieldDevice, s.devicePath),
					logging.String(logging.FieldMount, s.mountPoint),
					logging.String(logging.FieldEventType, "mount_failed"),
					logging.String(logging.FieldErrorHint, "check sudoers rules for mount and the filesystem on the drive"),
				)
				return AttachedUnmounted, "mount failed"
			}
		}
		s.logger.Info("mounted picture drive",
			logging.String(logging.FieldDevice, s.devicePath),
			logging.String(logging.FieldMount, s.mountPoint),
			logging.String("outcome", outcome.String()),
			logging.String(logging.FieldEventType, "mounted"),
		)
		mountedAt = s.mountPoint
	}

	report := s.prober.Probe(mountedAt)
	switch report.Class {
	case content.NeedsSetup:
		return MountedNeedsSetup, fmt.Sprintf("missing buckets: %d, settings present: %t",
			len(report.MissingBuckets), report.SettingsPresent)
	case content.Empty:
		return MountedEmpty, "no pictures"
	default:
		return MountedReady, fmt.Sprintf("%d pictures", report.Index.Total)
	}
}

func (s *Supervisor) handleTransition(ctx context.Context, prev, next State, detail string) {
	s.logger.Info("attachment state changed",
		logging.String(logging.FieldPrevState, prev.String()),
		logging.String(logging.FieldState, next.String()),
		logging.String("detail", detail),
		logging.String(logging.FieldEventType, "state_changed"),
	)

	// A drive yanked while mounted leaves a stale mount point behind.
	if prev.Mounted() && next == Absent {
		if err := s.mounter.Unmount(ctx, s.mountPoint); err != nil {
			s.logger.Warn("stale mount cleanup failed",
				logging.Error(err),
				logging.String(logging.FieldMount, s.mountPoint),
				logging.String(logging.FieldEventType, "unmount_failed"),
			)
		}
	}

	if s.journal != nil {
		if err := s.journal.RecordTransition(ctx, s.sessionID, prev.String(), next.String(), detail); err != nil {
			s.logger.Warn("transition journal write failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "journal_write_failed"),
			)
		}
	}
}

// Status returns the current supervisor snapshot.
func (s *Supervisor) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:  s.sessionID,
		State:      s.state,
		ChildPID:   s.lifecycle.ChildPID(),
		DevicePath: s.devicePath,
		MountPoint: s.mountPoint,
		LastChange: s.lastChange,
	}
}
