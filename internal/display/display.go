package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofrs/flock"

	"picframe/internal/content"
	"picframe/internal/logging"
)

// Mode selects what the child shows.
type Mode int

const (
	// ModeShow rotates through the pictures on the mounted drive.
	ModeShow Mode = iota
	// ModeSetup writes the expected layout onto the drive, then idles.
	ModeSetup
	// ModeNoDevice idles on the insert-a-drive view.
	ModeNoDevice
)

func (m Mode) String() string {
	switch m {
	case ModeSetup:
		return "setup"
	case ModeNoDevice:
		return "no-device"
	default:
		return "show"
	}
}

// ErrAlreadyRunning means another display child holds the instance lock.
var ErrAlreadyRunning = errors.New("display child already running")

// Options configures a display child.
type Options struct {
	Logger         *slog.Logger
	Mode           Mode
	MountPoint     string
	RotateInterval time.Duration
	LockPath       string
	// HideCursor controls console cursor hiding. Disabled under --testing so
	// a development terminal is not left without a cursor.
	HideCursor bool
}

// Runner is the display child's main loop.
type Runner struct {
	logger         *slog.Logger
	mode           Mode
	mountPoint     string
	rotateInterval time.Duration
	lockPath       string
	hideCursor     bool
	cursor         int
}

// New builds a display Runner.
func New(opts Options) *Runner {
	interval := opts.RotateInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Runner{
		logger:         logging.NewComponentLogger(opts.Logger, "display"),
		mode:           opts.Mode,
		mountPoint:     opts.MountPoint,
		rotateInterval: interval,
		lockPath:       opts.LockPath,
		hideCursor:     opts.HideCursor,
	}
}

// Run executes the child until ctx is cancelled. It returns ErrAlreadyRunning
// when another instance holds the lock; the duplicate must exit immediately
// without touching the screen.
func (r *Runner) Run(ctx context.Context) error {
	if r.lockPath != "" {
		lock := flock.New(r.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire display lock: %w", err)
		}
		if !locked {
			return ErrAlreadyRunning
		}
		defer func() { _ = lock.Unlock() }()
	}

	if r.hideCursor {
		restore := hideConsoleCursor()
		defer restore()
	}

	r.logger.Info("display child started",
		logging.String("mode", r.mode.String()),
		logging.Int(logging.FieldPID, os.Getpid()),
		logging.String(logging.FieldEventType, "display_started"),
	)
	defer r.logger.Info("display child stopped",
		logging.String(logging.FieldEventType, "display_stopped"),
	)

	switch r.mode {
	case ModeSetup:
		return r.runSetup(ctx)
	case ModeNoDevice:
		return r.runNoDevice(ctx)
	default:
		return r.runShow(ctx)
	}
}

// runSetup writes the layout once and then idles. The supervisor notices the
// now-complete drive on its next poll and replaces this child.
func (r *Runner) runSetup(ctx context.Context) error {
	if err := content.EnsureLayout(r.mountPoint); err != nil {
		r.logger.Error("drive setup failed",
			logging.Error(err),
			logging.String(logging.FieldMount, r.mountPoint),
			logging.String(logging.FieldEventType, "setup_failed"),
			logging.String(logging.FieldErrorHint, "drive may be read-only or full"),
		)
	} else {
		r.logger.Info("drive setup complete",
			logging.String(logging.FieldMount, r.mountPoint),
			logging.String(logging.FieldEventType, "setup_complete"),
		)
	}
	r.render("preparing picture drive")
	<-ctx.Done()
	return nil
}

func (r *Runner) runNoDevice(ctx context.Context) error {
	r.render("insert a picture drive")
	<-ctx.Done()
	return nil
}

// runShow rotates through the drive's pictures until cancelled. The picture
// list is rebuilt every rotation so edits on the drive show up without a
// restart, and a vanished mount degrades to an empty list instead of an
// error.
func (r *Runner) runShow(ctx context.Context) error {
	interval := r.rotateInterval
	if settings := content.LoadDriveSettings(r.mountPoint); settings.RotateIntervalSeconds > 0 {
		interval = time.Duration(settings.RotateIntervalSeconds) * time.Second
		r.logger.Info("using drive rotate interval",
			logging.Duration("rotate_interval", interval),
		)
	}

	r.showNext()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.showNext()
		}
	}
}

func (r *Runner) showNext() {
	picture := r.nextPicture()
	if picture == "" {
		r.logger.Warn("no pictures available",
			logging.String(logging.FieldMount, r.mountPoint),
			logging.String(logging.FieldEventType, "rotation_empty"),
		)
		r.render("no pictures on drive")
		return
	}
	r.logger.Info("showing picture",
		logging.String("picture", picture),
		logging.String(logging.FieldEventType, "picture_shown"),
	)
	r.render(picture)
}

// nextPicture walks the drive index in bucket order, wrapping at the end.
// The list is rebuilt on every call so drive edits and a vanished mount are
// absorbed without restarting the child.
func (r *Runner) nextPicture() string {
	pictures := content.ListPictures(r.mountPoint)
	if len(pictures) == 0 {
		r.cursor = 0
		return ""
	}
	if r.cursor >= len(pictures) {
		r.cursor = 0
	}
	picture := pictures[r.cursor]
	r.cursor++
	return picture
}

// render draws the current view. Rendering goes to stdout, which on the
// appliance is the framebuffer console.
func (r *Runner) render(view string) {
	fmt.Fprintf(os.Stdout, "\r\033[2K%s\n", view)
}

// hideConsoleCursor hides the console cursor and returns a restore func.
// Failures are silently ignored; a visible cursor is cosmetic.
func hideConsoleCursor() func() {
	fmt.Fprint(os.Stdout, "\033[?25l")
	return func() {
		fmt.Fprint(os.Stdout, "\033[?25h")
	}
}
