package device

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"picframe/internal/logging"
)

// Watcher listens for udev netlink events on the block subsystem and nudges
// the supervisor so attach/detach is noticed without waiting out a full poll
// interval. It is strictly an accelerator: the supervisor still re-queries
// truth on its own schedule when netlink is unavailable.
type Watcher struct {
	logger     *slog.Logger
	devicePath string
	nudges     chan struct{}

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewWatcher creates a Watcher for the given device path.
func NewWatcher(logger *slog.Logger, devicePath string) *Watcher {
	return &Watcher{
		logger:     logging.NewComponentLogger(logger, "netlink-watcher"),
		devicePath: strings.TrimSpace(devicePath),
		nudges:     make(chan struct{}, 1),
	}
}

// Nudges returns the channel signaled when a relevant uevent arrives.
func (w *Watcher) Nudges() <-chan struct{} {
	return w.nudges
}

// Start begins listening for udev netlink events. A connection failure is not
// fatal; the supervisor falls back to interval polling alone.
func (w *Watcher) Start(ctx context.Context) {
	if w == nil || w.devicePath == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("netlink socket unavailable; relying on interval polling",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
		)
		return
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.watchLoop(ctx, quit)

	w.logger.Info("netlink watcher started",
		logging.String(logging.FieldEventType, "netlink_watcher_started"),
		logging.String(logging.FieldDevice, w.devicePath),
	)
}

// Stop shuts down the watcher.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, w.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(uevent)
		case err := <-errs:
			w.logger.Warn("netlink watcher error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_watcher_error"),
			)
		}
	}
}

// buildMatcher matches add/remove/change events on the block subsystem.
func (w *Watcher) buildMatcher() netlink.Matcher {
	action := "add|remove|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
		},
	})
	return rules
}

func (w *Watcher) handleEvent(uevent netlink.UEvent) {
	devname := uevent.Env["DEVNAME"]
	if devname == "" {
		return
	}
	// The configured path is usually a partition of the device the kernel
	// reports, so prefix matching covers both /dev/sda and /dev/sda1 events.
	if !strings.HasPrefix(w.devicePath, devname) && devname != w.devicePath {
		return
	}

	w.logger.Debug("block device event",
		logging.String(logging.FieldDevice, devname),
		logging.String("action", string(uevent.Action)),
	)

	select {
	case w.nudges <- struct{}{}:
	default:
	}
}
