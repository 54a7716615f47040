package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"picframe/internal/daemon"
	"picframe/internal/display"
	"picframe/internal/ipc"
	"picframe/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		noFork   bool
		setup    bool
		noDevice bool
		testing  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the supervisor in the foreground",
		Long: `Run the picframe supervisor in the foreground. With --no-fork the
process runs as a display child instead; the supervisor spawns these itself.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noFork {
				return runDisplayChild(cmd.Context(), ctx, setup, noDevice, testing)
			}
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}

	cmd.Flags().BoolVar(&noFork, "no-fork", false, "Run as a display child (spawned by the supervisor)")
	cmd.Flags().BoolVar(&setup, "setup", false, "Display child: run the one-shot drive setup flow")
	cmd.Flags().BoolVar(&noDevice, "no-device", false, "Display child: show the insert-a-drive view")
	cmd.Flags().BoolVar(&testing, "testing", false, "Skip console cursor hiding for development terminals")

	return cmd
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := ctx.ensureConfig()

	logger, err := logging.New(logging.Options{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		OutputPaths:  []string{"stdout", cfg.LogPath()},
		FallbackPath: cfg.FallbackLogPath(),
		FallbackNotifier: func(requested, fallback string, openErr error) {
			fmt.Fprintf(os.Stderr, "warn: log file %s unavailable (%v); logging to %s\n",
				requested, openErr, fallback)
		},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("%w (lock: %s)", err, cfg.LockPath())
		}
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := writePIDFile(cfg.PIDPath()); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(cfg.PIDPath())

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, cancel, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start supervisor: %w", err)
	}

	select {
	case <-signalCtx.Done():
		logger.Info("picframe daemon shutting down")
		d.Stop()
		return nil
	case err := <-d.Done():
		if err != nil {
			logger.Error("supervisor exited", logging.Error(err))
		}
		return err
	}
}

func runDisplayChild(cmdCtx context.Context, ctx *commandContext, setup, noDevice, testing bool) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := ctx.ensureConfig()

	// Children log to stdout only; the supervisor owns the log file and
	// inherits this stream.
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	mode := display.ModeShow
	switch {
	case setup:
		mode = display.ModeSetup
	case noDevice:
		mode = display.ModeNoDevice
	}

	runner := display.New(display.Options{
		Logger:         logger,
		Mode:           mode,
		MountPoint:     cfg.Frame.MountPoint,
		RotateInterval: cfg.RotateInterval(),
		LockPath:       cfg.DisplayLockPath(),
		HideCursor:     cfg.Display.HideCursor && !testing,
	})

	if err := runner.Run(signalCtx); err != nil {
		if errors.Is(err, display.ErrAlreadyRunning) {
			// Another child owns the screen; a duplicate exits quietly.
			logger.Warn("display child already running, exiting")
			return nil
		}
		return err
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
