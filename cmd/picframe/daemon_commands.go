package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"picframe/internal/framectl"
	"picframe/internal/ipc"
)

const (
	startWaitTimeout = 10 * time.Second
	stopGracePeriod  = 10 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newStartCommand(ctx),
		newStopCommand(ctx),
		newRestartCommand(ctx),
		newStatusCommand(ctx),
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the picframe daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.ensureConfig()
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			result, err := framectl.EnsureStarted(cfg.SocketPath(), executable,
				framectl.LaunchOptions{ConfigPath: ctx.configPathFlag()}, startWaitTimeout)
			if err != nil {
				return err
			}

			switch {
			case result.AlreadyRunning:
				fmt.Fprintf(cmd.OutOrStdout(), "picframe daemon already running (pid %d)\n", result.PID)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "picframe daemon started (pid %d)\n", result.PID)
			}
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the picframe daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.ensureConfig()
			result, err := framectl.StopAndTerminate(cfg, stopGracePeriod)
			if err != nil {
				if errors.Is(err, framectl.ErrDaemonNotRunning) {
					fmt.Fprintln(cmd.OutOrStdout(), "picframe daemon is not running")
					return nil
				}
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(cmd.OutOrStdout(), "picframe daemon killed (pid %d)\n", result.PID)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "picframe daemon stopped")
			}
			return nil
		},
	}
}

func newRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the picframe daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.ensureConfig()
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			result, err := framectl.Restart(cfg, executable,
				framectl.LaunchOptions{ConfigPath: ctx.configPathFlag()}, stopGracePeriod, startWaitTimeout)
			if err != nil {
				return err
			}

			if result.WasRunning {
				fmt.Fprintf(cmd.OutOrStdout(), "picframe daemon restarted (pid %d)\n", result.Start.PID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "picframe daemon started (pid %d)\n", result.Start.PID)
			}
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and attachment state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.ensureConfig()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(os.Stdout)

			running, _, err := framectl.ProcessInfo(cfg.SocketPath())
			if err != nil || !running {
				fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn,
					"not running (run `picframe start`)", colorize))
				fmt.Fprintln(out, renderStatusLine("Device", statusInfo, cfg.Frame.DevicePath, colorize))
				fmt.Fprintln(out, renderStatusLine("Mount point", statusInfo, cfg.Frame.MountPoint, colorize))
				return nil
			}

			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				renderStatus(out, status, colorize)
				return nil
			})
		},
	}
}
