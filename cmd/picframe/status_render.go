package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"picframe/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

var stateTitler = cases.Title(language.English)

// stateTitle turns a wire state label like "mounted-needs-setup" into
// "Mounted Needs Setup" for human output.
func stateTitle(state string) string {
	return stateTitler.String(strings.ReplaceAll(state, "-", " "))
}

func stateKind(state string) statusKind {
	switch state {
	case "mounted-ready":
		return statusOK
	case "absent":
		return statusInfo
	default:
		return statusWarn
	}
}

func renderStatus(out io.Writer, status *ipc.StatusResponse, colorize bool) {
	fmt.Fprintln(out, renderStatusLine("Daemon", statusOK,
		fmt.Sprintf("running (pid %d)", status.PID), colorize))
	fmt.Fprintln(out, renderStatusLine("State", stateKind(status.State),
		stateTitle(status.State), colorize))
	if status.ChildPID > 0 {
		fmt.Fprintln(out, renderStatusLine("Display", statusOK,
			fmt.Sprintf("pid %d", status.ChildPID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Display", statusWarn, "no child process", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Device", statusInfo, status.DevicePath, colorize))
	fmt.Fprintln(out, renderStatusLine("Mount point", statusInfo, status.MountPoint, colorize))
	if !status.LastChange.IsZero() {
		fmt.Fprintln(out, renderStatusLine("Last change", statusInfo,
			status.LastChange.Local().Format(time.RFC3339), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Session", statusInfo, status.SessionID, colorize))
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
