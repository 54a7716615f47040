package main

import (
	"strings"
	"testing"
)

func TestStateTitle(t *testing.T) {
	cases := map[string]string{
		"absent":              "Absent",
		"attached-unmounted":  "Attached Unmounted",
		"mounted-needs-setup": "Mounted Needs Setup",
		"mounted-ready":       "Mounted Ready",
	}
	for in, want := range cases {
		if got := stateTitle(in); got != want {
			t.Errorf("stateTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderStatusLinePlain(t *testing.T) {
	line := renderStatusLine("State", statusOK, "Mounted Ready", false)
	if !strings.Contains(line, "State:") || !strings.Contains(line, "[OK] Mounted Ready") {
		t.Errorf("unexpected status line %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Error("plain rendering must not include color codes")
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("State", statusWarn, "Mounted Empty", true)
	if !strings.HasPrefix(line, ansiYellow) || !strings.HasSuffix(line, ansiReset) {
		t.Errorf("expected colorized line, got %q", line)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Time", "From", "To"}, [][]string{
		{"2026-08-23 10:00:00", "Absent", "Mounted Ready"},
	})
	for _, want := range []string{"TIME", "FROM", "TO", "Mounted Ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestStateKind(t *testing.T) {
	if stateKind("mounted-ready") != statusOK {
		t.Error("mounted-ready must render as OK")
	}
	if stateKind("absent") != statusInfo {
		t.Error("absent must render as INFO")
	}
	if stateKind("mounted-needs-setup") != statusWarn {
		t.Error("mounted-needs-setup must render as WARN")
	}
}
