// Package ipc defines the JSON-RPC surface the picframe CLI uses to talk to
// a running daemon over a Unix domain socket.
package ipc

import "time"

// StatusRequest asks for the daemon's current view.
type StatusRequest struct{}

// StatusResponse summarizes the running daemon.
type StatusResponse struct {
	Running     bool      `json:"running"`
	PID         int       `json:"pid"`
	SessionID   string    `json:"session_id"`
	State       string    `json:"state"`
	ChildPID    int       `json:"child_pid"`
	DevicePath  string    `json:"device_path"`
	MountPoint  string    `json:"mount_point"`
	LastChange  time.Time `json:"last_change"`
	LockPath    string    `json:"lock_path"`
	JournalPath string    `json:"journal_path"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse acknowledges a stop.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// HistoryRequest asks for recent attachment state transitions.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// Transition is one journaled state change.
type Transition struct {
	SessionID string    `json:"session_id"`
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse carries journaled transitions, newest first.
type HistoryResponse struct {
	Transitions []Transition `json:"transitions"`
}
