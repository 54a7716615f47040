// Package daemon assembles the picframe supervisor process: the single
// instance lock, the transition journal, the udev watcher, and the poll loop
// itself, with start/stop/status plumbing for IPC.
package daemon
