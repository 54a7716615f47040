// Package journal persists the supervisor's attachment state transitions in
// SQLite. The journal is purely diagnostic: classification always starts from
// a fresh probe of the hardware, never from journal rows, so a deleted or
// corrupt journal costs history but not correctness.
package journal
