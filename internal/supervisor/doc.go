// Package supervisor runs the attachment control loop. Each poll cycle it
// classifies the picture drive from a fresh hardware probe, records state
// transitions, and keeps exactly one display child running with the
// invocation flags the current state calls for.
package supervisor
