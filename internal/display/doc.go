// Package display implements the child process the supervisor spawns. It
// holds a file lock so only one display instance runs, hides the console
// cursor on the appliance screen, and either rotates through the drive's
// pictures, runs the one-shot drive setup, or idles on a no-device view.
package display
