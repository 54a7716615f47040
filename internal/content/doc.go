// Package content inspects a mounted picture drive. It classifies the drive
// as needing first-time setup, holding no pictures, or ready, and builds the
// per-bucket index the display child rotates through. The setup flow writes
// the expected directory layout and default drive settings onto a fresh
// drive.
package content
