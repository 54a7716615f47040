package supervisor

// State is the attachment classification of the picture drive. It is
// recomputed from scratch every poll cycle; nothing is ever inferred from a
// previously stored state.
type State int

const (
	// Absent means the device does not appear in the block device listing.
	Absent State = iota
	// AttachedUnmounted means the device is present but not mounted. The
	// supervisor attempts a mount from this state.
	AttachedUnmounted
	// MountedNeedsSetup means the drive is mounted but missing the expected
	// layout, so the display child runs the one-shot setup flow.
	MountedNeedsSetup
	// MountedEmpty means the layout is present but no pictures exist.
	MountedEmpty
	// MountedReady means at least one picture is available to show.
	MountedReady
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case AttachedUnmounted:
		return "attached-unmounted"
	case MountedNeedsSetup:
		return "mounted-needs-setup"
	case MountedEmpty:
		return "mounted-empty"
	case MountedReady:
		return "mounted-ready"
	default:
		return "unknown"
	}
}

// Mounted reports whether the state implies the drive is mounted.
func (s State) Mounted() bool {
	return s == MountedNeedsSetup || s == MountedEmpty || s == MountedReady
}
