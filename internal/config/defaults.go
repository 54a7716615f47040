package config

const (
	defaultDevicePath   = "/dev/sda1"
	defaultMountPoint   = "/mnt"
	defaultLogDir       = "~/.local/share/picframe/logs"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultPollSeconds  = 3
	defaultGraceSeconds = 5
	defaultRotateSecs   = 30

	// defaultSetupMissingThreshold is the number of rating-bucket directories
	// that must be absent before the drive is treated as needing first-time
	// setup. The value is inherited from the original appliance and is
	// arbitrary; it exists so a drive missing a single optional bucket is not
	// forced through setup.
	defaultSetupMissingThreshold = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Frame: Frame{
			DevicePath: defaultDevicePath,
			MountPoint: defaultMountPoint,
		},
		Supervisor: Supervisor{
			PollIntervalSeconds:   defaultPollSeconds,
			GracePeriodSeconds:    defaultGraceSeconds,
			SetupMissingThreshold: defaultSetupMissingThreshold,
		},
		Display: Display{
			RotateIntervalSeconds: defaultRotateSecs,
			HideCursor:            true,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
