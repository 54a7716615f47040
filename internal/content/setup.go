package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const defaultDriveSettings = `# picframe drive settings
#
# Pictures go into the rating-bucket folders next to this file, lowest
# rating to highest:
#
#   x/ xx/ xxx/ xxxx/ xxxxx/

# Seconds each picture stays on screen. Overrides the appliance default.
rotate_interval_seconds = 30
`

const driveReadme = `This drive belongs to a picframe picture frame.

Put pictures (jpg, png, gif, bmp, webp, tiff) into the folders named
x, xx, xxx, xxxx, and xxxxx, lowest rating to highest. Edit settings.toml
to tune the slideshow.
`

// EnsureLayout creates the missing bucket directories and writes the default
// drive settings and README onto mountedPath. Existing files are never
// overwritten, so rerunning setup on a partially populated drive is safe.
func EnsureLayout(mountedPath string) error {
	for _, bucket := range Buckets {
		dir := filepath.Join(mountedPath, bucket)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	if err := writeIfAbsent(filepath.Join(mountedPath, SettingsFileName), defaultDriveSettings); err != nil {
		return err
	}
	return writeIfAbsent(filepath.Join(mountedPath, ReadmeFileName), driveReadme)
}

func writeIfAbsent(path, body string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DriveSettings are slideshow overrides read from the drive itself.
type DriveSettings struct {
	RotateIntervalSeconds int `toml:"rotate_interval_seconds"`
}

// LoadDriveSettings reads the drive-local settings file. A missing or
// malformed file yields zero-value settings; the drive must never be able to
// take the slideshow down.
func LoadDriveSettings(mountedPath string) DriveSettings {
	var settings DriveSettings
	data, err := os.ReadFile(filepath.Join(mountedPath, SettingsFileName))
	if err != nil {
		return DriveSettings{}
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return DriveSettings{}
	}
	if settings.RotateIntervalSeconds < 0 {
		settings.RotateIntervalSeconds = 0
	}
	return settings
}
