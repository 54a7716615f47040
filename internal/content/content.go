package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Buckets are the five fixed rating-bucket directory names, ordered from the
// lowest weighting tier to the highest.
var Buckets = []string{"x", "xx", "xxx", "xxxx", "xxxxx"}

// SettingsFileName is the drive-local settings file the display child reads.
const SettingsFileName = "settings.toml"

// ReadmeFileName is written onto fresh drives during setup.
const ReadmeFileName = "README.txt"

// imageExtensions are the file extensions counted as pictures.
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
	".tif":  {},
	".tiff": {},
}

// Class is the coarse classification of a mounted drive.
type Class int

const (
	// NeedsSetup means the expected layout is missing and the one-shot setup
	// flow should run.
	NeedsSetup Class = iota
	// Empty means the layout is present but holds no pictures.
	Empty
	// Ready means at least one picture is available.
	Ready
)

func (c Class) String() string {
	switch c {
	case NeedsSetup:
		return "needs-setup"
	case Empty:
		return "empty"
	default:
		return "ready"
	}
}

// Index maps bucket name to the count of eligible picture files it holds.
type Index struct {
	Counts map[string]int
	Total  int
}

// Report is the result of probing a mounted drive.
type Report struct {
	Class           Class
	Index           Index
	MissingBuckets  []string
	SettingsPresent bool
}

// Prober classifies mounted drives.
type Prober struct {
	// MissingThreshold is the number of absent buckets at which the drive is
	// sent through setup instead of being treated as merely empty.
	MissingThreshold int
}

// NewProber builds a Prober with the given setup threshold.
func NewProber(missingThreshold int) *Prober {
	if missingThreshold < 1 {
		missingThreshold = 1
	}
	return &Prober{MissingThreshold: missingThreshold}
}

// Probe inspects mountedPath and classifies it. An unreadable path reports
// every artifact missing, which classifies as NeedsSetup; the probe itself
// never fails.
func (p *Prober) Probe(mountedPath string) Report {
	report := Report{
		Index: Index{Counts: make(map[string]int, len(Buckets))},
	}

	for _, bucket := range Buckets {
		count, ok := countPictures(filepath.Join(mountedPath, bucket))
		if !ok {
			report.MissingBuckets = append(report.MissingBuckets, bucket)
			continue
		}
		report.Index.Counts[bucket] = count
		report.Index.Total += count
	}
	sort.Strings(report.MissingBuckets)

	if info, err := os.Stat(filepath.Join(mountedPath, SettingsFileName)); err == nil && !info.IsDir() {
		report.SettingsPresent = true
	}

	switch {
	case len(report.MissingBuckets) >= p.MissingThreshold || !report.SettingsPresent:
		report.Class = NeedsSetup
	case report.Index.Total == 0:
		report.Class = Empty
	default:
		report.Class = Ready
	}
	return report
}

// countPictures returns the number of eligible picture files directly inside
// dir. ok is false when the directory does not exist or cannot be read.
func countPictures(dir string) (int, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, false
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsPicture(entry.Name()) {
			count++
		}
	}
	return count, true
}

// IsPicture reports whether name has a recognized picture extension.
func IsPicture(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := imageExtensions[ext]
	return ok
}

// ListPictures returns the picture file paths in every present bucket, bucket
// by bucket in weighting order. Unreadable buckets are skipped.
func ListPictures(mountedPath string) []string {
	var paths []string
	for _, bucket := range Buckets {
		paths = append(paths, ListBucket(mountedPath, bucket)...)
	}
	return paths
}

// ListBucket returns the picture file paths directly inside one bucket. An
// unreadable bucket yields nil.
func ListBucket(mountedPath, bucket string) []string {
	dir := filepath.Join(mountedPath, bucket)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsPicture(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths
}
