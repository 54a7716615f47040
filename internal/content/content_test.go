package content

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func setupDrive(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	return root
}

func TestProbeFreshDriveNeedsSetup(t *testing.T) {
	root := t.TempDir()
	report := NewProber(4).Probe(root)
	if report.Class != NeedsSetup {
		t.Fatalf("expected NeedsSetup, got %v", report.Class)
	}
	if len(report.MissingBuckets) != len(Buckets) {
		t.Errorf("expected all buckets missing, got %v", report.MissingBuckets)
	}
	if report.SettingsPresent {
		t.Error("expected settings file to be absent")
	}
}

func TestProbeMissingSettingsNeedsSetup(t *testing.T) {
	root := setupDrive(t)
	if err := os.Remove(filepath.Join(root, SettingsFileName)); err != nil {
		t.Fatalf("remove settings: %v", err)
	}
	report := NewProber(4).Probe(root)
	if report.Class != NeedsSetup {
		t.Fatalf("expected NeedsSetup when settings file is missing, got %v", report.Class)
	}
}

func TestProbeOneMissingBucketDoesNotForceSetup(t *testing.T) {
	root := setupDrive(t)
	if err := os.RemoveAll(filepath.Join(root, "xxx")); err != nil {
		t.Fatalf("remove bucket: %v", err)
	}
	report := NewProber(4).Probe(root)
	if report.Class != Empty {
		t.Fatalf("one missing bucket must classify Empty, got %v", report.Class)
	}
}

func TestProbeEmptyThenReady(t *testing.T) {
	root := setupDrive(t)
	prober := NewProber(4)

	report := prober.Probe(root)
	if report.Class != Empty {
		t.Fatalf("expected Empty, got %v", report.Class)
	}
	if report.Index.Total != 0 {
		t.Errorf("expected zero total, got %d", report.Index.Total)
	}

	writeFile(t, filepath.Join(root, "xxx", "cat.jpg"))

	report = prober.Probe(root)
	if report.Class != Ready {
		t.Fatalf("expected Ready after adding a picture, got %v", report.Class)
	}
	if report.Index.Total != 1 {
		t.Errorf("expected total 1, got %d", report.Index.Total)
	}
	if report.Index.Counts["xxx"] != 1 {
		t.Errorf("expected bucket count 1, got %d", report.Index.Counts["xxx"])
	}
}

func TestProbeIgnoresDirectoriesAndNonPictures(t *testing.T) {
	root := setupDrive(t)
	if err := os.MkdirAll(filepath.Join(root, "xx", "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(root, "xx", "notes.txt"))

	report := NewProber(4).Probe(root)
	if report.Class != Empty {
		t.Fatalf("expected Empty, got %v", report.Class)
	}
}

func TestEnsureLayoutIsIdempotentAndPreservesSettings(t *testing.T) {
	root := setupDrive(t)
	custom := []byte("rotate_interval_seconds = 7\n")
	if err := os.WriteFile(filepath.Join(root, SettingsFileName), custom, 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	if err := EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout rerun: %v", err)
	}

	settings := LoadDriveSettings(root)
	if settings.RotateIntervalSeconds != 7 {
		t.Errorf("setup rerun clobbered settings: %+v", settings)
	}
}

func TestLoadDriveSettingsToleratesGarbage(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, SettingsFileName), []byte("{{{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	settings := LoadDriveSettings(root)
	if settings.RotateIntervalSeconds != 0 {
		t.Errorf("expected zero settings for malformed file, got %+v", settings)
	}
}

func TestListPicturesWalksBucketsInOrder(t *testing.T) {
	root := setupDrive(t)
	writeFile(t, filepath.Join(root, "xxxxx", "best.png"))
	writeFile(t, filepath.Join(root, "x", "meh.jpg"))

	paths := ListPictures(root)
	if len(paths) != 2 {
		t.Fatalf("expected 2 pictures, got %d", len(paths))
	}
	if filepath.Base(paths[0]) != "meh.jpg" || filepath.Base(paths[1]) != "best.png" {
		t.Errorf("unexpected order: %v", paths)
	}
}
