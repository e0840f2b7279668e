package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileDefaults(t *testing.T) {
	f := NewFileFromConfig(&RawFileConfig{}, "")

	if got := f.SampleInterval(); got != 5*time.Second {
		t.Fatalf("default sample interval: got %v, want 5s", got)
	}
	if got := f.AverageSamples(); got != 3 {
		t.Fatalf("default average samples: got %d, want 3", got)
	}
	if !f.FullConversionAPI() {
		t.Fatal("full conversion API should default to true")
	}
	channels := f.Channels()
	if len(channels) != 4 || channels[0] != "P0" {
		t.Fatalf("default channels wrong: %v", channels)
	}
}

func TestFileLoadMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()

	f, err := NewFile(filepath.Join(dir, "does-not-exist.json"))
	if err != nil {
		t.Fatalf("NewFile with missing file: %v", err)
	}
	if got := f.SampleInterval(); got != 5*time.Second {
		t.Fatalf("missing file should yield defaults, got interval %v", got)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err = NewFile(empty)
	if err != nil {
		t.Fatalf("NewFile with empty file: %v", err)
	}
	if got := f.BaudRate(); got != 115200 {
		t.Fatalf("empty file should yield defaults, got baud %d", got)
	}
}

func TestFileSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adcmon.json")

	f, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}

	f.SetSampleIntervalSeconds(10)
	f.SetChannels([]string{"P0", "VDD_CORE"})
	f.SetAverageSamples(1)
	f.SetRecalibrateSchedule("@hourly")

	if err := f.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	g, err := NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.SampleInterval(); got != 10*time.Second {
		t.Fatalf("interval after reload: got %v, want 10s", got)
	}
	if got := g.Channels(); len(got) != 2 || got[1] != "VDD_CORE" {
		t.Fatalf("channels after reload: %v", got)
	}
	if got := g.AverageSamples(); got != 1 {
		t.Fatalf("average samples after reload: got %d, want 1", got)
	}
	if got := g.RecalibrateSchedule(); got != "@hourly" {
		t.Fatalf("schedule after reload: got %q", got)
	}
}

func TestChannelsCopyIsolated(t *testing.T) {
	f := NewFileFromConfig(&RawFileConfig{}, "")

	channels := f.Channels()
	channels[0] = "mutated"

	if f.Channels()[0] != "P0" {
		t.Fatal("mutating the returned slice must not affect the config")
	}
}
