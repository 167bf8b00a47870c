package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"readalong/internal/api"
	"readalong/internal/testsupport"
)

func TestTrackAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.run(t, "track", "add", "book", "--title", "Book", "--text", sampleText)
	requireContains(t, out, "Created track book (1 text segments, 4 words)")

	list := decodeOutput[api.TrackListResponse](t, env.run(t, "--json", "track", "list"))
	if len(list.Tracks) != 1 || list.Tracks[0].ID != "book" || list.Tracks[0].Title != "Book" {
		t.Fatalf("unexpected listing: %+v", list)
	}

	requireContains(t, env.run(t, "track", "list"), "book")
	requireContains(t, env.run(t, "track", "show", "book"), "No voice timings")
}

func TestTrackAddRejectsDuplicate(t *testing.T) {
	env := setupCLITestEnv(t)
	env.run(t, "track", "add", "book")
	if _, _, err := runCLI(t, env.configPath, "track", "add", "book"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("duplicate add err = %v", err)
	}
}

func TestTrackAddTextFile(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(t.TempDir(), "book.txt")
	if err := os.WriteFile(path, []byte(sampleText), 0o644); err != nil {
		t.Fatal(err)
	}
	detail := decodeOutput[api.TrackDetail](t, env.run(t, "--json", "track", "add", "book", "--text-file", path))
	if detail.SourceWords != 4 || detail.TextSegments != 1 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	if _, _, err := runCLI(t, env.configPath, "track", "add", "other", "--text", "x", "--text-file", path); err == nil {
		t.Fatal("expected error when both text flags are set")
	}
}

func TestTrackShowAndDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedTrack(t)

	detail := decodeOutput[api.TrackDetail](t, env.run(t, "--json", "track", "show", "book"))
	if len(detail.Voices) != 1 || detail.Voices[0].VoiceID != "alloy" || detail.Voices[0].Words != 4 {
		t.Fatalf("unexpected voices: %+v", detail.Voices)
	}
	if detail.Track.TotalDuration != 2.4 {
		t.Fatalf("total duration = %v, want 2.4", detail.Track.TotalDuration)
	}
	requireContains(t, env.run(t, "track", "show", "book"), "alloy")

	voiceDir := filepath.Join(env.cfg.Paths.AudioDir, "book", "alloy")
	testsupport.WriteSegmentFiles(t, voiceDir, env.cfg.Playlist.SegmentPrefix, "ts", 1, 256)

	requireContains(t, env.run(t, "track", "delete", "book"), "Deleted track book (256 B of audio removed)")
	if _, err := os.Stat(voiceDir); !os.IsNotExist(err) {
		t.Fatalf("voice dir still present: %v", err)
	}
	if _, _, err := runCLI(t, env.configPath, "track", "delete", "book"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestTrackAddDerivesIDFromTitle(t *testing.T) {
	env := setupCLITestEnv(t)
	detail := decodeOutput[api.TrackDetail](t, env.run(t, "--json", "track", "add", "--title", "The Long Road", "--duration", "95"))
	if detail.Track.ID != "the_long_road" || detail.Track.TotalDuration != 95 {
		t.Fatalf("unexpected track: %+v", detail.Track)
	}
	if _, _, err := runCLI(t, env.configPath, "track", "add"); err == nil {
		t.Fatal("expected error without id or title")
	}
}

func TestTrackDuration(t *testing.T) {
	env := setupCLITestEnv(t)
	env.run(t, "track", "add", "book")
	requireContains(t, env.run(t, "track", "duration", "book", "83.4"), "Track book duration set to 1m23s")

	detail := decodeOutput[api.TrackDetail](t, env.run(t, "--json", "track", "show", "book"))
	if detail.Track.TotalDuration != 83.4 {
		t.Fatalf("duration = %v", detail.Track.TotalDuration)
	}
	if _, _, err := runCLI(t, env.configPath, "track", "duration", "book", "--", "-1"); err == nil {
		t.Fatal("expected negative duration to fail")
	}
}
