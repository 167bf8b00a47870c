package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playlist.m3u8")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content = %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be gone, have %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	if err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "f"), []byte("x"), 0o644); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRemoveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment_000.ts")
	if err := os.WriteFile(path, make([]byte, 1500), 0o644); err != nil {
		t.Fatal(err)
	}
	freed, err := RemoveFile(path)
	if err != nil || freed != 1500 {
		t.Fatalf("RemoveFile = %d, %v", freed, err)
	}
	freed, err = RemoveFile(path)
	if err != nil || freed != 0 {
		t.Fatalf("second RemoveFile = %d, %v", freed, err)
	}
}

func TestRemoveEmptyDirs(t *testing.T) {
	root := t.TempDir()
	voice := filepath.Join(root, "track", "voice")
	sibling := filepath.Join(root, "track", "other")
	for _, d := range []string{voice, sibling} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(sibling, "keep"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveEmptyDirs(voice, root); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(voice); !os.IsNotExist(err) {
		t.Fatal("expected voice dir removed")
	}
	if _, err := os.Stat(filepath.Join(root, "track")); err != nil {
		t.Fatal("expected non-empty track dir kept")
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatal("root must never be removed")
	}

	if err := RemoveEmptyDirs(filepath.Join(root, ".."), root); err == nil {
		t.Fatal("expected error for path outside root")
	}
}

func TestIsWithin(t *testing.T) {
	cases := []struct {
		path, root string
		want       bool
	}{
		{"/a/b/c", "/a", true},
		{"/a", "/a", true},
		{"/ab", "/a", false},
		{"/a/../b", "/a", false},
		{"/a/..b", "/a", true},
	}
	for _, tc := range cases {
		if got := IsWithin(tc.path, tc.root); got != tc.want {
			t.Fatalf("IsWithin(%q, %q) = %v", tc.path, tc.root, got)
		}
	}
}
