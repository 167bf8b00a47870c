package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills path with size bytes of a repeating pattern. A size <= 0
// writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = 0x47
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSegmentFiles creates count audio segment files named
// <prefix>NNN.<ext> in dir and returns their paths.
func WriteSegmentFiles(t testing.TB, dir, prefix, ext string, count int, size int64) []string {
	t.Helper()

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%s%03d.%s", prefix, i, ext))
		WriteFile(t, path, size)
		paths = append(paths, path)
	}
	return paths
}
