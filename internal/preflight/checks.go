package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"readalong/internal/store"
	"readalong/internal/timing"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase opens the database, verifies the schema and reports voices
// still holding legacy timing blobs.
func CheckDatabase(ctx context.Context, path string) []Result {
	const name = "Database"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return []Result{{Name: name, Optional: true, Detail: fmt.Sprintf("%s (not created yet)", path)}}
	}
	st, err := store.OpenPath(path)
	if err != nil {
		return []Result{{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}}
	}
	defer st.Close()

	tracks, err := st.ListTracks(ctx)
	if err != nil {
		return []Result{{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}}
	}
	results := []Result{{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d tracks)", path, len(tracks))}}

	legacy, err := st.LegacyTimingVoices(ctx, int(timing.VersionCurrent))
	switch {
	case err != nil:
		results = append(results, Result{Name: "Timing format", Detail: fmt.Sprintf("error: %v", err)})
	case len(legacy) > 0:
		results = append(results, Result{
			Name:   "Timing format",
			Detail: fmt.Sprintf("%d voices need migration (run 'readalong migrate-legacy')", len(legacy)),
		})
	default:
		results = append(results, Result{Name: "Timing format", Passed: true, Detail: "all blobs current"})
	}
	return results
}

// CheckServer probes a running server's health endpoint.
func CheckServer(ctx context.Context, baseURL, token string) Result {
	const name = "API server"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Optional: true, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/healthz", nil)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Result{Name: name, Optional: true, Detail: "health check timed out"}
		}
		return Result{Name: name, Optional: true, Detail: "not running"}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Optional: true, Detail: "reachable at " + base}
	case http.StatusServiceUnavailable:
		return Result{Name: name, Optional: true, Detail: "degraded (database unavailable)"}
	default:
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
}
