package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	m := New()
	m.ObserveLookup("found", time.Millisecond)
	m.ObserveLookup("found", time.Millisecond)
	m.ObserveLookup("error", time.Millisecond)
	m.CacheHit("segments")
	m.CacheMiss("segments")
	m.CacheInvalidated("segments", 3)
	m.AddBytesFreed(2048)

	if got := testutil.ToFloat64(m.lookups.WithLabelValues("found")); got != 2 {
		t.Fatalf("expected 2 found lookups, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheEvents.WithLabelValues("segments", "invalidate")); got != 3 {
		t.Fatalf("expected 3 invalidations, got %v", got)
	}
	if got := testutil.ToFloat64(m.bytesFreed); got != 2048 {
		t.Fatalf("expected 2048 bytes freed, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLookup("found", time.Second)
	m.ObservePage("ok")
	m.CacheHit("x")
	m.ObserveDecode("ok")
	m.ObservePlaylist("ensure", "created")
	m.AddBytesFreed(1)
	m.ObserveIngest(1, 2.0)
	m.ObserveHTTP("/", "200", time.Second)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObservePage("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "readalong_pages_total") {
		t.Fatalf("expected pages counter in output, got:\n%s", body)
	}
}
