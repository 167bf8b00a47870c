package app_test

import (
	"context"
	"os"
	"testing"

	"readalong/internal/app"
	"readalong/internal/ingest"
	"readalong/internal/logging"
	"readalong/internal/playlist"
	"readalong/internal/reader"
	"readalong/internal/testsupport"
	"readalong/internal/timingindex"
)

func TestIngestEvictsReadCaches(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	a, err := app.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	ctx := context.Background()
	testsupport.NewTrack(t, a.Store, "book", "hello world")

	if _, err := a.Ingest.Ingest(ctx, "book", "alloy", []ingest.RawWord{
		{Word: "hello", Start: 0, End: 0.5},
		{Word: "world", Start: 0.5, End: 1},
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	res := a.Index.Lookup(ctx, "book", "alloy", 0.7)
	if res.Status != timingindex.StatusFound || res.Word != "world" {
		t.Fatalf("lookup = %+v", res)
	}
	if page := a.Reader.GetPage(ctx, "book", "alloy", 0, 10); page.Status != reader.StatusOK {
		t.Fatalf("page status = %q (%s)", page.Status, page.Error)
	}

	if _, err := a.Ingest.Ingest(ctx, "book", "alloy", []ingest.RawWord{
		{Word: "hello", Start: 0, End: 0.8},
		{Word: "world", Start: 0.8, End: 1.2},
	}); err != nil {
		t.Fatalf("re-Ingest: %v", err)
	}
	res = a.Index.Lookup(ctx, "book", "alloy", 0.7)
	if res.Status != timingindex.StatusFound || res.Word != "hello" {
		t.Fatalf("lookup after re-ingest = %+v", res)
	}
}

func TestDeleteTrackRemovesAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	a, err := app.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	ctx := context.Background()
	testsupport.NewTrack(t, a.Store, "book", "hello")
	if _, err := a.Ingest.Ingest(ctx, "book", "alloy", []ingest.RawWord{{Word: "hello", Start: 0, End: 40}}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	dir, err := a.Playlists.VoiceDir("book", "alloy")
	if err != nil {
		t.Fatalf("VoiceDir: %v", err)
	}
	testsupport.WriteSegmentFiles(t, dir, cfg.Playlist.SegmentPrefix, "ts", 2, 64)
	if _, err := a.Playlists.EnsurePlaylist(ctx, "book", "alloy"); err != nil {
		t.Fatalf("EnsurePlaylist: %v", err)
	}

	deleted, results, err := a.DeleteTrack(ctx, "book")
	if err != nil {
		t.Fatalf("DeleteTrack: %v", err)
	}
	if !deleted {
		t.Fatal("track not deleted")
	}
	if len(results) != 1 || results[0].Status != playlist.CleanupCleaned || results[0].SegmentsRemoved != 2 {
		t.Fatalf("cleanup results = %+v", results)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("voice dir still present: %v", err)
	}
	if res := a.Index.Lookup(ctx, "book", "alloy", 1); res.Status != timingindex.StatusError {
		t.Fatalf("lookup after delete = %+v", res)
	}
}
