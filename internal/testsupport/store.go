package testsupport

import (
	"context"
	"testing"

	"readalong/internal/config"
	"readalong/internal/store"
	"readalong/internal/timing"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewTrack creates a track with the given id and source text.
func NewTrack(t testing.TB, st *store.Store, id, text string) *store.Track {
	t.Helper()

	track, err := st.CreateTrack(context.Background(), store.Track{ID: id, Title: id, SourceText: text})
	if err != nil {
		t.Fatalf("store.CreateTrack: %v", err)
	}
	return track
}

// PutTimings packs words per segment and stores them for (trackID, voiceID).
// Words are bucketed by their SegmentIndex; nil indexes go to segment 0.
func PutTimings(t testing.TB, st *store.Store, trackID, voiceID string, words []timing.Word) {
	t.Helper()

	buckets := make(map[int][]timing.Word)
	order := []int{}
	for _, w := range words {
		seg := 0
		if w.SegmentIndex != nil {
			seg = *w.SegmentIndex
		}
		if _, ok := buckets[seg]; !ok {
			order = append(order, seg)
		}
		buckets[seg] = append(buckets[seg], w)
	}

	codec := timing.DefaultCodec()
	rows := make([]store.WordTimingRow, 0, len(order))
	for _, seg := range order {
		enc, err := codec.Pack(buckets[seg])
		if err != nil {
			t.Fatalf("timing.Pack segment %d: %v", seg, err)
		}
		rows = append(rows, store.WordTimingRow{
			SegmentIndex:  seg,
			FormatVersion: int(timing.VersionCurrent),
			Blob:          enc.Blob,
			RawSize:       enc.RawSize,
			Aggregates:    enc.Aggregates,
		})
	}
	if err := st.ReplaceWordTimings(context.Background(), trackID, voiceID, rows); err != nil {
		t.Fatalf("store.ReplaceWordTimings: %v", err)
	}
}
