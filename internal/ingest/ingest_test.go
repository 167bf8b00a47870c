package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"readalong/internal/ingest"
	"readalong/internal/logging"
	"readalong/internal/metrics"
	"readalong/internal/services"
	"readalong/internal/store"
	"readalong/internal/testsupport"
	"readalong/internal/timing"
	"readalong/internal/workpool"
)

type invalidations struct {
	mu    sync.Mutex
	calls []string
}

func (r *invalidations) record(trackID, voiceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, trackID+"/"+voiceID)
}

func (r *invalidations) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newService(t *testing.T) (*ingest.Service, *store.Store, *invalidations) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSegmentDuration(2))
	st := testsupport.MustOpenStore(t, cfg)
	rec := &invalidations{}
	svc, err := ingest.New(cfg, st, logging.NewNop(),
		ingest.WithInvalidation(rec.record),
		ingest.WithPool(workpool.New(2)),
		ingest.WithMetrics(metrics.New()),
	)
	if err != nil {
		t.Fatalf("ingest.New: %v", err)
	}
	return svc, st, rec
}

func decodeAll(t *testing.T, st *store.Store, trackID, voiceID string) []timing.Word {
	t.Helper()
	rows, err := st.WordTimings(context.Background(), trackID, voiceID, nil)
	if err != nil {
		t.Fatalf("WordTimings: %v", err)
	}
	var all []timing.Word
	for _, row := range rows {
		words, err := timing.Unpack(row.Blob)
		if err != nil {
			t.Fatalf("Unpack segment %d: %v", row.SegmentIndex, err)
		}
		for _, w := range words {
			if w.SegmentIndex == nil || *w.SegmentIndex != row.SegmentIndex {
				t.Fatalf("word %q stored in segment %d reports %v", w.Word, row.SegmentIndex, w.SegmentIndex)
			}
		}
		all = append(all, words...)
	}
	return all
}

func TestIngestAssignsSegmentsAndOffsets(t *testing.T) {
	svc, st, rec := newService(t)
	ctx := context.Background()
	testsupport.NewTrack(t, st, "book", "Hello, brave new world.\n\nGoodbye now.")

	raw := []ingest.RawWord{
		{Word: "world", Start: 2.5, End: 3.0},
		{Word: "Hello", Start: 0, End: 0.4},
		{Word: "brave", Start: 0.5, End: 1.0},
		{Word: "new", Start: 1.0, End: 1.6},
		{Word: "Goodbye", Start: 4.1, End: 4.6},
		{Word: "now", Start: 4.6, End: 5.0},
	}
	summary, err := svc.Ingest(ctx, "book", "alloy", raw)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Words != 6 || summary.Segments != 3 {
		t.Fatalf("summary = %+v, want 6 words in 3 segments", summary)
	}
	if summary.Duration != 5.0 {
		t.Fatalf("duration = %v, want 5", summary.Duration)
	}
	if summary.UnmatchedWords != 0 {
		t.Fatalf("unmatched = %d, want 0", summary.UnmatchedWords)
	}
	if summary.TextSimilarity < 0.99 {
		t.Fatalf("similarity = %v, want ~1", summary.TextSimilarity)
	}
	if summary.CompressionRatio <= 0 {
		t.Fatalf("compression ratio = %v", summary.CompressionRatio)
	}

	got := decodeAll(t, st, "book", "alloy")
	want := []struct {
		word    string
		offset  int
		segment int
		segOff  float64
	}{
		{"Hello", 0, 0, 0},
		{"brave", 7, 0, 0.5},
		{"new", 13, 0, 1.0},
		{"world", 17, 1, 0.5},
		{"Goodbye", 25, 2, 0.1},
		{"now", 33, 2, 0.6},
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d words, want %d", len(got), len(want))
	}
	for i, w := range want {
		g := got[i]
		if g.Word != w.word || g.TextOffset != w.offset || *g.SegmentIndex != w.segment || g.WordIndex != i {
			t.Errorf("word %d = %+v, want %s at %d in segment %d", i, g, w.word, w.offset, w.segment)
		}
		if math.Abs(g.SegmentOffset-w.segOff) > 0.0005 {
			t.Errorf("word %d segment offset = %v, want %v", i, g.SegmentOffset, w.segOff)
		}
	}

	duration, err := st.TrackDuration(ctx, "book")
	if err != nil {
		t.Fatalf("TrackDuration: %v", err)
	}
	if duration != 5.0 {
		t.Fatalf("track duration = %v, want 5", duration)
	}
	if calls := rec.list(); len(calls) != 1 || calls[0] != "book/alloy" {
		t.Fatalf("invalidations = %v", calls)
	}
}

func TestIngestValidation(t *testing.T) {
	svc, st, _ := newService(t)
	testsupport.NewTrack(t, st, "book", "one two")

	cases := []struct {
		name  string
		track string
		voice string
		raw   []ingest.RawWord
		want  error
	}{
		{"missing voice", "book", "", nil, services.ErrValidation},
		{"unsafe track", "../book", "v", nil, services.ErrValidation},
		{"unsafe voice", "book", "a/b", nil, services.ErrValidation},
		{"blank word", "book", "v", []ingest.RawWord{{Word: " ", Start: 0, End: 1}}, services.ErrValidation},
		{"negative start", "book", "v", []ingest.RawWord{{Word: "one", Start: -1, End: 1}}, services.ErrValidation},
		{"end before start", "book", "v", []ingest.RawWord{{Word: "one", Start: 2, End: 1}}, services.ErrValidation},
		{"nan start", "book", "v", []ingest.RawWord{{Word: "one", Start: math.NaN(), End: 1}}, services.ErrValidation},
		{"unknown track", "ghost", "v", nil, services.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), tc.track, tc.voice, tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestIngestReplacesPreviousTimings(t *testing.T) {
	svc, st, rec := newService(t)
	ctx := context.Background()
	testsupport.NewTrack(t, st, "book", "a b c d")

	first := []ingest.RawWord{{"a", 0, 1}, {"b", 1, 2}, {"c", 2, 3}, {"d", 3, 4}}
	if _, err := svc.Ingest(ctx, "book", "v", first); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if _, err := svc.Ingest(ctx, "book", "v", first[:2]); err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	count, err := st.WordTimingCount(ctx, "book", "v")
	if err != nil {
		t.Fatalf("WordTimingCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	if _, err := svc.Ingest(ctx, "book", "v", nil); err != nil {
		t.Fatalf("clearing ingest: %v", err)
	}
	rows, err := st.WordTimings(ctx, "book", "v", nil)
	if err != nil {
		t.Fatalf("WordTimings: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows after clear = %d", len(rows))
	}
	duration, _ := st.TrackDuration(ctx, "book")
	if duration != 4 {
		t.Fatalf("track duration shrank to %v", duration)
	}
	if got := len(rec.list()); got != 3 {
		t.Fatalf("invalidations = %d, want 3", got)
	}
}

func TestIngestCountsUnmatchedWords(t *testing.T) {
	svc, st, _ := newService(t)
	testsupport.NewTrack(t, st, "book", "alpha beta gamma")

	summary, err := svc.Ingest(context.Background(), "book", "v", []ingest.RawWord{
		{"alpha", 0, 0.5}, {"zzz", 0.5, 1}, {"gamma", 1, 1.5},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.UnmatchedWords != 1 {
		t.Fatalf("unmatched = %d, want 1", summary.UnmatchedWords)
	}
	got := decodeAll(t, st, "book", "v")
	offsets := []int{got[0].TextOffset, got[1].TextOffset, got[2].TextOffset}
	if offsets[0] != 0 || offsets[1] != 6 || offsets[2] != 11 {
		t.Fatalf("offsets = %v, want [0 6 11]", offsets)
	}
}

func TestIngestMatchesWordsWithAttachedPunctuation(t *testing.T) {
	svc, st, _ := newService(t)
	testsupport.NewTrack(t, st, "book", "Hello world. “Goodbye,” world.")

	summary, err := svc.Ingest(context.Background(), "book", "v", []ingest.RawWord{
		{"Hello", 0, 0.5}, {"world.", 0.5, 1}, {"“Goodbye,”", 1.2, 1.8}, {"world.", 1.8, 2.4},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.UnmatchedWords != 0 {
		t.Fatalf("unmatched = %d, want 0", summary.UnmatchedWords)
	}
	if summary.TextSimilarity > 1 || summary.TextSimilarity < 0.99 {
		t.Fatalf("similarity = %v, want 1", summary.TextSimilarity)
	}
	got := decodeAll(t, st, "book", "v")
	want := []int{0, 6, 16, 28}
	for i, w := range got {
		if w.TextOffset != want[i] {
			t.Fatalf("word %d %q offset = %d, want %d", i, w.Word, w.TextOffset, want[i])
		}
	}
	if got[1].Word != "world." {
		t.Fatalf("stored word = %q, want synthesizer spelling kept", got[1].Word)
	}
}

func TestIngestConcurrentWriters(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	testsupport.NewTrack(t, st, "book", "")

	var g errgroup.Group
	for i := range 6 {
		voice := fmt.Sprintf("v%d", i%3)
		g.Go(func() error {
			raw := make([]ingest.RawWord, 10)
			for j := range raw {
				raw[j] = ingest.RawWord{Word: "w", Start: float64(j), End: float64(j) + 0.5}
			}
			_, err := svc.Ingest(ctx, "book", voice, raw)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent ingest: %v", err)
	}
	for i := range 3 {
		count, err := st.WordTimingCount(ctx, "book", fmt.Sprintf("v%d", i))
		if err != nil {
			t.Fatalf("WordTimingCount: %v", err)
		}
		if count != 10 {
			t.Fatalf("voice v%d count = %d, want 10", i, count)
		}
	}
}

func TestRawWordAcceptsBothKeyStyles(t *testing.T) {
	var words []ingest.RawWord
	input := `[{"word":"a","start":0,"end":0.5},{"word":"b","start_time":0.5,"end_time":1}]`
	if err := jsonUnmarshal(input, &words); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if words[1].Start != 0.5 || words[1].End != 1 {
		t.Fatalf("words = %+v", words)
	}
	if err := jsonUnmarshal(`[{"word":"a","end":1}]`, &words); err == nil || !strings.Contains(err.Error(), "start") {
		t.Fatalf("missing start accepted: %v", err)
	}
}
