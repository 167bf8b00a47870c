package reader

import (
	"context"
	"strings"
	"testing"
	"time"

	"readalong/internal/logging"
	"readalong/internal/services"
	"readalong/internal/store"
	"readalong/internal/testsupport"
	"readalong/internal/timing"
	"readalong/internal/words"
)

// timedWords builds one timed word per source word, 0.4s each, bucketed into
// 30s segments.
func timedWords(text string, limit int) []timing.Word {
	spans := WordSpans(text)
	if limit >= 0 && limit < len(spans) {
		spans = spans[:limit]
	}
	out := make([]timing.Word, 0, len(spans))
	for i, span := range spans {
		start := float64(i) * 0.4
		out = append(out, timing.Word{
			Word:          text[span[0]:span[1]],
			StartTime:     start,
			EndTime:       start + 0.4,
			TextOffset:    span[0],
			SegmentIndex:  timing.IntPtr(int(start / 30)),
			SegmentOffset: start - float64(int(start/30))*30,
			WordIndex:     i,
		})
	}
	return out
}

func newTestReader(t *testing.T, text string, timedLimit int) (*Reader, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	testsupport.NewTrack(t, st, "t", text)
	if timedLimit != 0 {
		testsupport.PutTimings(t, st, "t", "v", timedWords(text, timedLimit))
	} else {
		// voice with audio but no timings yet
		err := st.ReplaceVoiceSegments(context.Background(), "t", "v", []store.VoiceSegment{{SegmentIndex: 0, Path: "segment_000.mp3"}})
		if err != nil {
			t.Fatalf("ReplaceVoiceSegments failed: %v", err)
		}
	}
	src := words.NewStoreSource(st, nil, logging.NewNop(), nil)
	return New(src, nil, nil, Options{DefaultPageSize: 200, MaxPageSize: 500, TextCacheTTL: time.Minute}, logging.NewNop(), nil), st
}

func TestGetPageTwoWordScenario(t *testing.T) {
	r, _ := newTestReader(t, "Hello world", -1)
	page := r.GetPage(context.Background(), "t", "v", 0, 1)

	if page.Status != StatusOK {
		t.Fatalf("status = %q (%s)", page.Status, page.Error)
	}
	if len(page.Words) != 1 || page.Words[0].Word != "Hello" {
		t.Fatalf("unexpected words %+v", page.Words)
	}
	pg := page.Pagination
	if !pg.HasNext || pg.HasPrev || pg.TotalPages != 2 || pg.TotalWords != 2 {
		t.Fatalf("unexpected pagination %+v", pg)
	}
	if pg.StartIndex != 0 || pg.EndIndex != 1 {
		t.Fatalf("unexpected bounds %+v", pg)
	}
	if joinTokens(page.Tokens) != "Hello " {
		t.Fatalf("unexpected tokens %q", joinTokens(page.Tokens))
	}
	if !page.Tokens[0].HasTimings || *page.Tokens[0].GlobalIndex != 0 {
		t.Fatalf("expected timed first token, got %+v", page.Tokens[0])
	}
}

func TestGetPageCompleteness(t *testing.T) {
	var b strings.Builder
	b.WriteString("  Prologue: ")
	for i := 0; i < 23; i++ {
		b.WriteString("word, another-one's here.")
		if i%5 == 4 {
			b.WriteString("\n\n")
		} else {
			b.WriteString(" ")
		}
	}
	b.WriteString("The end!!\n")
	text := b.String()
	total := CountWords(text)

	r, _ := newTestReader(t, text, -1)
	for _, size := range []int{1, 7, 50, 200, total} {
		var (
			joined strings.Builder
			seen   []int
		)
		pages := (total + size - 1) / size
		for p := 0; p < pages; p++ {
			page := r.GetPage(context.Background(), "t", "v", p, size)
			if page.Status != StatusOK {
				t.Fatalf("size %d page %d: status %q (%s)", size, p, page.Status, page.Error)
			}
			for _, w := range page.Words {
				seen = append(seen, w.WordIndex)
			}
			for _, tok := range page.Tokens {
				if tok.Type == TokenWord && !tok.HasTimings {
					t.Fatalf("size %d page %d: untimed word %q", size, p, tok.Text)
				}
			}
			joined.WriteString(joinTokens(page.Tokens))
		}
		if joined.String() != text {
			t.Fatalf("size %d: concatenated tokens differ from source", size)
		}
		if len(seen) != total {
			t.Fatalf("size %d: saw %d words, want %d", size, len(seen), total)
		}
		for i, idx := range seen {
			if idx != i {
				t.Fatalf("size %d: word %d has index %d", size, i, idx)
			}
		}
	}
}

func TestGetPageOutOfRange(t *testing.T) {
	r, _ := newTestReader(t, "one two three", -1)
	for _, p := range []int{-1, 3, 99} {
		page := r.GetPage(context.Background(), "t", "v", p, 1)
		if page.Status != StatusPageOutOfRange {
			t.Fatalf("page %d: status %q", p, page.Status)
		}
		if len(page.Words) != 0 || len(page.Tokens) != 0 {
			t.Fatalf("page %d: expected empty content", p)
		}
	}
}

func TestGetPageMisaligned(t *testing.T) {
	text := "alpha beta gamma delta"
	r, _ := newTestReader(t, text, 2)

	page := r.GetPage(context.Background(), "t", "v", 0, 10)
	if page.Status != StatusMisaligned {
		t.Fatalf("status = %q", page.Status)
	}
	if page.Pagination.TotalWords != 2 || len(page.Words) != 2 {
		t.Fatalf("expected paging over 2 timed words, got %+v", page.Pagination)
	}
	if joinTokens(page.Tokens) != text {
		t.Fatalf("expected last page to carry overflow text, got %q", joinTokens(page.Tokens))
	}
	var timed, untimed int
	for _, tok := range page.Tokens {
		if tok.Type != TokenWord {
			continue
		}
		if tok.HasTimings {
			timed++
		} else {
			untimed++
		}
	}
	if timed != 2 || untimed != 2 {
		t.Fatalf("timed=%d untimed=%d", timed, untimed)
	}
}

func TestGetPageWithoutTimings(t *testing.T) {
	r, _ := newTestReader(t, "one two three", 0)
	page := r.GetPage(context.Background(), "t", "v", 1, 2)
	if page.Status != StatusNoTimings {
		t.Fatalf("status = %q", page.Status)
	}
	if page.Pagination.TotalWords != 3 || page.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}
	if len(page.Words) != 0 || joinTokens(page.Tokens) != "three" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestGetPageCorruptTimingsDegrade(t *testing.T) {
	r, st := newTestReader(t, "one two", 0)
	rows := []store.WordTimingRow{{SegmentIndex: 0, Blob: []byte("not a blob"), Aggregates: timing.Aggregates{WordCount: 2}}}
	if err := st.ReplaceWordTimings(context.Background(), "t", "v", rows); err != nil {
		t.Fatalf("ReplaceWordTimings failed: %v", err)
	}
	page := r.GetPage(context.Background(), "t", "v", 0, 10)
	if page.Status != StatusNoTimings || page.Error == "" {
		t.Fatalf("expected degraded page, got status %q error %q", page.Status, page.Error)
	}
	if joinTokens(page.Tokens) != "one two" {
		t.Fatalf("unexpected tokens %q", joinTokens(page.Tokens))
	}
}

func TestGetPageUnknownTrack(t *testing.T) {
	r, _ := newTestReader(t, "one", -1)
	page := r.GetPage(context.Background(), "missing", "v", 0, 10)
	if page.Status != StatusError || page.Error == "" {
		t.Fatalf("expected error page, got %+v", page)
	}
}

func TestGetPageUnknownVoice(t *testing.T) {
	r, _ := newTestReader(t, "one two", -1)
	page := r.GetPage(context.Background(), "t", "nobody", 0, 10)
	if page.Status != StatusError || page.ErrorKind != services.KindNotFound {
		t.Fatalf("expected not_found error page, got status %q kind %q", page.Status, page.ErrorKind)
	}
}

func TestGetPageClampsSize(t *testing.T) {
	r, _ := newTestReader(t, "a b c", -1)
	if got := r.GetPage(context.Background(), "t", "v", 0, 0).Pagination.PageSize; got != 200 {
		t.Fatalf("expected default page size, got %d", got)
	}
	if got := r.GetPage(context.Background(), "t", "v", 0, 10_000).Pagination.PageSize; got != 500 {
		t.Fatalf("expected clamped page size, got %d", got)
	}
}

func TestInvalidateRetokenizes(t *testing.T) {
	r, st := newTestReader(t, "one two", 0)
	ctx := context.Background()
	if got := r.GetPage(ctx, "t", "v", 0, 10).Pagination.TotalWords; got != 2 {
		t.Fatalf("expected 2 words, got %d", got)
	}
	if err := st.SetTrackSourceText(ctx, "t", "one two three"); err != nil {
		t.Fatalf("SetTrackSourceText failed: %v", err)
	}
	if got := r.GetPage(ctx, "t", "v", 0, 10).Pagination.TotalWords; got != 2 {
		t.Fatalf("expected cached document, got %d words", got)
	}
	r.Invalidate("t")
	if got := r.GetPage(ctx, "t", "v", 0, 10).Pagination.TotalWords; got != 3 {
		t.Fatalf("expected retokenized document, got %d words", got)
	}
}
