package ingest

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"readalong/internal/logging"
	"readalong/internal/reader"
	"readalong/internal/services"
	"readalong/internal/store"
	"readalong/internal/textutil"
	"readalong/internal/timing"
	"readalong/internal/workpool"
)

const (
	// alignWindow bounds how many source words are skipped while looking for
	// the next synthesized word.
	alignWindow = 8
	// lowSimilarity triggers a warning that the voice may belong to other text.
	lowSimilarity = 0.5
)

// Ingest replaces every timing row of (trackID, voiceID) with raw. An empty
// raw list clears the voice's timings.
func (s *Service) Ingest(ctx context.Context, trackID, voiceID string, raw []RawWord) (Summary, error) {
	if voiceID == "" {
		return Summary{}, services.Wrap(services.ErrValidation, "ingest", "ingest", "voice id is required", nil)
	}
	if err := validateIDs(trackID, voiceID); err != nil {
		return Summary{}, err
	}
	for i, w := range raw {
		if err := validateRaw(i, w); err != nil {
			return Summary{}, err
		}
	}

	ctx = services.WithVoiceID(services.WithTrackID(ctx, trackID), voiceID)
	logger := logging.WithContext(ctx, s.logger)

	source, err := s.store.TrackSourceText(ctx, trackID)
	if err != nil {
		return Summary{}, err
	}

	unlock, err := s.lock(ctx, trackID, voiceID, "ingest")
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	sorted := slices.Clone(raw)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	words, unmatched := s.align(source, sorted)
	rows, summary, err := s.pack(ctx, words)
	if err != nil {
		return Summary{}, err
	}
	summary.TrackID = trackID
	summary.VoiceID = voiceID
	summary.UnmatchedWords = unmatched

	if source != "" && len(words) > 0 {
		texts := make([]string, len(words))
		for i, w := range words {
			texts[i] = w.Word
		}
		sourceFP, voiceFP := textutil.NewFingerprint(source), textutil.NewFingerprintFromWords(texts)
		summary.TextSimilarity = textutil.CosineSimilarity(sourceFP, voiceFP)
		if summary.TextSimilarity < lowSimilarity {
			logging.WarnWithContext(logger, "voice transcript diverges from source text", "ingest_low_similarity",
				logging.Float64("similarity", summary.TextSimilarity),
				logging.Int("source_terms", sourceFP.TermCount()),
				logging.Int("voice_terms", voiceFP.TermCount()),
				logging.String(logging.FieldErrorHint, "check that the voice was synthesized from this track's text"),
				logging.String(logging.FieldImpact, "highlighted words may not match the page"),
			)
		}
	}

	if err := s.store.ReplaceWordTimings(ctx, trackID, voiceID, rows); err != nil {
		return Summary{}, err
	}
	if summary.Duration > 0 {
		if err := s.store.ExtendTrackDuration(ctx, trackID, summary.Duration); err != nil {
			return Summary{}, err
		}
	}
	s.invalidate(trackID, voiceID)

	ratios := make([]float64, 0, len(rows))
	for _, row := range rows {
		if r := row.CompressionRatio(); r > 0 {
			ratios = append(ratios, r)
		}
	}
	s.metrics.ObserveIngest(summary.Words, ratios...)

	logger.Info("word timings ingested",
		logging.String(logging.FieldEventType, "ingest_complete"),
		logging.Int("words", summary.Words),
		logging.Int("segments", summary.Segments),
		logging.Float64("duration", summary.Duration),
		logging.Int("unmatched_words", summary.UnmatchedWords),
	)
	return summary, nil
}

func validateRaw(i int, w RawWord) error {
	bad := func(format string, args ...any) error {
		return services.Wrap(services.ErrValidation, "ingest", "validate",
			fmt.Sprintf("word %d: ", i)+fmt.Sprintf(format, args...), nil)
	}
	switch {
	case strings.TrimSpace(w.Word) == "":
		return bad("empty text")
	case !finite(w.Start) || w.Start < 0:
		return bad("invalid start %v", w.Start)
	case !finite(w.End) || w.End < w.Start:
		return bad("end %v precedes start %v", w.End, w.Start)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// align converts sorted raw words into timing words, locating each word's
// byte offset in source. Words that cannot be matched inherit the offset of
// the next unconsumed source word. Without source text every offset is zero.
func (s *Service) align(source string, raw []RawWord) ([]timing.Word, int) {
	spans := reader.WordSpans(source)
	words := make([]timing.Word, len(raw))
	cursor := 0
	unmatched := 0
	for i, r := range raw {
		offset := len(source)
		matched := false
		for j := cursor; j < len(spans) && j < cursor+alignWindow; j++ {
			if reader.SameWord(source[spans[j][0]:spans[j][1]], r.Word) {
				offset = spans[j][0]
				cursor = j + 1
				matched = true
				break
			}
		}
		if !matched && len(spans) > 0 {
			unmatched++
			if cursor < len(spans) {
				offset = spans[cursor][0]
				cursor++
			}
		}

		seg, segOffset := s.segmentOf(r.Start)
		words[i] = timing.Word{
			Word:          r.Word,
			StartTime:     r.Start,
			EndTime:       r.End,
			TextOffset:    offset,
			SegmentIndex:  timing.IntPtr(seg),
			SegmentOffset: segOffset,
			WordIndex:     i,
		}
	}
	return words, unmatched
}

// pack splits words by segment and encodes each bucket.
func (s *Service) pack(ctx context.Context, words []timing.Word) ([]store.WordTimingRow, Summary, error) {
	var (
		order   []int
		buckets = make(map[int][]timing.Word)
	)
	for _, w := range words {
		seg := *w.SegmentIndex
		if _, ok := buckets[seg]; !ok {
			order = append(order, seg)
		}
		buckets[seg] = append(buckets[seg], w)
	}
	sort.Ints(order)

	rows := make([]store.WordTimingRow, len(order))
	summary := Summary{Words: len(words), Segments: len(order)}
	for i, seg := range order {
		bucket := buckets[seg]
		enc, err := workpool.Do(ctx, s.pool, func() (timing.Encoded, error) {
			return s.codec.Pack(bucket)
		})
		if err != nil {
			return nil, Summary{}, err
		}
		rows[i] = store.WordTimingRow{
			SegmentIndex:  seg,
			FormatVersion: int(timing.VersionCurrent),
			Blob:          enc.Blob,
			RawSize:       enc.RawSize,
			Aggregates:    enc.Aggregates,
		}
		summary.RawBytes += enc.RawSize
		summary.StoredBytes += len(enc.Blob)
		summary.Duration = math.Max(summary.Duration, enc.LastWordTime)
	}
	summary.CompressionRatio = timing.CompressionRatio(summary.RawBytes, summary.StoredBytes)
	return rows, summary, nil
}
