package ingest

import (
	"context"
	"strings"

	"readalong/internal/logging"
	"readalong/internal/reader"
	"readalong/internal/services"
	"readalong/internal/store"
	"readalong/internal/textutil"
)

const (
	// DefaultChunkWords is the word count after which a chunk closes at the
	// next paragraph break.
	DefaultChunkWords = 200
	// SpeechWordsPerSecond estimates narration pace for chunk durations.
	SpeechWordsPerSecond = 2.5

	previewLimit = 80
)

// Chunk is one synthesis unit of source text.
type Chunk struct {
	Text      string
	WordCount int
}

// SplitChunks cuts text into paragraph-aligned chunks of roughly maxWords
// words. A paragraph longer than twice maxWords is cut at a sentence end.
// Joining the chunk texts reproduces text.
func SplitChunks(text string, maxWords int) []Chunk {
	if maxWords <= 0 {
		maxWords = DefaultChunkWords
	}
	var (
		chunks []Chunk
		b      strings.Builder
		words  int
	)
	flush := func() {
		if b.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{Text: b.String(), WordCount: words})
		b.Reset()
		words = 0
	}
	for _, tok := range reader.Tokenize(text).Tokens {
		b.WriteString(tok.Text)
		switch tok.Type {
		case reader.TokenWord:
			words++
		case reader.TokenParagraphBreak:
			if words >= maxWords {
				flush()
			}
		case reader.TokenPunctuation:
			if words >= 2*maxWords && strings.ContainsAny(tok.Text, ".!?") {
				flush()
			}
		}
	}
	flush()
	return chunks
}

// ChunkText replaces the track's text segments with paragraph-aligned chunks
// of text and stores text as the track's source. Segment times are estimates
// derived from word counts.
func (s *Service) ChunkText(ctx context.Context, trackID, text string) ([]store.TextSegment, error) {
	if err := validateIDs(trackID, ""); err != nil {
		return nil, err
	}
	ctx = services.WithTrackID(ctx, trackID)

	chunks := SplitChunks(text, DefaultChunkWords)
	segs := make([]store.TextSegment, len(chunks))
	var clock float64
	for i, c := range chunks {
		blob, err := store.CompressText(c.Text)
		if err != nil {
			return nil, services.Wrap(services.ErrIOFailure, "ingest", "chunk text", "compress segment", err)
		}
		dur := float64(c.WordCount) / SpeechWordsPerSecond
		segs[i] = store.TextSegment{
			TrackID:      trackID,
			SegmentIndex: i,
			StartTime:    clock,
			EndTime:      clock + dur,
			Duration:     dur,
			TextBlob:     blob,
			WordCount:    c.WordCount,
			PreviewText:  textutil.Preview(c.Text, previewLimit),
		}
		clock += dur
	}

	if err := s.store.ReplaceTextSegments(ctx, trackID, segs); err != nil {
		return nil, err
	}
	if err := s.store.SetTrackSourceText(ctx, trackID, text); err != nil {
		return nil, err
	}
	s.invalidate(trackID, "")

	logging.WithContext(ctx, s.logger).Info("source text chunked",
		logging.String(logging.FieldEventType, "text_chunked"),
		logging.Int("segments", len(segs)),
		logging.Float64("estimated_duration", clock),
	)
	return segs, nil
}
