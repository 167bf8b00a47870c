package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"readalong/internal/config"
	"readalong/internal/logging"
	"readalong/internal/metrics"
	"readalong/internal/services"
	"readalong/internal/timing"
	"readalong/internal/words"
	"readalong/internal/workpool"
)

// Page statuses.
const (
	StatusOK             = "ok"
	StatusPageOutOfRange = "page_out_of_range"
	StatusMisaligned     = "misaligned"
	StatusNoTimings      = "no_timings"
	StatusError          = "error"
)

const (
	defaultPageSize       = 200
	defaultMaxPageSize    = 2000
	defaultTextCacheSize  = 128
	driftWarningThreshold = 0.1
)

// Pagination describes where a page sits in the word sequence. StartIndex is
// inclusive and EndIndex exclusive.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalWords int  `json:"total_words"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
	StartIndex int  `json:"start_index"`
	EndIndex   int  `json:"end_index"`
}

// Page is one read-along page.
type Page struct {
	Words      []timing.Word `json:"words"`
	Tokens     []Token       `json:"tokens"`
	Pagination Pagination    `json:"pagination"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	ErrorKind  string        `json:"error_kind,omitempty"`
}

// WordCounter supplies total timed word counts, usually a cached index.
type WordCounter interface {
	TotalWordCount(ctx context.Context, trackID, voiceID string) (int, error)
}

// Options configures a Reader.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	TextCacheSize   int
	TextCacheTTL    time.Duration
}

// OptionsFromConfig maps the reader config section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DefaultPageSize: cfg.Reader.DefaultPageSize,
		MaxPageSize:     cfg.Reader.MaxPageSize,
		TextCacheSize:   cfg.Reader.TextCacheSize,
		TextCacheTTL:    cfg.TextCacheTTL(),
	}
}

// Reader builds pages from a word source.
type Reader struct {
	src     words.Source
	counter WordCounter
	pool    *workpool.Pool
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	docs  *expirable.LRU[string, *Document]
	group singleflight.Group
}

// New builds a Reader. counter may be nil, in which case counts come straight
// from src.
func New(src words.Source, counter WordCounter, pool *workpool.Pool, opts Options, logger *slog.Logger, m *metrics.Metrics) *Reader {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = defaultMaxPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	if opts.TextCacheSize <= 0 {
		opts.TextCacheSize = defaultTextCacheSize
	}
	return &Reader{
		src:     src,
		counter: counter,
		pool:    pool,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "reader"),
		metrics: m,
		docs:    expirable.NewLRU[string, *Document](opts.TextCacheSize, nil, opts.TextCacheTTL),
	}
}

// GetPage returns the requested page. It never returns an error; failures are
// reported through Status and Error. A pageSize <= 0 selects the default and
// sizes above the maximum are clamped.
func (r *Reader) GetPage(ctx context.Context, trackID, voiceID string, page, pageSize int) Page {
	p := r.getPage(ctx, trackID, voiceID, page, pageSize)
	r.metrics.ObservePage(p.Status)
	return p
}

func (r *Reader) getPage(ctx context.Context, trackID, voiceID string, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = r.opts.DefaultPageSize
	}
	pageSize = min(pageSize, r.opts.MaxPageSize)
	out := Page{
		Words:      []timing.Word{},
		Tokens:     []Token{},
		Pagination: Pagination{Page: page, PageSize: pageSize},
	}
	logger := logging.WithContext(ctx, r.logger).With(
		logging.Track(trackID),
		logging.Voice(voiceID),
	)

	doc, err := r.document(ctx, trackID)
	if err != nil {
		return failed(out, err)
	}

	timed, timingErr := r.countTimed(ctx, trackID, voiceID)
	if timingErr != nil && !errors.Is(timingErr, services.ErrUnavailable) {
		return failed(out, timingErr)
	}

	total := timed
	untimedOnly := timingErr != nil || timed == 0
	if untimedOnly {
		total = doc.WordCount()
	}
	pg := paginate(page, pageSize, total)
	out.Pagination = pg
	if page < 0 || (page >= pg.TotalPages && !(page == 0 && total == 0)) {
		out.Status = StatusPageOutOfRange
		return out
	}

	var fetched []timing.Word
	if !untimedOnly {
		fetched, err = words.FetchRange(ctx, r.src, trackID, voiceID, pg.StartIndex, pg.EndIndex-pg.StartIndex)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrUnavailable):
			timingErr = err
			untimedOnly = true
			fetched = nil
		default:
			return failed(out, err)
		}
	}
	out.Words = append(out.Words, fetched...)
	out.Tokens = pageTokens(doc, fetched, pg, page == pg.TotalPages-1 || total == 0)

	switch {
	case untimedOnly:
		out.Status = StatusNoTimings
		if timingErr != nil {
			out.Error = timingErr.Error()
		}
	case timed != doc.WordCount():
		out.Status = StatusMisaligned
		out.Error = fmt.Sprintf("%d timed words for %d source words", timed, doc.WordCount())
		logging.WarnWithContext(logger, "timed word count differs from source text", "reader_misaligned",
			logging.Int("page", page),
			logging.Int("timed_words", timed),
			logging.Int("source_words", doc.WordCount()),
			logging.String(logging.FieldErrorHint, "re-ingest timings for this voice"),
			logging.String(logging.FieldImpact, "some words on this page are shown without highlighting"),
		)
	default:
		out.Status = StatusOK
		r.checkDrift(logger, doc, fetched, pg)
	}
	return out
}

func failed(out Page, err error) Page {
	out.Status = StatusError
	out.Error = err.Error()
	out.ErrorKind = services.Kind(err)
	return out
}

func (r *Reader) countTimed(ctx context.Context, trackID, voiceID string) (int, error) {
	if r.counter != nil {
		return r.counter.TotalWordCount(ctx, trackID, voiceID)
	}
	return r.src.CountWords(ctx, trackID, voiceID)
}

// document returns the cached tokenization of a track's source text.
func (r *Reader) document(ctx context.Context, trackID string) (*Document, error) {
	if doc, ok := r.docs.Get(trackID); ok {
		r.metrics.CacheHit("documents")
		return doc, nil
	}
	r.metrics.CacheMiss("documents")
	v, err, _ := r.group.Do(trackID, func() (any, error) {
		text, err := r.src.SourceText(ctx, trackID)
		if err != nil {
			return nil, err
		}
		doc, err := workpool.Do(ctx, r.pool, func() (*Document, error) {
			return Tokenize(text), nil
		})
		if err != nil {
			return nil, err
		}
		r.docs.Add(trackID, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Invalidate drops the cached tokenization of a track.
func (r *Reader) Invalidate(trackID string) {
	r.docs.Remove(trackID)
}

// Clear empties the document cache.
func (r *Reader) Clear() {
	r.docs.Purge()
}

func paginate(page, pageSize, total int) Pagination {
	totalPages := (total + pageSize - 1) / pageSize
	pg := Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalWords: total,
		TotalPages: totalPages,
		HasPrev:    page > 0,
		HasNext:    page+1 < totalPages,
	}
	if page >= 0 && page < totalPages {
		pg.StartIndex = page * pageSize
		pg.EndIndex = min(pg.StartIndex+pageSize, total)
	}
	return pg
}

// pageTokens copies the tokens that belong to the page and stamps timing onto
// its word tokens. last selects the page that also owns trailing text and any
// source words beyond the paged range.
func pageTokens(doc *Document, fetched []timing.Word, pg Pagination, last bool) []Token {
	from := 0
	if pg.Page > 0 {
		if pg.StartIndex >= doc.WordCount() {
			return []Token{}
		}
		from = doc.WordTokens[pg.StartIndex]
	}
	to := len(doc.Tokens)
	if !last && pg.EndIndex < doc.WordCount() {
		to = doc.WordTokens[pg.EndIndex]
	}

	out := make([]Token, 0, to-from)
	wordIdx := pg.StartIndex
	for _, tok := range doc.Tokens[from:to] {
		if tok.Type == TokenWord {
			global := wordIdx
			tok.GlobalIndex = &global
			if k := wordIdx - pg.StartIndex; k >= 0 && k < len(fetched) {
				w := fetched[k]
				tok.HasTimings = true
				tok.StartTime = &w.StartTime
				tok.EndTime = &w.EndTime
			}
			wordIdx++
		}
		out = append(out, tok)
	}
	return out
}

func (r *Reader) checkDrift(logger *slog.Logger, doc *Document, fetched []timing.Word, pg Pagination) {
	if len(fetched) == 0 {
		return
	}
	source := make([]string, 0, len(fetched))
	timed := make([]string, 0, len(fetched))
	for i, w := range fetched {
		k := pg.StartIndex + i
		if k >= doc.WordCount() {
			break
		}
		source = append(source, doc.Tokens[doc.WordTokens[k]].Text)
		timed = append(timed, w.Word)
	}
	drift := countDrift(source, timed)
	if drift == 0 {
		return
	}
	attrs := []logging.Attr{
		logging.Int("page", pg.Page),
		logging.Int("drifted_words", drift),
		logging.Int("compared_words", len(source)),
	}
	if float64(drift) > driftWarningThreshold*float64(len(source)) {
		logging.WarnWithContext(logger, "timed words diverge from source text", "reader_text_drift",
			append(attrs,
				logging.String(logging.FieldErrorHint, "confirm the voice was synthesized from the current text"),
				logging.String(logging.FieldImpact, "highlighting may land on the wrong word"),
			)...)
		return
	}
	logger.Debug("minor transcript drift", logging.Args(attrs...)...)
}
