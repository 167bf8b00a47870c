package ingest

import (
	"context"
	"log/slog"
	"math"

	"readalong/internal/config"
	"readalong/internal/keylock"
	"readalong/internal/logging"
	"readalong/internal/metrics"
	"readalong/internal/services"
	"readalong/internal/store"
	"readalong/internal/textutil"
	"readalong/internal/timing"
	"readalong/internal/workpool"
)

// InvalidateFunc evicts cached reads for a pair. An empty voiceID means every
// voice of the track.
type InvalidateFunc func(trackID, voiceID string)

// Service writes timings and text segments.
type Service struct {
	store       *store.Store
	codec       *timing.Codec
	segDur      float64
	locks       *keylock.FileLocker
	pool        *workpool.Pool
	logger      *slog.Logger
	metrics     *metrics.Metrics
	invalidates []InvalidateFunc
}

// Option customizes a Service.
type Option func(*Service)

// WithInvalidation registers a cache eviction hook run after each write.
func WithInvalidation(fn InvalidateFunc) Option {
	return func(s *Service) {
		if fn != nil {
			s.invalidates = append(s.invalidates, fn)
		}
	}
}

// WithPool routes packing through pool.
func WithPool(pool *workpool.Pool) Option {
	return func(s *Service) { s.pool = pool }
}

// WithMetrics records ingest metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New builds a Service from config.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Service, error) {
	codec, err := timing.NewCodec(cfg.Timing.CompressionLevel)
	if err != nil {
		return nil, err
	}
	s := &Service{
		store:  st,
		codec:  codec,
		segDur: cfg.Timing.SegmentDurationSeconds,
		locks:  keylock.NewFileLocker(cfg.LockDir()),
		logger: logging.NewComponentLogger(logger, "ingest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) lock(ctx context.Context, trackID, voiceID, purpose string) (func(), error) {
	unlock, err := s.locks.Lock(ctx, trackID+"@"+voiceID+"."+purpose)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "ingest", purpose, "acquire writer lock", err)
	}
	return unlock, nil
}

func (s *Service) invalidate(trackID, voiceID string) {
	for _, fn := range s.invalidates {
		fn(trackID, voiceID)
	}
}

func validateIDs(trackID, voiceID string) error {
	if err := textutil.ValidateID("track", trackID); err != nil {
		return services.Wrap(services.ErrValidation, "ingest", "validate", err.Error(), nil)
	}
	if voiceID == "" {
		return nil
	}
	if err := textutil.ValidateID("voice", voiceID); err != nil {
		return services.Wrap(services.ErrValidation, "ingest", "validate", err.Error(), nil)
	}
	return nil
}

func (s *Service) segmentOf(start float64) (int, float64) {
	seg := int(math.Floor(start / s.segDur))
	return seg, start - float64(seg)*s.segDur
}
