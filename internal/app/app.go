// Package app assembles the read-along services around one store so the
// server and the CLI share the same wiring.
package app

import (
	"context"
	"errors"
	"log/slog"

	"readalong/internal/api"
	"readalong/internal/config"
	"readalong/internal/ingest"
	"readalong/internal/logging"
	"readalong/internal/metrics"
	"readalong/internal/playlist"
	"readalong/internal/reader"
	"readalong/internal/store"
	"readalong/internal/timingindex"
	"readalong/internal/words"
	"readalong/internal/workpool"
)

// App owns the store and every service built on it.
type App struct {
	Config    *config.Config
	Store     *store.Store
	Pool      *workpool.Pool
	Metrics   *metrics.Metrics
	Source    *words.StoreSource
	Index     *timingindex.Index
	Reader    *reader.Reader
	Playlists *playlist.Builder
	Ingest    *ingest.Service
	Tracks    *api.TrackService
}

// Open opens the store described by cfg and builds the services.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return a, nil
}

// New builds the services around an open store. Ingest writes evict the
// timing index and reader caches for the affected pair.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &App{
		Config:  cfg,
		Store:   st,
		Pool:    workpool.New(cfg.Workers.CPU),
		Metrics: metrics.New(),
		Tracks:  api.NewTrackService(st),
	}
	a.Source = words.NewStoreSource(st, a.Pool, logger, a.Metrics)
	a.Index = timingindex.New(a.Source, timingindex.OptionsFromConfig(cfg), logger, a.Metrics)
	a.Reader = reader.New(a.Source, a.Index, a.Pool, reader.OptionsFromConfig(cfg), logger, a.Metrics)

	playlists, err := playlist.New(playlist.OptionsFromConfig(cfg), st, logger, a.Metrics)
	if err != nil {
		return nil, err
	}
	a.Playlists = playlists

	ing, err := ingest.New(cfg, st, logger,
		ingest.WithPool(a.Pool),
		ingest.WithMetrics(a.Metrics),
		ingest.WithInvalidation(a.invalidate),
	)
	if err != nil {
		return nil, err
	}
	a.Ingest = ing
	return a, nil
}

func (a *App) invalidate(trackID, voiceID string) {
	a.Index.Invalidate(trackID, voiceID)
	a.Reader.Invalidate(trackID)
}

// DeleteTrack removes a track, its rows and every voice's audio files.
// Audio cleanup failures are returned alongside a successful row delete.
func (a *App) DeleteTrack(ctx context.Context, trackID string) (bool, []playlist.CleanupResult, error) {
	voices, err := a.Store.TrackVoices(ctx, trackID)
	if err != nil {
		return false, nil, err
	}
	results := make([]playlist.CleanupResult, 0, len(voices))
	var cleanupErr error
	for _, voice := range voices {
		res, err := a.Playlists.Cleanup(ctx, trackID, voice)
		if err != nil {
			cleanupErr = errors.Join(cleanupErr, err)
			continue
		}
		results = append(results, res)
	}
	deleted, err := a.Store.DeleteTrack(ctx, trackID)
	if err != nil {
		return false, results, err
	}
	a.invalidate(trackID, "")
	return deleted, results, cleanupErr
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
