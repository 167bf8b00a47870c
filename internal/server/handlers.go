package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"readalong/internal/api"
	"readalong/internal/ingest"
	"readalong/internal/logging"
	"readalong/internal/services"
)

const maxIngestBody = 64 << 20

func (s *Server) routes() {
	const voice = "/api/tracks/{track}/voices/{voice}"
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", s.app.Metrics.Handler())
	s.mux.HandleFunc("GET /api/tracks", s.handleTracks)
	s.mux.HandleFunc("GET /api/tracks/{track}", s.handleTrack)
	s.mux.HandleFunc("GET "+voice+"/lookup", s.handleLookup)
	s.mux.HandleFunc("GET "+voice+"/page", s.handlePage)
	s.mux.HandleFunc("POST "+voice+"/timings", s.handleIngest)
	s.mux.HandleFunc("POST "+voice+"/playlist", s.handleEnsurePlaylist)
	s.mux.HandleFunc("GET "+voice+"/playlist.m3u8", s.handleServePlaylist)
	s.mux.HandleFunc("GET "+voice+"/playlist/status", s.handlePlaylistStatus)
	s.mux.HandleFunc("DELETE "+voice+"/playlist", s.handleCleanup)
}

func pairFromRequest(r *http.Request) (*http.Request, string, string) {
	trackID, voiceID := r.PathValue("track"), r.PathValue("voice")
	ctx := services.WithVoiceID(services.WithTrackID(r.Context(), trackID), voiceID)
	return r.WithContext(ctx), trackID, voiceID
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Store.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "degraded", Database: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok", Database: "ok"})
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.app.Tracks.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TrackListResponse{Tracks: tracks})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	detail, err := s.app.Tracks.Describe(r.Context(), r.PathValue("track"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	r, trackID, voiceID := pairFromRequest(r)
	raw := strings.TrimSpace(r.URL.Query().Get("t"))
	if raw == "" {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "lookup", "query parameter t is required", nil))
		return
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "lookup", "query parameter t must be a number", nil))
		return
	}
	s.writeJSON(w, http.StatusOK, s.app.Index.Lookup(r.Context(), trackID, voiceID, t))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	r, trackID, voiceID := pairFromRequest(r)
	query := r.URL.Query()
	page, err := intParam(query.Get("page"))
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "page", "query parameter page must be an integer", nil))
		return
	}
	size, err := intParam(query.Get("page_size"))
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "page", "query parameter page_size must be an integer", nil))
		return
	}
	s.writeJSON(w, http.StatusOK, s.app.Reader.GetPage(r.Context(), trackID, voiceID, page, size))
}

func intParam(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r, trackID, voiceID := pairFromRequest(r)
	var raw []ingest.RawWord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody)).Decode(&raw); err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "ingest", "decode request body", err))
		return
	}
	summary, err := s.app.Ingest.Ingest(r.Context(), trackID, voiceID, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEnsurePlaylist(w http.ResponseWriter, r *http.Request) {
	r, trackID, voiceID := pairFromRequest(r)
	exists, err := s.app.Playlists.EnsurePlaylist(r.Context(), trackID, voiceID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := api.EnsureResponse{TrackID: trackID, VoiceID: voiceID, Exists: exists}
	if exists {
		resp.PlaylistPath, _ = s.app.Playlists.PlaylistPath(trackID, voiceID)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleServePlaylist(w http.ResponseWriter, r *http.Request) {
	r, trackID, voiceID := pairFromRequest(r)
	if _, err := s.app.Playlists.EnsurePlaylist(r.Context(), trackID, voiceID); err != nil {
		s.writeError(w, r, err)
		return
	}
	path, err := s.app.Playlists.PlaylistPath(trackID, voiceID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		s.writeError(w, r, services.Wrap(services.ErrNotFound, "api", "playlist", "no audio segments for voice", nil))
		return
	}
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrIOFailure, "api", "playlist", "open playlist", err))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrIOFailure, "api", "playlist", "stat playlist", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handlePlaylistStatus(w http.ResponseWriter, r *http.Request) {
	r, trackID, voiceID := pairFromRequest(r)
	status, err := s.app.Playlists.Status(r.Context(), trackID, voiceID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromPlaylistStatus(trackID, voiceID, status))
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	r, trackID, voiceID := pairFromRequest(r)
	result, err := s.app.Playlists.Cleanup(r.Context(), trackID, voiceID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromCleanup(trackID, voiceID, result))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.Kind(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.String("error_kind", kind),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, errorBody(r, err.Error(), kind))
}

func errorBody(r *http.Request, message, kind string) api.ErrorResponse {
	id, _ := services.RequestIDFromContext(r.Context())
	return api.ErrorResponse{Error: message, Kind: kind, RequestID: id}
}

func statusForKind(kind string) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindMisaligned:
		return http.StatusConflict
	case services.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
