package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hyperjump/frontdesk/internal/grounding"
	"github.com/hyperjump/frontdesk/internal/indexer"
	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/internal/storage"
	"github.com/hyperjump/frontdesk/pkg/utils"
	"go.uber.org/zap"
)

// maxRequestBytes bounds JSON request bodies.
const maxRequestBytes = 64 << 10

var errDatasetNotAllowed = errors.New("dataset_path is not a configured dataset")

type contextRequest struct {
	Utterance   string `json:"utterance"`
	DatasetPath string `json:"dataset_path,omitempty"`
	MaxRows     int    `json:"max_rows,omitempty"`
	// Force skips the booking-vocabulary check.
	Force bool `json:"force,omitempty"`
}

type contextResponse struct {
	RequestID    string `json:"request_id"`
	ShouldGround bool   `json:"should_ground"`
	Context      string `json:"context"`
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if req.Utterance == "" {
		s.respondError(w, http.StatusBadRequest, "utterance is required")
		return
	}
	path, err := s.datasetPath(req.DatasetPath)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := s.grounding.Ground(r.Context(), grounding.Request{
		Utterance:   req.Utterance,
		DatasetPath: path,
		MaxRows:     req.MaxRows,
		Force:       req.Force,
	})
	resp := contextResponse{
		RequestID:    RequestID(r.Context()),
		ShouldGround: out.ShouldGround,
		Context:      out.Context,
	}
	s.logger.Debug("context request",
		zap.String("request_id", resp.RequestID),
		zap.String("utterance", utils.Truncate(req.Utterance, 120)),
		zap.Bool("should_ground", resp.ShouldGround),
	)
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.Query
	if !s.decodeJSON(w, r, &query, false) {
		return
	}
	path, err := s.datasetPath(query.SourcePath)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query.SourcePath = path
	s.logger.Debug("search request", zap.String("query", query.Text), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

type indexRequest struct {
	DatasetPath string `json:"dataset_path,omitempty"`
	Force       bool   `json:"force,omitempty"`
}

// indexTarget decodes an optional indexRequest and resolves its dataset. It writes the
// error response itself and returns ok=false on failure.
func (s *Server) indexTarget(w http.ResponseWriter, r *http.Request) (indexRequest, string, bool) {
	var req indexRequest
	if !s.decodeJSON(w, r, &req, true) {
		return req, "", false
	}
	path, err := s.datasetPath(req.DatasetPath)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return req, "", false
	}
	if s.indexer == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no embedding credential configured")
		return req, "", false
	}
	return req, path, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	req, path, ok := s.indexTarget(w, r)
	if !ok {
		return
	}
	var (
		report *indexer.Report
		err    error
	)
	if req.Force {
		report, err = s.indexer.Rebuild(r.Context(), path)
	} else {
		report, err = s.indexer.EnsureIndex(r.Context(), path)
	}
	if err != nil {
		s.logger.Error("indexing failed", zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if s.watch != nil && report.Outcome != indexer.OutcomeMissing {
		if err := s.watch.AddFile(path); err != nil {
			s.logger.Warn("could not watch dataset", zap.String("path", path), zap.Error(err))
		}
	}
	status := http.StatusOK
	if report.Outcome == indexer.OutcomeRebuilt {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, report)
}

func (s *Server) handleDropIndex(w http.ResponseWriter, r *http.Request) {
	_, path, ok := s.indexTarget(w, r)
	if !ok {
		return
	}
	if err := s.indexer.Drop(r.Context(), path); err != nil {
		s.logger.Error("dropping index failed", zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// The default dataset stays watched; it is rebuilt on the next search.
	if s.watch != nil && path != s.config.Dataset.Path {
		if err := s.watch.RemoveFile(path); err != nil {
			s.logger.Warn("could not unwatch dataset", zap.String("path", path), zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "dropped", "path": path})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sources, err := s.storage.ListSources(ctx)
	if err != nil {
		s.logger.Error("status: list sources failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sources == nil {
		sources = []storage.SourceStats{}
	}
	resp := map[string]interface{}{
		"grounding_available": s.engine != nil && s.engine.Available(),
		"sources":             sources,
		"uptime_seconds":      int64(time.Since(s.started).Seconds()),
	}

	configInfo := map[string]interface{}{
		"embedding_provider": s.config.Embedding.Provider,
		"embedding_model":    s.config.Embedding.Model,
		"dataset_path":       s.config.Dataset.Path,
		"database_path":      s.config.Storage.DatabasePath,
		"max_rows":           s.config.Grounding.MaxRows,
		"redis_cache":        s.config.Embedding.Redis.Addr != "",
	}
	resp["config"] = configInfo

	if s.indexer != nil {
		if at, ok := s.indexer.IndexedAt(ctx, s.config.Dataset.Path); ok {
			resp["indexed_at"] = at.Format(time.RFC3339)
		}
	}
	if diskBytes, err := storage.DatabaseSizeBytes(s.config.Storage.DatabasePath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	if s.watch != nil {
		resp["watched_files"] = s.watch.Files()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into v. An empty body is accepted when allowEmpty
// is set. On failure it writes the error response and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	s.respondError(w, http.StatusBadRequest, "invalid request body")
	return false
}

// datasetPath maps a requested dataset onto the configured ones. "" selects dataset.path;
// anything else must name dataset.path or an entry of dataset.allowed_paths.
func (s *Server) datasetPath(requested string) (string, error) {
	if requested == "" {
		return s.config.Dataset.Path, nil
	}
	want, err := indexer.SourceKey(requested)
	if err != nil {
		return "", errDatasetNotAllowed
	}
	for _, p := range s.config.Dataset.Paths() {
		if key, err := indexer.SourceKey(p); err == nil && key == want {
			return p, nil
		}
	}
	return "", errDatasetNotAllowed
}
