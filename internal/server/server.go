// Package server implements the HTTP ingestion surface for netvault.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/netvault/netvault/internal/config"
	"github.com/netvault/netvault/internal/store"
	"github.com/netvault/netvault/pkg/bytesize"
)

// detailResponse is the body shape for every upload response, success and
// failure alike.
type detailResponse struct {
	Detail string `json:"detail"`
}

// Server handles artifact upload requests over HTTP.
type Server struct {
	cfg       *config.Config
	store     *store.Store
	metrics   *Metrics
	maxUpload int64
	mux       *http.ServeMux
}

// New creates the upload server. If metrics is nil, metrics will not be
// recorded.
func New(cfg *config.Config, st *store.Store, metrics *Metrics) (*Server, error) {
	maxUpload, err := cfg.MaxUploadBytes()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:       cfg,
		store:     st,
		metrics:   metrics,
		maxUpload: maxUpload,
		mux:       http.NewServeMux(),
	}
	srv.setupRoutes()
	return srv, nil
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/upload_net/", s.withAuth(s.handleUpload))

	if s.cfg.Metrics.Enabled {
		s.mux.Handle("/metrics", promhttp.Handler())
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the upload server.
func (s *Server) ListenAndServe() error {
	log.Info().Str("listen", s.cfg.Listen).Msg("starting upload server")
	return http.ListenAndServe(s.cfg.Listen, s)
}

// withAuth checks the bearer token when one is configured. An empty
// auth_token disables authentication.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.cfg.AuthToken == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			s.writeDetail(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.writeDetail(w, http.StatusUnauthorized, "invalid authorization header")
			return
		}

		if parts[1] != s.cfg.AuthToken {
			s.writeDetail(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleUpload ingests one artifact from a multipart upload. The pipeline is
// strictly linear: validate the filename, write compressed, verify the
// stored content. Each failure mode maps to one terminal status; nothing is
// retried.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := "committed"
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordUpload(outcome, time.Since(start).Seconds())
		}
	}()

	if r.Method != http.MethodPost {
		outcome = "bad_request"
		s.writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}

	file, header, err := r.FormFile("upload")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			outcome = "too_large"
			detail := fmt.Sprintf("Upload exceeds maximum size %s", bytesize.Format(s.maxUpload))
			log.Error().Err(err).Msg(detail)
			s.writeDetail(w, http.StatusRequestEntityTooLarge, detail)
			return
		}
		// A part without a filename is parsed as a plain form value, so
		// both an absent part and an empty filename end up here.
		outcome = "missing_filename"
		detail := "No filename provided in the upload"
		log.Error().Err(err).Msg(detail)
		s.writeDetail(w, http.StatusBadRequest, detail)
		return
	}
	defer func() { _ = file.Close() }()

	filename := header.Filename
	n, err := s.store.Ingest(r.Context(), filename, file)
	if err != nil {
		outcome = s.rejectUpload(w, filename, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordBytes(n)
	}
	s.writeDetail(w, http.StatusCreated, "File uploaded successfully")
}

// rejectUpload maps a pipeline error to its response and returns the outcome
// label for metrics. Failure details echo the offending filename; pattern
// mismatches include the expected pattern text.
func (s *Server) rejectUpload(w http.ResponseWriter, filename string, err error) string {
	var (
		outcome string
		status  int
		detail  string
	)

	switch {
	case errors.Is(err, store.ErrMissingFilename):
		outcome = "missing_filename"
		status = http.StatusBadRequest
		detail = "No filename provided in the upload"
	case errors.Is(err, store.ErrInvalidName):
		outcome = "invalid_name"
		status = http.StatusBadRequest
		detail = fmt.Sprintf("Filename %s does not match expected pattern (%s)",
			filename, s.store.Naming().Pattern())
	case errors.Is(err, store.ErrAlreadyExists):
		outcome = "conflict"
		status = http.StatusConflict
		detail = fmt.Sprintf("File %s already uploaded", filename)
	case errors.Is(err, store.ErrReadFailed):
		outcome = "read_error"
		status = http.StatusInternalServerError
		detail = fmt.Sprintf("Failed to read uploaded file %s", filename)
	case errors.Is(err, store.ErrHashMismatch):
		outcome = "hash_mismatch"
		status = http.StatusInternalServerError
		detail = fmt.Sprintf("Invalid hash for uploaded file %s", filename)
	default:
		outcome = "write_error"
		status = http.StatusInternalServerError
		detail = fmt.Sprintf("Failed to write file %s", filename)
	}

	log.Error().Err(err).Str("filename", filename).Msg("upload rejected")
	s.writeDetail(w, status, detail)
	return outcome
}

// writeDetail writes the single-field JSON response body.
func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(detailResponse{Detail: detail}); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
