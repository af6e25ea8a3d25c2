package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/JakeFAU/og-parser/internal/config"
	"github.com/JakeFAU/og-parser/internal/metadata"
	"github.com/JakeFAU/og-parser/internal/metrics"
)

// Extractor produces metadata for a validated absolute URL.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (metadata.Result, error)
}

// IDGenerator issues request identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Hasher derives entity tags for successful responses.
type Hasher interface {
	ETag(data []byte) (string, error)
}

// Server wires HTTP handlers to the extractor.
type Server struct {
	router    chi.Router
	extractor Extractor
	idGen     IDGenerator
	hasher    Hasher
	cfg       config.Config
	logger    *zap.Logger
	openAPI   []byte
}

// Response is the JSON envelope returned by /api/parse.
type Response struct {
	Success bool             `json:"success"`
	Data    *metadata.Result `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// requestSlack is added on top of the fetch deadline before the server gives
// up on a handler.
const requestSlack = 5 * time.Second

// NewServer constructs a Server with middleware and routes.
func NewServer(
	extractor Extractor,
	idGen IDGenerator,
	hasher Hasher,
	cfg config.Config,
	logger *zap.Logger,
) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc, err := loadOpenAPI()
	if err != nil {
		return nil, err
	}
	s := &Server{
		extractor: extractor,
		idGen:     idGen,
		hasher:    hasher,
		cfg:       cfg,
		logger:    logger,
		openAPI:   doc,
	}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORS.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(cfg.FetchTimeout() + requestSlack))

	r.Get("/", s.openAPIDoc)
	r.Get("/openapi.json", s.openAPIDoc)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/parse", s.parse)
	})

	s.router = r
	return s, nil
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Stateless: nothing downstream to probe.
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) openAPIDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(s.openAPI); err != nil {
		s.logger.Error("openapi write failed", zap.Error(err))
	}
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if err := validateTargetURL(target); err != nil {
		metrics.ObserveExtraction("invalid_input")
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.extractor.Extract(r.Context(), target)
	if err != nil {
		ce := metadata.AsError(err)
		metrics.ObserveExtraction(string(ce.Kind))
		s.loggerFor(r).Info("parse failed",
			zap.String("url", target),
			zap.String("kind", string(ce.Kind)),
			zap.Int("status", ce.Status),
			zap.Error(ce.Unwrap()),
		)
		s.writeError(w, ce.Status, ce.Message)
		return
	}

	metrics.ObserveExtraction("success")
	s.writeResult(w, r, result)
}

// writeResult sends a cacheable success envelope. A matching If-None-Match
// yields 304 with no body.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, result metadata.Result) {
	payload, err := json.Marshal(Response{Success: true, Data: &result})
	if err != nil {
		s.loggerFor(r).Error("encode result failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, metadata.MsgUnknownFail)
		return
	}
	payload = append(payload, '\n')

	w.Header().Set("Cache-Control", s.cfg.CacheControl())
	if s.hasher != nil {
		tag, err := s.hasher.ETag(payload)
		if err != nil {
			s.loggerFor(r).Warn("etag failed", zap.Error(err))
		} else {
			w.Header().Set("ETag", tag)
			if etagMatches(r.Header.Get("If-None-Match"), tag) {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		s.loggerFor(r).Error("write JSON failed", zap.Error(err))
	}
}

func etagMatches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}

var (
	errMissingURL        = errors.New("missing required query parameter: url")
	errInvalidURL        = errors.New("url must be a valid absolute URL")
	errUnsupportedScheme = errors.New("url scheme must be http or https")
)

func validateTargetURL(raw string) error {
	if raw == "" {
		return errMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errUnsupportedScheme
	}
	return nil
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(s.logger, w, status, Response{Success: false, Error: msg})
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}
