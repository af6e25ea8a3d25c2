package metadata

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultUserAgent identifies the service to upstream servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; OGParser/1.0; +http://example.com)"

// DefaultTimeout bounds the whole upstream exchange.
const DefaultTimeout = 10 * time.Second

// Config controls extractor behavior.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Extractor fetches a page and extracts its Open Graph metadata.
type Extractor struct {
	fetcher Fetcher
	cfg     Config
	logger  *zap.Logger
}

// NewExtractor builds an Extractor. Zero config values fall back to defaults.
func NewExtractor(fetcher Fetcher, cfg Config, logger *zap.Logger) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Extract runs fetch, gate and extraction for rawURL. Failures are returned
// as *Error.
//
// Cancellation of ctx is deliberately not observed; only the configured
// timeout ends the upstream exchange.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (Result, error) {
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.Timeout)
	defer cancel()

	log := e.logger.With(zap.String("url", rawURL))

	resp, err := e.fetcher.Fetch(fetchCtx, FetchRequest{
		URL:        rawURL,
		UserAgent:  e.cfg.UserAgent,
		AcceptBody: acceptBody,
	})
	if err != nil {
		if isTimeout(fetchCtx, err) {
			log.Warn("upstream fetch timed out", zap.Duration("timeout", e.cfg.Timeout))
			return Result{}, timeoutError(err)
		}
		log.Warn("upstream fetch failed", zap.Error(err))
		return Result{}, internalError(err)
	}

	if !isSuccess(resp.StatusCode) {
		log.Debug("upstream returned error status", zap.Int("status", resp.StatusCode))
		return Result{}, upstreamStatusError(resp.StatusCode)
	}
	contentType := resp.Headers.Get("Content-Type")
	if !IsHTML(contentType) {
		log.Debug("upstream returned non-html content", zap.String("content_type", contentType))
		return Result{}, contentTypeError(contentType)
	}

	res, err := ParseDocument(bytes.NewReader(resp.Body), rawURL)
	if err != nil {
		log.Warn("html parse failed", zap.Error(err))
		return Result{}, internalError(err)
	}
	log.Debug("metadata extracted",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("fetch_duration", resp.Duration),
	)
	return res, nil
}

// IsHTML reports whether a Content-Type header value declares HTML.
func IsHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

func acceptBody(statusCode int, header http.Header) bool {
	return isSuccess(statusCode) && IsHTML(header.Get("Content-Type"))
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
