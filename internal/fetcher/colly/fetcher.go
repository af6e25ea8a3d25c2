// Package collyfetcher implements metadata.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/og-parser/internal/metadata"
	"github.com/JakeFAU/og-parser/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher implements metadata.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponseHeaders(colly.ResponseHeadersCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = metadata.DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []colly.CollectorOption{
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	}
	if cfg.MaxBodyBytes > 0 {
		opts = append(opts, colly.MaxBodySize(cfg.MaxBodyBytes))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.WithTransport(newHTTPTransport())
	// Cookies from one caller's target must not leak into another's request.
	c.DisableCookies()
	// Backstop only; the request context carries the real deadline.
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET using Colly. The exchange is aborted when
// ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, request metadata.FetchRequest) (metadata.FetchResponse, error) {
	var (
		result   metadata.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(ctx, request, start, &result, &fetchErr)

	err := f.runCollector(ctx, collector, request.URL, &fetchErr)
	result.Duration = time.Since(start)
	metrics.ObserveUpstreamFetch(request.URL, fetchOutcome(result, err), result.Duration, len(result.Body))
	if err != nil {
		f.logger.Debug("fetch failed", zap.String("url", request.URL), zap.Error(err))
		return metadata.FetchResponse{}, err
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	ctx context.Context,
	request metadata.FetchRequest,
	start time.Time,
	result *metadata.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	if request.UserAgent != "" {
		collector.UserAgent = request.UserAgent
	}
	f.configureCollectorHooks(collector, request, start, result, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	request metadata.FetchRequest,
	start time.Time,
	result *metadata.FetchResponse,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		if request.UserAgent != "" {
			r.Headers.Set("User-Agent", request.UserAgent)
		}
	})

	hooks.OnResponseHeaders(func(r *colly.Response) {
		result.URL = r.Request.URL.String()
		result.StatusCode = r.StatusCode
		result.Headers = r.Headers.Clone()
		if request.AcceptBody != nil && !request.AcceptBody(r.StatusCode, *r.Headers) {
			r.Request.Abort()
		}
	})

	hooks.OnResponse(func(r *colly.Response) {
		result.URL = r.Request.URL.String()
		result.StatusCode = r.StatusCode
		result.Headers = r.Headers.Clone()
		result.Body = append([]byte(nil), r.Body...)
		result.Duration = time.Since(start)
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		if errors.Is(err, colly.ErrAbortedAfterHeaders) {
			return
		}
		*fetchErr = err
	})
}

// runCollector races the visit against ctx. Whichever settles first decides
// the outcome. The collector shares ctx, so a fired deadline tears down the
// in-flight request; the visit goroutine is drained before returning so no
// callback touches the result afterwards.
func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		<-done
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil && !errors.Is(err, colly.ErrAbortedAfterHeaders) {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func fetchOutcome(result metadata.FetchResponse, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case err != nil:
		return "error"
	case result.StatusCode >= http.StatusOK && result.StatusCode < http.StatusMultipleChoices:
		return "ok"
	default:
		return "non_2xx"
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
