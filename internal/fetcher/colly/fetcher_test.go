package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/og-parser/internal/metadata"
	"github.com/JakeFAU/og-parser/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

func acceptHTML(status int, h http.Header) bool {
	return status >= 200 && status < 300 && metadata.IsHTML(h.Get("Content-Type"))
}

func TestFetch_ReturnsBodyAndHeaders(t *testing.T) {
	t.Parallel()

	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>hi</title></head></html>`))
	}))
	t.Cleanup(srv.Close)

	f := New(Config{UserAgent: "base-agent", Timeout: time.Second}, zap.NewNop())
	resp, err := f.Fetch(context.Background(), metadata.FetchRequest{
		URL:        srv.URL + "/page",
		UserAgent:  metadata.DefaultUserAgent,
		AcceptBody: acceptHTML,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "<title>hi</title>")
	require.Equal(t, "text/html; charset=utf-8", resp.Headers.Get("Content-Type"))
	require.Equal(t, metadata.DefaultUserAgent, <-gotUA)
}

func TestFetch_SurfacesErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	t.Cleanup(srv.Close)

	f := New(Config{}, nil)
	resp, err := f.Fetch(context.Background(), metadata.FetchRequest{URL: srv.URL, AcceptBody: acceptHTML})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Empty(t, resp.Body, "rejected responses should not download the body")
}

func TestFetch_SkipsBodyForNonHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	t.Cleanup(srv.Close)

	f := New(Config{}, nil)
	resp, err := f.Fetch(context.Background(), metadata.FetchRequest{URL: srv.URL, AcceptBody: acceptHTML})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Headers.Get("Content-Type"))
	require.Empty(t, resp.Body)
}

func TestFetch_RevisitsSameURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<title>again</title>"))
	}))
	t.Cleanup(srv.Close)

	f := New(Config{}, nil)
	for i := 0; i < 2; i++ {
		resp, err := f.Fetch(context.Background(), metadata.FetchRequest{URL: srv.URL})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestFetch_DeadlineAbortsRequest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(Config{}, nil)
	start := time.Now()
	_, err := f.Fetch(ctx, metadata.FetchRequest{URL: srv.URL})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	require.Less(t, time.Since(start), 3*time.Second)
}

func TestFetch_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := New(Config{}, nil)
	_, err := f.Fetch(context.Background(), metadata.FetchRequest{URL: addr})
	require.Error(t, err)
	require.False(t, errors.Is(err, context.DeadlineExceeded))
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	req := metadata.FetchRequest{
		URL:        "https://example.com",
		UserAgent:  "hook-agent",
		AcceptBody: acceptHTML,
	}
	var result metadata.FetchResponse
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, req, time.Unix(0, 0), &result, &fetchErr)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponseHeaders)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	require.Equal(t, "hook-agent", collyReq.Headers.Get("User-Agent"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com/final")},
	})
	require.Equal(t, http.StatusCreated, result.StatusCode)
	require.Equal(t, "body", string(result.Body))
	require.Equal(t, "ok", result.Headers.Get("X-Resp"))
	require.Equal(t, "https://example.com/final", result.URL)

	hooks.onError(nil, colly.ErrAbortedAfterHeaders)
	require.NoError(t, fetchErr)
	hooks.onError(nil, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
}

func TestFetchOutcome(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ok", fetchOutcome(metadata.FetchResponse{StatusCode: 204}, nil))
	require.Equal(t, "non_2xx", fetchOutcome(metadata.FetchResponse{StatusCode: 502}, nil))
	require.Equal(t, "timeout", fetchOutcome(metadata.FetchResponse{}, context.DeadlineExceeded))
	require.Equal(t, "error", fetchOutcome(metadata.FetchResponse{}, errors.New("x")))
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onRequest         colly.RequestCallback
	onResponseHeaders colly.ResponseHeadersCallback
	onResponse        colly.ResponseCallback
	onError           colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponseHeaders(cb colly.ResponseHeadersCallback) {
	s.onResponseHeaders = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
