package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := extractionsTotal
	Init()

	if extractionsTotal == nil || upstreamFetchTotal == nil ||
		httpRequestsTotal == nil || httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
	if first != extractionsTotal {
		t.Fatal("Init() re-created collectors on second call")
	}
}

func TestObserveExtraction(t *testing.T) {
	Init()

	before := testutil.ToFloat64(extractionsTotal.WithLabelValues("timeout"))
	ObserveExtraction("timeout")
	if got := testutil.ToFloat64(extractionsTotal.WithLabelValues("timeout")); got != before+1 {
		t.Errorf("expected timeout extractions to be %f, got %f", before+1, got)
	}
}

func TestObserveUpstreamFetch(t *testing.T) {
	Init()

	counter := upstreamFetchTotal.WithLabelValues("fetch.example.org", "ok")
	before := testutil.ToFloat64(counter)
	bytesBefore := testutil.ToFloat64(upstreamBytesTotal)

	ObserveUpstreamFetch("https://FETCH.example.org/a", "ok", 150*time.Millisecond, 512)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("expected fetch counter %f, got %f", before+1, got)
	}
	if got := testutil.ToFloat64(upstreamBytesTotal); got != bytesBefore+512 {
		t.Errorf("expected bytes counter %f, got %f", bytesBefore+512, got)
	}
	if val := testutil.CollectAndCount(upstreamFetchDuration); val <= 0 {
		t.Errorf("expected fetch duration to be observed, got %d", val)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
