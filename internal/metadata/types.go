package metadata

import (
	"context"
	"net/http"
	"time"
)

// Result is the normalized metadata extracted from a single page.
// Empty fields are omitted when serialized.
type Result struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Type        string `json:"type,omitempty"`
}

// FetchRequest describes the single outbound GET issued per extraction.
type FetchRequest struct {
	URL       string
	UserAgent string
	// AcceptBody is consulted once response headers arrive. Returning false
	// lets the fetcher skip downloading the body.
	AcceptBody func(statusCode int, header http.Header) bool
}

// FetchResponse captures what the fetcher observed upstream.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves a page. Implementations must abort the in-flight request
// when ctx is done.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
}
