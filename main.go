// The main package for the ogparser executable.
//
// ogparser is an HTTP service that fetches a single web page and returns its
// Open Graph metadata as JSON. Request flow:
//
//	GET /api/parse?url=... -> api (validation, CORS, caching headers)
//	  -> metadata.Extractor (status and content-type gates, field fallbacks)
//	  -> colly fetcher (one GET, fixed deadline, body skipped for non-HTML)
package main

import (
	"github.com/JakeFAU/og-parser/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
