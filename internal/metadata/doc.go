// Package metadata implements the Open Graph extractor: one bounded upstream
// fetch, a status and content-type gate, and a declarative field table
// evaluated against the parsed document.
//
// Failure classes map to HTTP statuses:
//   - KindContentType: 400, the page is not HTML.
//   - KindUpstreamStatus: 502, the page answered outside 2xx.
//   - KindTimeout: 504, the fetch did not finish within the deadline.
//   - KindInternal: 500, anything else.
package metadata
