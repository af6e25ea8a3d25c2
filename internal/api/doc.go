// Package api hosts the HTTP server, middleware, and handlers. Notable routes:
//   - GET /api/parse?url=... extracts Open Graph metadata from one page.
//   - GET / and /openapi.json publish the OpenAPI description.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//
// Every route answers cross-origin requests from any configured origin.
package api
