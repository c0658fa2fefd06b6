// Package http provides HTTP handlers and middleware for the meeting scheduler.
//
// The router exposes the following endpoints:
//   - POST /runs: runs the scheduler for the current month. Requires
//     `Authorization: Bearer <token>` matching the configured trigger token hash.
//     Responds 200 with the run report, 409 while another run is executing and
//     500 with the partial report when the club list cannot be read.
//   - GET /runs/latest: the report of the last completed run, or 404.
//   - GET /clubs/{id}/meetings?from=YYYY-MM-DD: a club's meetings dated on or
//     after `from` (default today), exchanging the `meetingDTO` payload defined
//     in meeting_handler.go.
//   - GET /healthz: store connectivity check.
//   - GET /metrics: Prometheus exposition, when a metrics handler is configured.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
