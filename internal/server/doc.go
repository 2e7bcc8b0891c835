// Package server exposes the HTTP API and the bundled control page.
//
// Routes:
//
//	GET  /          control page
//	POST /fetch     metadata for {"url": ...}
//	GET  /download  muxed MP4 for ?url=&resolution=
//	GET  /split     segment list for ?url=&resolution=&orientation=
//	GET  /segment   one finished segment by ?token=
//	POST /playlist  playlist entries for {"url": ...}
//	GET  /healthz   liveness and active extraction module
//
// The API routes share one token bucket. Control page, health checks and
// segment links are not limited.
//
// Failures are reported as {"error": "..."} with a status derived from the
// error kind.
package server
