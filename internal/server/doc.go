// Package server provides HTTP routing, middleware, and the resolution API handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// The first [Middleware] passed to Use is the outermost.
// [BasicRouter] registers "METHOD /path" patterns on an [http.ServeMux], which
// answers a wrong method with 405 and an Allow header.
//
// # Resolution API
//
// [API] serves three routes:
//
//	POST /api/resolve      → {"references":[{"feedGuid","itemGuid"}]} resolved as one batch
//	POST /api/cache/clear  → drops cached feeds and discovered directory mappings
//	GET  /health           → liveness with the current cache size
//
// The resolve response body is the batch result map keyed by "feedGuid:itemGuid". Per-reference
// failures are part of a 200 response; only malformed requests are rejected.
//
// # Lifecycle
//
// [Serve] runs an [http.Server] until its context is canceled and then shuts it down gracefully.
package server
