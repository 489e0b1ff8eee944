// Package middleware provides gin middleware for the HTTP API: CORS and
// per-client rate limiting.
package middleware
