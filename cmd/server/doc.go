// Package main is the entry point for the RPC service hub.
//
// The hub keeps an in-memory registry of service records grouped by service
// type, routes JSON-RPC calls to them, broadcasts events to their listeners
// and pushes registry snapshots to WebSocket subscribers.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000 -manifest services.yaml
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
