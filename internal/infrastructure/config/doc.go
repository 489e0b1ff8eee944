// Package config provides 12-factor configuration management for the RPC hub.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - Registry: Fingerprint algorithm and optional service manifest
//   - Sync: Rate of registry snapshot pushes
//   - RateLimit: Per-IP rate limiting configuration
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - REGISTRY_HASH, REGISTRY_MANIFEST
//   - SYNC_RPS, SYNC_BURST
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
