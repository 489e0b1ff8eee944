// Package http exposes the registry and RPC dispatcher over REST.
//
// Routes:
//   - GET  /health               registry size
//   - GET  /services             records grouped by service type
//   - GET  /service?type=&id=    lookup with fallback for singleton-like types
//   - DELETE /service?type=&id=  unregister
//   - POST /rpc                  JSON-RPC 2.0 request or batch
//   - POST /events               broadcast {"name": ..., "payload": ...}
package http
