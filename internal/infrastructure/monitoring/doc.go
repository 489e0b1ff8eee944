/*
Package monitoring provides Prometheus metrics for the RPC hub.

# Overview

Metrics cover HTTP requests, registry mutations, event fan-out, dispatched
RPC calls, registry synchronization pushes and WebSocket traffic.

# Usage

	// Create metrics collector (default registry, once per process)
	metrics := monitoring.NewMetrics()

	// Tests use an isolated registry
	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Time an RPC call
	timer := monitoring.NewTimer(metrics, "ServiceDiscovery", "findServices")
	defer timer.Stop("ok")
*/
package monitoring
