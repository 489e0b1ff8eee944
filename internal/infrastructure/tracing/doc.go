/*
Package tracing provides lightweight request tracing for the hub.

Every HTTP request gets a span. The trace id is taken from the X-Trace-ID
header when a caller sends one, otherwise a new ULID is generated, and it is
stored in the request context so that RPC dispatch logs carry the same id.
Finished spans are logged at debug level by a background collector; failed
spans are logged at error level.

# Usage

	tracer := tracing.New("rpchub", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	// downstream
	traceID := tracing.TraceID(ctx)
*/
package tracing
