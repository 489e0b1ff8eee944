// Package types provides shared data structures for the RPC hub.
//
// Core Types:
//   - ServiceRecord: Registered capability provider with listeners and RPC bindings
//   - ServiceSummary: Wire-safe view of a record
//   - Event: Named broadcast delivered to record listeners
//
// Request Types:
//   - RPCRequest, RPCResponse, RPCError: JSON-RPC 2.0 envelope
//   - WSMessage: WebSocket communication
//   - SyncMessage: Registry contents pushed after each mutation
//
// Example Usage:
//
//	rec := &types.ServiceRecord{
//	    API:         "http://webinos.org/api/sensors",
//	    DisplayName: "Accelerometer",
//	    Description: "3-axis accelerometer",
//	}
//	rec.On("reading", func(e types.Event) error { return nil })
package types
