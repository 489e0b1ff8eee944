// Package dispatch routes JSON-RPC 2.0 requests onto registered services.
//
// The method member names the target as "<serviceType>@<serviceId>.<method>",
// for example "http://webinos.org/api/ServiceDiscovery@3f2a....findServices".
// The id part may be omitted; only service types with a lookup fallback
// resolve without it. The resolved record's Methods map supplies the
// callable binding.
//
// Errors follow the JSON-RPC codes, plus CodeServiceNotFound for lookups
// that miss. Methods may return *types.RPCError to choose their own code or
// wrap ErrInvalidParams.
package dispatch
