// Package ws serves the registry over WebSocket.
//
// Each connection receives a "system" greeting, then a "sync" snapshot of the
// registry and another one after every mutation. Clients send:
//
//	{"type":"rpc","rpc":{"jsonrpc":"2.0","id":1,"method":"<type>@<id>.<method>","params":...}}
//	{"type":"event","event":{"name":"...","payload":{...}}}
//	{"type":"ping"}
//
// and receive "rpc", "event_ack", "pong" or "error" frames in reply.
package ws
