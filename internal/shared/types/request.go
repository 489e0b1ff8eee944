package types

import "encoding/json"

// JSONRPCVersion is the only protocol version accepted by the dispatcher
const JSONRPCVersion = "2.0"

// RPCRequest represents a JSON-RPC 2.0 request.
// Method has the form "<serviceType>@<serviceId>.<method>"; "@<serviceId>" is optional.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the caller expects no response. Only a
// missing id member makes a notification; "id": null still gets a reply.
func (r *RPCRequest) IsNotification() bool {
	return len(r.ID) == 0
}

// RPCResponse represents a JSON-RPC 2.0 response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a JSON-RPC response
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// WSMessage represents a WebSocket frame
type WSMessage struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	RPC     *RPCRequest     `json:"rpc,omitempty"`
	Event   *Event          `json:"event,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// SyncMessage carries the registry contents after a mutation
type SyncMessage struct {
	Type     string           `json:"type"`
	Sequence uint64           `json:"sequence"`
	Services []ServiceSummary `json:"services"`
}
