package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/utils"
)

// JSON-RPC 2.0 error codes
const (
	CodeParseError      = -32700
	CodeInvalidRequest  = -32600
	CodeMethodNotFound  = -32601
	CodeInvalidParams   = -32602
	CodeInternalError   = -32603
	CodeServiceNotFound = -32000
)

// ErrInvalidParams can be wrapped by methods to report bad input
var ErrInvalidParams = errors.New("invalid params")

// codec mirrors encoding/json behavior
var codec = sonic.ConfigStd

// Resolver finds the record serving a request
type Resolver interface {
	ServiceWithTypeAndID(serviceType, serviceID string) (*types.ServiceRecord, bool)
}

// Target is a parsed RPC method string
type Target struct {
	ServiceType string
	ServiceID   string
	Method      string
}

// ParseMethod splits "<serviceType>@<serviceId>.<method>". The "@<serviceId>"
// part is optional; service types may themselves contain dots but never '@',
// which the registry rejects at registration.
func ParseMethod(method string) (Target, error) {
	dot := strings.LastIndex(method, ".")
	if dot <= 0 || dot == len(method)-1 {
		return Target{}, fmt.Errorf("malformed method %q", method)
	}

	target := Target{Method: method[dot+1:]}
	service := method[:dot]
	if at := strings.LastIndex(service, "@"); at >= 0 {
		target.ServiceType = service[:at]
		target.ServiceID = service[at+1:]
	} else {
		target.ServiceType = service
	}

	if target.ServiceType == "" {
		return Target{}, fmt.Errorf("malformed method %q", method)
	}
	if err := utils.ValidateMethodName(target.Method); err != nil {
		return Target{}, err
	}
	return target, nil
}

// Dispatcher routes JSON-RPC requests to registered service methods
type Dispatcher struct {
	resolver Resolver
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates a dispatcher
func New(resolver Resolver, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		resolver: resolver,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the dispatcher
func (d *Dispatcher) WithMetrics(metrics *monitoring.Metrics) *Dispatcher {
	d.metrics = metrics
	return d
}

// Dispatch executes a single request. It returns nil for notifications.
// Invalid requests are always answered, with a null id when none was sent.
func (d *Dispatcher) Dispatch(ctx context.Context, req *types.RPCRequest) *types.RPCResponse {
	if req == nil || req.JSONRPC != types.JSONRPCVersion || req.Method == "" {
		var reqID json.RawMessage
		if req != nil {
			reqID = req.ID
		}
		return errorResponse(reqID, CodeInvalidRequest, "invalid request")
	}

	result, rpcErr := d.call(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return &types.RPCResponse{JSONRPC: types.JSONRPCVersion, ID: req.ID, Error: rpcErr}
	}
	if result == nil {
		// A successful response always carries a result member
		result = json.RawMessage("null")
	}
	return &types.RPCResponse{JSONRPC: types.JSONRPCVersion, ID: req.ID, Result: result}
}

func (d *Dispatcher) call(ctx context.Context, req *types.RPCRequest) (result interface{}, rpcErr *types.RPCError) {
	target, err := ParseMethod(req.Method)
	if err != nil {
		return nil, &types.RPCError{Code: CodeMethodNotFound, Message: err.Error()}
	}

	record, ok := d.resolver.ServiceWithTypeAndID(target.ServiceType, target.ServiceID)
	if !ok {
		return nil, &types.RPCError{
			Code:    CodeServiceNotFound,
			Message: "service not found",
			Data:    map[string]string{"type": target.ServiceType, "id": target.ServiceID},
		}
	}

	method, ok := record.Methods[target.Method]
	if !ok || method == nil {
		return nil, &types.RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", target.Method)}
	}

	reqID := id.NewRequestID()
	logger := d.logger.With(
		zap.String("request_id", reqID.String()),
		zap.String("api", record.API),
		zap.String("service_id", record.ID),
		zap.String("method", target.Method),
	)
	if traceID := tracing.TraceID(ctx); traceID != "" {
		logger = logger.With(zap.String("trace_id", traceID))
	}
	timer := monitoring.NewTimer(d.metrics, record.API, target.Method)
	status := "ok"
	defer func() {
		if p := recover(); p != nil {
			status = "panic"
			logger.Error("RPC method panicked", zap.Any("panic", p))
			result, rpcErr = nil, &types.RPCError{Code: CodeInternalError, Message: "internal error"}
		}
		duration := timer.Stop(status)
		logger.Debug("RPC call finished", zap.String("status", status), zap.Duration("duration", duration))
	}()

	result, err = method(ctx, req.Params)
	if err != nil {
		status = "error"
		logger.Warn("RPC method failed", zap.Error(err))
		return nil, toRPCError(err)
	}
	return result, nil
}

func toRPCError(err error) *types.RPCError {
	var rpcErr *types.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if errors.Is(err, ErrInvalidParams) {
		return &types.RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return &types.RPCError{Code: CodeInternalError, Message: err.Error()}
}

func errorResponse(reqID json.RawMessage, code int, message string) *types.RPCResponse {
	if len(reqID) == 0 {
		reqID = json.RawMessage("null")
	}
	return &types.RPCResponse{
		JSONRPC: types.JSONRPCVersion,
		ID:      reqID,
		Error:   &types.RPCError{Code: code, Message: message},
	}
}

// HandleRaw decodes a single request or a batch, dispatches it and returns
// the encoded reply. It returns nil when nothing needs to be sent back.
func (d *Dispatcher) HandleRaw(ctx context.Context, data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return codec.Marshal(errorResponse(nil, CodeInvalidRequest, "empty request"))
	}

	if trimmed[0] != '[' {
		var req types.RPCRequest
		if err := codec.Unmarshal(trimmed, &req); err != nil {
			return codec.Marshal(errorResponse(nil, CodeParseError, "parse error"))
		}
		resp := d.Dispatch(ctx, &req)
		if resp == nil {
			return nil, nil
		}
		return codec.Marshal(resp)
	}

	var batch []json.RawMessage
	if err := codec.Unmarshal(trimmed, &batch); err != nil {
		return codec.Marshal(errorResponse(nil, CodeParseError, "parse error"))
	}
	if len(batch) == 0 {
		return codec.Marshal(errorResponse(nil, CodeInvalidRequest, "empty batch"))
	}

	responses := make([]*types.RPCResponse, 0, len(batch))
	for _, raw := range batch {
		var req types.RPCRequest
		if err := codec.Unmarshal(raw, &req); err != nil {
			responses = append(responses, errorResponse(nil, CodeInvalidRequest, "invalid request"))
			continue
		}
		if resp := d.Dispatch(ctx, &req); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil, nil
	}
	return codec.Marshal(responses)
}

// DecodeParams unmarshals params into v, wrapping failures as ErrInvalidParams.
// Empty params leave v untouched.
func DecodeParams(params json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(params)) == 0 || string(params) == "null" {
		return nil
	}
	if err := codec.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
