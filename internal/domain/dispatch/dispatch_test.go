package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{"Sensor@abc.read", Target{"Sensor", "abc", "read"}, false},
		{"Sensor.read", Target{"Sensor", "", "read"}, false},
		{"http://webinos.org/api/sensors@abc.read", Target{"http://webinos.org/api/sensors", "abc", "read"}, false},
		{"http://webinos.org/api/ServiceDiscovery.findServices", Target{"http://webinos.org/api/ServiceDiscovery", "", "findServices"}, false},
		{"Sensor@.read", Target{"Sensor", "", "read"}, false},
		{"read", Target{}, true},
		{".read", Target{}, true},
		{"Sensor.", Target{}, true},
		{"@abc.read", Target{}, true},
		{"Sensor.read-now", Target{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type echoParams struct {
	Text string `json:"text"`
}

func setup(t *testing.T) (*Dispatcher, *types.ServiceRecord, *monitoring.Metrics) {
	t.Helper()
	reg := registry.New(nil, nil)

	rec := &types.ServiceRecord{API: "Echo", DisplayName: "Echo", Description: "echoes"}
	rec.Bind("echo", func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		var p echoParams
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		return map[string]string{"text": p.Text}, nil
	})
	rec.Bind("fail", func(context.Context, json.RawMessage) (interface{}, error) {
		return nil, errors.New("backend unavailable")
	})
	rec.Bind("teapot", func(context.Context, json.RawMessage) (interface{}, error) {
		return nil, &types.RPCError{Code: 418, Message: "teapot"}
	})
	rec.Bind("crash", func(context.Context, json.RawMessage) (interface{}, error) {
		panic("boom")
	})
	rec.Bind("nothing", func(context.Context, json.RawMessage) (interface{}, error) {
		return nil, nil
	})
	_, err := reg.RegisterObject(rec)
	require.NoError(t, err)

	discovery := &types.ServiceRecord{API: "ServiceDiscovery", DisplayName: "Discovery"}
	discovery.Bind("ping", func(context.Context, json.RawMessage) (interface{}, error) {
		return "pong", nil
	})
	_, err = reg.RegisterObject(discovery)
	require.NoError(t, err)

	m := monitoring.NewMetricsWith(prometheus.NewRegistry())
	return New(reg, nil).WithMetrics(m), rec, m
}

func request(method, params string) *types.RPCRequest {
	req := &types.RPCRequest{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: method}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return req
}

func TestDispatchSuccess(t *testing.T) {
	d, rec, m := setup(t)

	resp := d.Dispatch(context.Background(), request("Echo@"+rec.ID+".echo", `{"text":"hi"}`))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.Equal(t, map[string]string{"text": "hi"}, resp.Result)
	assert.Equal(t, json.RawMessage(`1`), resp.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCCalls.WithLabelValues("Echo", "echo", "ok")))
}

func TestDispatchErrors(t *testing.T) {
	d, rec, _ := setup(t)
	target := "Echo@" + rec.ID

	tests := []struct {
		name string
		req  *types.RPCRequest
		code int
	}{
		{"wrong version", &types.RPCRequest{JSONRPC: "1.0", ID: json.RawMessage(`1`), Method: target + ".echo"}, CodeInvalidRequest},
		{"malformed method", request("echo", ""), CodeMethodNotFound},
		{"unknown id", request("Echo@bogus.echo", ""), CodeServiceNotFound},
		{"unknown type", request("MyCustomAPI.echo", ""), CodeServiceNotFound},
		{"unknown method", request(target+".missing", ""), CodeMethodNotFound},
		{"bad params", request(target+".echo", `{"text":5}`), CodeInvalidParams},
		{"method error", request(target+".fail", ""), CodeInternalError},
		{"custom error", request(target+".teapot", ""), 418},
		{"panic", request(target+".crash", ""), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := d.Dispatch(context.Background(), tt.req)
			require.NotNil(t, resp)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestDispatchFallbackType(t *testing.T) {
	d, _, _ := setup(t)

	resp := d.Dispatch(context.Background(), request("ServiceDiscovery@stale-id.ping", ""))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.Equal(t, "pong", resp.Result)
}

func TestDispatchNotification(t *testing.T) {
	d, rec, m := setup(t)

	req := request("Echo@"+rec.ID+".echo", `{"text":"hi"}`)
	req.ID = nil
	assert.Nil(t, d.Dispatch(context.Background(), req))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCCalls.WithLabelValues("Echo", "echo", "ok")))
}

func TestDispatchNilResult(t *testing.T) {
	d, rec, _ := setup(t)

	raw, err := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":7,"method":"Echo@`+rec.ID+`.nothing"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":null}`, string(raw))
}

func TestHandleRawSingle(t *testing.T) {
	d, rec, _ := setup(t)

	raw, err := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":"2.0","id":"a","method":"Echo@`+rec.ID+`.echo","params":{"text":"yo"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"a","result":{"text":"yo"}}`, string(raw))
}

func TestHandleRawAnswersNonNotifications(t *testing.T) {
	d, rec, _ := setup(t)

	tests := []struct {
		name   string
		body   string
		wantID string
		code   int
	}{
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"Nope.x"}`, `null`, CodeServiceNotFound},
		{"null id success", `{"jsonrpc":"2.0","id":null,"method":"Echo@` + rec.ID + `.nothing"}`, `null`, 0},
		{"missing version", `{"method":"Nope.x"}`, `null`, CodeInvalidRequest},
		{"wrong version", `{"jsonrpc":"1.0","method":"Nope.x"}`, `null`, CodeInvalidRequest},
		{"missing method", `{"jsonrpc":"2.0"}`, `null`, CodeInvalidRequest},
		{"invalid with id", `{"jsonrpc":"1.0","id":4,"method":"Nope.x"}`, `4`, CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := d.HandleRaw(context.Background(), []byte(tt.body))
			require.NoError(t, err)
			require.NotNil(t, raw, "a reply is required")

			var resp struct {
				ID    json.RawMessage `json:"id"`
				Error *types.RPCError `json:"error"`
			}
			require.NoError(t, json.Unmarshal(raw, &resp))
			assert.JSONEq(t, tt.wantID, string(resp.ID))
			if tt.code == 0 {
				assert.Nil(t, resp.Error)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleRawBatchInvalidMemberAnswered(t *testing.T) {
	d, _, _ := setup(t)

	raw, err := d.HandleRaw(context.Background(), []byte(`[{"method":"Nope.x"}]`))
	require.NoError(t, err)

	var responses []types.RPCResponse
	require.NoError(t, json.Unmarshal(raw, &responses))
	require.Len(t, responses, 1)
	assert.Equal(t, CodeInvalidRequest, responses[0].Error.Code)
}

func TestIsNotification(t *testing.T) {
	assert.True(t, (&types.RPCRequest{}).IsNotification())
	assert.False(t, (&types.RPCRequest{ID: json.RawMessage(`null`)}).IsNotification())
	assert.False(t, (&types.RPCRequest{ID: json.RawMessage(`1`)}).IsNotification())
}

func TestHandleRawParseError(t *testing.T) {
	d, _, _ := setup(t)

	raw, err := d.HandleRaw(context.Background(), []byte(`{"jsonrpc":`))
	require.NoError(t, err)

	var resp types.RPCResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeParseError, resp.Error.Code)
}

func TestHandleRawBatch(t *testing.T) {
	d, rec, _ := setup(t)
	target := "Echo@" + rec.ID

	body := `[
		{"jsonrpc":"2.0","id":1,"method":"` + target + `.echo","params":{"text":"one"}},
		{"jsonrpc":"2.0","method":"` + target + `.echo","params":{"text":"notify"}},
		{"jsonrpc":"2.0","id":3,"method":"` + target + `.missing"},
		5
	]`
	raw, err := d.HandleRaw(context.Background(), []byte(body))
	require.NoError(t, err)

	var responses []types.RPCResponse
	require.NoError(t, json.Unmarshal(raw, &responses))
	require.Len(t, responses, 3)
	assert.Nil(t, responses[0].Error)
	assert.Equal(t, CodeMethodNotFound, responses[1].Error.Code)
	assert.Equal(t, CodeInvalidRequest, responses[2].Error.Code)
}

func TestHandleRawOnlyNotifications(t *testing.T) {
	d, rec, _ := setup(t)

	raw, err := d.HandleRaw(context.Background(), []byte(`[{"jsonrpc":"2.0","method":"Echo@`+rec.ID+`.echo"}]`))
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestHandleRawEmpty(t *testing.T) {
	d, _, _ := setup(t)

	for _, body := range []string{"", "  ", "[]"} {
		raw, err := d.HandleRaw(context.Background(), []byte(body))
		require.NoError(t, err)
		var resp types.RPCResponse
		require.NoError(t, json.Unmarshal(raw, &resp))
		assert.Equal(t, CodeInvalidRequest, resp.Error.Code, body)
	}
}
