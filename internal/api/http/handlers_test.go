package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/dispatch"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/utils"
)

type rpcReply struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *types.RPCError `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New(nil, nil)
	h := NewHandlers(reg, dispatch.New(reg, nil), nil)

	router := gin.New()
	h.Register(router)
	return router, reg
}

func perform(router *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func serviceURL(api, id string) string {
	q := url.Values{}
	q.Set("type", api)
	if id != "" {
		q.Set("id", id)
	}
	return "/service?" + q.Encode()
}

func TestHealth(t *testing.T) {
	router, reg := setupRouter(t)
	_, err := reg.RegisterObject(&types.ServiceRecord{API: "Sensor", DisplayName: "A"})
	require.NoError(t, err)

	w := perform(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 1, body["services"])
}

func TestListServices(t *testing.T) {
	router, reg := setupRouter(t)
	_, err := reg.RegisterObject(&types.ServiceRecord{API: "Sensor", DisplayName: "A"})
	require.NoError(t, err)
	_, err = reg.RegisterObject(&types.ServiceRecord{API: "Actuator", DisplayName: "B"})
	require.NoError(t, err)

	w := perform(router, http.MethodGet, "/services", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Services map[string][]types.ServiceSummary `json:"services"`
		Order    []string                          `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"Sensor", "Actuator"}, body.Order)
	require.Len(t, body.Services["Sensor"], 1)
	assert.Equal(t, "A", body.Services["Sensor"][0].DisplayName)
}

func TestGetService(t *testing.T) {
	router, reg := setupRouter(t)
	rec := &types.ServiceRecord{API: "Sensor", DisplayName: "A"}
	sid, err := reg.RegisterObject(rec)
	require.NoError(t, err)
	_, err = reg.RegisterObject(&types.ServiceRecord{API: "http://webinos.org/api/ServiceDiscovery", DisplayName: "D"})
	require.NoError(t, err)

	t.Run("exact", func(t *testing.T) {
		w := perform(router, http.MethodGet, serviceURL("Sensor", sid), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got types.ServiceSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, sid, got.ID)
	})

	t.Run("fallback", func(t *testing.T) {
		w := perform(router, http.MethodGet, serviceURL("http://webinos.org/api/ServiceDiscovery", "nope"), nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		w := perform(router, http.MethodGet, serviceURL("Sensor", "nope"), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing type", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/service", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUnregisterService(t *testing.T) {
	router, reg := setupRouter(t)
	sid, err := reg.RegisterObject(&types.ServiceRecord{API: "Sensor", DisplayName: "A"})
	require.NoError(t, err)

	w := perform(router, http.MethodDelete, serviceURL("Sensor", sid), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, reg.Len())

	w = perform(router, http.MethodDelete, serviceURL("Sensor", ""), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRPC(t *testing.T) {
	router, reg := setupRouter(t)
	rec := &types.ServiceRecord{API: "Echo", DisplayName: "E"}
	rec.Bind("say", func(_ context.Context, params json.RawMessage) (interface{}, error) {
		return json.RawMessage(params), nil
	})
	sid, err := reg.RegisterObject(rec)
	require.NoError(t, err)

	t.Run("call", func(t *testing.T) {
		body := []byte(`{"jsonrpc":"2.0","id":1,"method":"Echo@` + sid + `.say","params":{"x":1}}`)
		w := perform(router, http.MethodPost, "/rpc", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp rpcReply
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Nil(t, resp.Error)
		assert.JSONEq(t, `{"x":1}`, string(resp.Result))
	})

	t.Run("notification", func(t *testing.T) {
		body := []byte(`{"jsonrpc":"2.0","method":"Echo@` + sid + `.say"}`)
		w := perform(router, http.MethodPost, "/rpc", body)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("parse error", func(t *testing.T) {
		w := perform(router, http.MethodPost, "/rpc", []byte(`{`))
		require.Equal(t, http.StatusOK, w.Code)

		var resp rpcReply
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dispatch.CodeParseError, resp.Error.Code)
	})

	t.Run("too large", func(t *testing.T) {
		w := perform(router, http.MethodPost, "/rpc", bytes.Repeat([]byte(" "), utils.MaxJSONSize+1))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestEmitEvent(t *testing.T) {
	router, reg := setupRouter(t)
	got := make(chan types.Event, 1)
	rec := &types.ServiceRecord{API: "Sensor", DisplayName: "A"}
	rec.On("ping", func(e types.Event) error {
		got <- e
		return nil
	})
	_, err := reg.RegisterObject(rec)
	require.NoError(t, err)

	w := perform(router, http.MethodPost, "/events", []byte(`{"name":"ping","payload":{"n":1}}`))
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case e := <-got:
		assert.Equal(t, "ping", e.Name)
		assert.EqualValues(t, 1, e.Payload["n"])
	case <-time.After(time.Second):
		t.Fatal("listener not invoked")
	}

	w = perform(router, http.MethodPost, "/events", []byte(`{"payload":{}}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
