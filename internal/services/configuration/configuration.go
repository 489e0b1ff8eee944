// Package configuration provides a key/value ServiceConfiguration service.
// Every change is broadcast through the registry as a configChanged event.
package configuration

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/dispatch"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
)

const (
	// API is the service type of the configuration service
	API = "http://webinos.org/api/ServiceConfiguration"
	// ChangedEvent is emitted after each successful set
	ChangedEvent = "configChanged"
)

// Emitter broadcasts events to registered listeners
type Emitter interface {
	EmitEvent(event types.Event)
}

// Store holds configuration values
type Store struct {
	mu      sync.RWMutex
	values  map[string]interface{} // Protected by mu
	emitter Emitter
}

// NewStore creates a store seeded with initial values. emitter may be nil.
func NewStore(initial map[string]interface{}, emitter Emitter) *Store {
	values := make(map[string]interface{}, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Store{values: values, emitter: emitter}
}

// Get returns the value for key
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and emits ChangedEvent
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	previous, existed := s.values[key]
	s.values[key] = value
	s.mu.Unlock()

	if s.emitter == nil {
		return
	}
	payload := map[string]interface{}{"key": key, "value": value}
	if existed {
		payload["previous"] = previous
	}
	s.emitter.EmitEvent(types.Event{Name: ChangedEvent, Source: API, Payload: payload})
}

// Keys returns all keys, sorted
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of all values
func (s *Store) Values() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

type keyParams struct {
	Key string `json:"key"`
}

type setParams struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// Record returns the registrable service record
func (s *Store) Record() *types.ServiceRecord {
	rec := &types.ServiceRecord{
		API:         API,
		DisplayName: "Service Configuration",
		Description: "Reads and updates hub configuration values",
	}
	rec.Bind("get", s.get)
	rec.Bind("set", s.set)
	rec.Bind("list", s.list)
	return rec
}

func (s *Store) get(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p keyParams
	if err := dispatch.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Key == "" {
		return nil, fmt.Errorf("%w: key is required", dispatch.ErrInvalidParams)
	}
	v, ok := s.Get(p.Key)
	if !ok {
		return nil, &types.RPCError{Code: dispatch.CodeInvalidParams, Message: fmt.Sprintf("unknown key: %s", p.Key)}
	}
	return map[string]interface{}{"key": p.Key, "value": v}, nil
}

func (s *Store) set(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p setParams
	if err := dispatch.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Key == "" {
		return nil, fmt.Errorf("%w: key is required", dispatch.ErrInvalidParams)
	}
	s.Set(p.Key, p.Value)
	return map[string]interface{}{"key": p.Key, "value": p.Value}, nil
}

func (s *Store) list(context.Context, json.RawMessage) (interface{}, error) {
	return s.Values(), nil
}
