package types

import (
	"context"
	"encoding/json"
	"sort"
)

// Listener handles a named event broadcast by the registry
type Listener func(Event) error

// Method is an RPC-callable binding on a service record
type Method func(ctx context.Context, params json.RawMessage) (interface{}, error)

// ServiceRecord represents a registered capability provider.
// ID is derived from API, DisplayName and Description by the registry on registration.
type ServiceRecord struct {
	API         string `json:"api"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	ID          string `json:"id"`

	// Listeners maps event names to callbacks, invoked in slice order
	Listeners map[string][]Listener `json:"-"`

	// Methods holds RPC bindings; the registry never inspects them
	Methods map[string]Method `json:"-"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// On appends a listener for the named event. It is not synchronized: attach
// listeners before registration, or through Registry.On afterwards.
func (s *ServiceRecord) On(name string, l Listener) *ServiceRecord {
	if s.Listeners == nil {
		s.Listeners = make(map[string][]Listener)
	}
	s.Listeners[name] = append(s.Listeners[name], l)
	return s
}

// Bind attaches an RPC method
func (s *ServiceRecord) Bind(name string, m Method) *ServiceRecord {
	if s.Methods == nil {
		s.Methods = make(map[string]Method)
	}
	s.Methods[name] = m
	return s
}

// Summary returns the wire-safe view of the record
func (s *ServiceRecord) Summary() ServiceSummary {
	return ServiceSummary{
		API:         s.API,
		ID:          s.ID,
		DisplayName: s.DisplayName,
		Description: s.Description,
		Methods:     s.MethodNames(),
	}
}

// MethodNames lists bound method names
func (s *ServiceRecord) MethodNames() []string {
	names := make([]string, 0, len(s.Methods))
	for name := range s.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServiceSummary describes a registered service without its bindings
type ServiceSummary struct {
	API         string   `json:"api"`
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Methods     []string `json:"methods,omitempty"`
}

// Event is broadcast to every listener registered under Name
type Event struct {
	Name    string                 `json:"name" binding:"required"`
	Source  string                 `json:"source,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
