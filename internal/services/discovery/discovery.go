// Package discovery exposes the registry contents as an RPC service.
package discovery

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/dispatch"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
)

// API is the service type of the discovery service
const API = "http://webinos.org/api/ServiceDiscovery"

// Lister reads the registry
type Lister interface {
	Records() []*types.ServiceRecord
	APIs() []string
}

// FindParams filters findServices results
type FindParams struct {
	API string `json:"api"`
}

// Service answers discovery queries
type Service struct {
	lister Lister
}

// New creates a discovery service over lister
func New(lister Lister) *Service {
	return &Service{lister: lister}
}

// Record returns the registrable service record
func (s *Service) Record() *types.ServiceRecord {
	rec := &types.ServiceRecord{
		API:         API,
		DisplayName: "Service Discovery",
		Description: "Finds services registered with this hub",
	}
	rec.Bind("findServices", s.findServices)
	rec.Bind("listAPIs", s.listAPIs)
	return rec
}

// Find returns summaries of records whose api contains filter
func (s *Service) Find(filter string) []types.ServiceSummary {
	records := s.lister.Records()
	found := make([]types.ServiceSummary, 0, len(records))
	for _, rec := range records {
		if filter == "" || strings.Contains(rec.API, filter) {
			found = append(found, rec.Summary())
		}
	}
	return found
}

func (s *Service) findServices(_ context.Context, params json.RawMessage) (interface{}, error) {
	var p FindParams
	if err := dispatch.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.Find(p.API), nil
}

func (s *Service) listAPIs(context.Context, json.RawMessage) (interface{}, error) {
	return s.lister.APIs(), nil
}
