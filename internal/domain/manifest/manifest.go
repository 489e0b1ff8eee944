package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/utils"
)

// Format identifies a manifest encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for unknown manifest extensions
var ErrUnsupportedFormat = errors.New("unsupported manifest format")

// ServiceSpec declares a static service record
type ServiceSpec struct {
	API         string                 `yaml:"api" toml:"api" json:"api"`
	DisplayName string                 `yaml:"displayName" toml:"displayName" json:"displayName"`
	Description string                 `yaml:"description" toml:"description" json:"description"`
	Metadata    map[string]interface{} `yaml:"metadata" toml:"metadata" json:"metadata"`
}

// Manifest lists services registered at start-up and configuration defaults
type Manifest struct {
	Services      []ServiceSpec          `yaml:"services" toml:"services" json:"services"`
	Configuration map[string]interface{} `yaml:"configuration" toml:"configuration" json:"configuration"`
}

// FormatFromPath picks a format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads and parses the manifest at path
func Load(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes and validates a manifest
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatJSON:
		err = sonic.ConfigStd.Unmarshal(data, &m)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s manifest: %w", format, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every service entry
func (m *Manifest) Validate() error {
	for i, spec := range m.Services {
		if err := utils.ValidateAPI(spec.API); err != nil {
			return fmt.Errorf("service %d: %w", i, err)
		}
		if err := utils.ValidateRecordText(spec.DisplayName, spec.Description); err != nil {
			return fmt.Errorf("service %d (%s): %w", i, spec.API, err)
		}
	}
	return nil
}

// Record builds a service record for spec. Its info method returns the
// declared metadata.
func (spec ServiceSpec) Record() *types.ServiceRecord {
	rec := &types.ServiceRecord{
		API:         spec.API,
		DisplayName: spec.DisplayName,
		Description: spec.Description,
		Metadata:    spec.Metadata,
	}
	rec.Bind("info", func(context.Context, json.RawMessage) (interface{}, error) {
		return map[string]interface{}{
			"service":  rec.Summary(),
			"metadata": spec.Metadata,
		}, nil
	})
	return rec
}

// Registrar accepts service records
type Registrar interface {
	RegisterObject(rec *types.ServiceRecord) (string, error)
}

// Seeder registers manifest services
type Seeder struct {
	registrar Registrar
	logger    *zap.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(registrar Registrar, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{registrar: registrar, logger: logger}
}

// Seed registers every service in m. Failures (duplicates included) are
// logged and counted, not fatal.
func (s *Seeder) Seed(m *Manifest) (loaded, failed int) {
	for _, spec := range m.Services {
		id, err := s.registrar.RegisterObject(spec.Record())
		if err != nil {
			s.logger.Warn("Failed to seed service",
				zap.String("api", spec.API),
				zap.String("display_name", spec.DisplayName),
				zap.Error(err),
			)
			failed++
			continue
		}
		s.logger.Debug("Seeded service", zap.String("api", spec.API), zap.String("id", id))
		loaded++
	}

	s.logger.Info("Manifest seeding complete", zap.Int("loaded", loaded), zap.Int("failed", failed))
	return loaded, failed
}
