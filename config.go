package procwise

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/procwise/procwise/service/template"
)

// Config is a serialisable representation of the engine configuration. It
// can be populated from YAML or JSON; the zero-value is useful since all
// nested fields inherit their package defaults.
type Config struct {
	Templates TemplateConfig `json:"templates" yaml:"templates"`
	HTTP      HTTPConfig     `json:"http" yaml:"http"`
	Database  DatabaseConfig `json:"database" yaml:"database"`
	Tracing   TracingConfig  `json:"tracing" yaml:"tracing"`
}

// TemplateConfig holds template-store settings.
type TemplateConfig struct {
	// DeletePolicy governs deletion of templates with existing instances:
	// "reject" refuses, "cascade" deletes the instances too.
	DeletePolicy template.DeletePolicy `json:"deletePolicy" yaml:"deletePolicy"`

	// StoreURL, when set, persists templates as JSON documents under this
	// afs URL (file://, mem://, s3:// ...) instead of the default store.
	// Ignored when a database DSN is configured.
	StoreURL string `json:"storeUrl" yaml:"storeUrl"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// AuthSecret signs and verifies the HS256 bearer tokens issued by the
	// external session layer.
	AuthSecret string `json:"authSecret" yaml:"authSecret"`
}

// DatabaseConfig selects the persistence backend. An empty DSN keeps the
// in-memory stores.
type DatabaseConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
	// RedisAddr, when set, allocates process numbers from a shared Redis
	// counter instead of the store-local sequence.
	RedisAddr string `json:"redisAddr" yaml:"redisAddr"`
}

// TracingConfig controls the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	OutputFile string `json:"outputFile" yaml:"outputFile"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Templates: TemplateConfig{DeletePolicy: template.DeletePolicyReject},
		HTTP:      HTTPConfig{Addr: ":8080"},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Templates.DeletePolicy {
	case "", template.DeletePolicyReject, template.DeletePolicyCascade:
	default:
		return fmt.Errorf("templates.deletePolicy must be %q or %q", template.DeletePolicyReject, template.DeletePolicyCascade)
	}
	return nil
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(location string) (*Config, error) {
	ret := DefaultConfig()
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", location, err)
	}
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", location, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
