package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models teamcal.yml.
type Config struct {
	Company struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Country string `yaml:"country"`
	} `yaml:"company"`
	Teams  []string     `yaml:"teams"`
	Limits Limits       `yaml:"limits"`
	Feeds  []FeedConfig `yaml:"feeds"`
}

// Limits bound the activity-entry flow. Guard shifts may not exceed a full
// day; HLD and training entries are capped per entry.
type Limits struct {
	GuardMaxHours float64 `yaml:"guard_max_hours"`
	EntryMaxHours float64 `yaml:"entry_max_hours"`
}

// FeedConfig describes one external holiday feed the server polls.
type FeedConfig struct {
	Name            string `yaml:"name"`
	URL             string `yaml:"url"`
	Scope           string `yaml:"scope"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	Enabled         *bool  `yaml:"enabled"`
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with tc company config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Company.ID == "" {
		return fmt.Errorf("config.company.id is required")
	}
	if c.Limits.GuardMaxHours == 0 {
		c.Limits.GuardMaxHours = 24
	}
	if c.Limits.EntryMaxHours == 0 {
		c.Limits.EntryMaxHours = 12
	}
	if c.Limits.GuardMaxHours < 0 || c.Limits.GuardMaxHours > 24 {
		return fmt.Errorf("config.limits.guard_max_hours must be in (0,24]")
	}
	if c.Limits.EntryMaxHours < 0 || c.Limits.EntryMaxHours > 24 {
		return fmt.Errorf("config.limits.entry_max_hours must be in (0,24]")
	}
	for i, f := range c.Feeds {
		if f.Name == "" {
			return fmt.Errorf("config.feeds[%d].name is required", i)
		}
		if f.URL == "" {
			return fmt.Errorf("config.feeds[%d].url is required", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "teamcal.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(companyID string) string {
	return fmt.Sprintf(defaultTemplate, companyID)
}

// Default returns the default Config struct for a company.
func Default(companyID string) *Config {
	var cfg Config
	cfg.Company.ID = companyID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, companyID))).Decode(&cfg)
	_ = cfg.Validate()
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `company:
  id: %s
  name: ""
  country: Spain

teams: []

limits:
  guard_max_hours: 24
  entry_max_hours: 12

# External holiday feeds polled by the server. The national/regional feed and
# the local feed may deliver the same holiday twice; imports deduplicate on
# (date, name).
feeds: []
`
