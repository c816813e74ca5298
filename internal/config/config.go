package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pal/internal/domain"
)

// Config models pal.yml.
type Config struct {
	Roster []RosterEntry `yaml:"roster"`
	Wallet struct {
		Address        string `yaml:"address"`
		ExplorerAPIKey string `yaml:"explorer_api_key"`
	} `yaml:"wallet"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
}

type RosterEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for i, m := range c.Roster {
		if m.ID == "" {
			return fmt.Errorf("roster[%d].id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("roster id %s appears twice", m.ID)
		}
		seen[m.ID] = true
		if m.Name == "" {
			return fmt.Errorf("roster[%d].name is required", i)
		}
		if !domain.ValidRole(m.Role) {
			return fmt.Errorf("roster[%d].role %q must be one of Designer, Frontend Dev, Backend Dev, PM", i, m.Role)
		}
	}
	return nil
}

// Members converts the roster to domain members, or nil when unset.
func (c *Config) Members() []domain.Member {
	if len(c.Roster) == 0 {
		return nil
	}
	out := make([]domain.Member, len(c.Roster))
	for i, m := range c.Roster {
		out[i] = domain.Member{ID: m.ID, Name: m.Name, Role: m.Role}
	}
	return out
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "pal.yml")
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = "127.0.0.1:8012"
	cfg.Server.BasePath = "/api"
	cfg.Wallet.Address = "0xYourAddress"
	return &cfg
}

// Load reads pal.yml from the workspace, falling back to defaults
// when the file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Fields
// left unset keep the default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
