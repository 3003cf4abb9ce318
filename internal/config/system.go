package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// SystemConfig represents the global configuration file
// (~/.confgate.yaml). Flags override everything in it.
type SystemConfig struct {
	// DefaultRules is the rule document used when --rules is omitted.
	DefaultRules string `yaml:"default_rules"`
	// DefaultFormat is the report format used when --format is omitted.
	DefaultFormat string `yaml:"default_format"`
	// Parallel bounds concurrent device evaluation; zero means one per CPU.
	Parallel int `yaml:"parallel"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// LoadSystemConfig loads the system configuration from the specified path.
// If the file does not exist, it returns an empty config without error.
func LoadSystemConfig(path string) (*SystemConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &SystemConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	var config SystemConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}

	return &config, nil
}
