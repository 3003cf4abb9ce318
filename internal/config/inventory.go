package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/confgate-dev/confgate/internal/engine"
)

// Device is one entry of a scan inventory.
type Device struct {
	// Name identifies the device in reports. Defaults to the config
	// file's base name without extension.
	Name string `yaml:"name"`
	// ConfigPath points at the device's configuration snapshot.
	ConfigPath string `yaml:"config_path"`
	// Tags are free-form labels; they are informational for now.
	Tags []string `yaml:"tags,omitempty"`
}

// Inventory lists the devices of one scan.
type Inventory struct {
	Devices []Device `yaml:"devices"`
}

// LoadInventory loads a YAML device inventory. Relative config paths are
// resolved against the inventory file's directory.
func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}
	if len(inv.Devices) == 0 {
		return nil, fmt.Errorf("inventory %s lists no devices", path)
	}

	dir := filepath.Dir(path)
	seen := make(map[string]bool, len(inv.Devices))
	for i := range inv.Devices {
		d := &inv.Devices[i]
		if d.ConfigPath == "" {
			return nil, fmt.Errorf("inventory device %d: config_path is required", i)
		}
		if !filepath.IsAbs(d.ConfigPath) {
			d.ConfigPath = filepath.Join(dir, d.ConfigPath)
		}
		if d.Name == "" {
			base := filepath.Base(d.ConfigPath)
			d.Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("inventory device name %q is duplicated", d.Name)
		}
		seen[d.Name] = true
	}
	return &inv, nil
}

// Targets reads every device's configuration file and returns the scan
// targets in inventory order.
func (inv *Inventory) Targets() ([]engine.Target, error) {
	targets := make([]engine.Target, 0, len(inv.Devices))
	for _, d := range inv.Devices {
		text, err := readConfigFile(d.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", d.Name, err)
		}
		targets = append(targets, engine.Target{Name: d.Name, Text: text})
	}
	return targets, nil
}

// readConfigFile reads one configuration snapshot, confined to its
// directory the same way the rules loader is.
func readConfigFile(path string) (string, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("failed to open config directory: %w", err)
	}
	defer root.Close()

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return string(data), nil
}
