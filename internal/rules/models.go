package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Rule is one entry in the spawn manifest. When is a CEL expression over
// the region/player/clock context; an empty When always matches. Pool is
// the species pool the spawn draws from when this rule fires.
type Rule struct {
	Name    string   `yaml:"name"`
	When    string   `yaml:"when,omitempty"`
	Pool    []string `yaml:"pool"`
	Boosted bool     `yaml:"boosted,omitempty"`
}

// Manifest is the full ordered rule list for a deployment.
type Manifest struct {
	Rules []Rule `yaml:"rules"`
}

// LoadManifest reads spawns.yaml from the first data directory that has
// one. A missing manifest is not an error; spawning falls back to the
// region's default pool.
func LoadManifest(dataDirs []string) (*Manifest, error) {
	for _, dir := range dataDirs {
		path := filepath.Join(dir, "spawns.yaml")
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var m Manifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to decode spawn manifest %s: %w", path, err)
		}
		return &m, nil
	}
	return &Manifest{}, nil
}
