package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a versioned preset catalog.
type catalogFile struct {
	Version int        `yaml:"version"`
	Presets []Strategy `yaml:"presets"`
}

// LoadCatalog reads a preset catalog from a YAML file. Reweighting or
// swapping presets through the file changes no other component's contract.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(f.Presets) == 0 {
		return nil, fmt.Errorf("catalog %s: no presets", path)
	}
	return newCatalog(f.Presets), nil
}
