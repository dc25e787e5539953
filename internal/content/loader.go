package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCreatureFromBytes parses and validates a single creature definition.
//
// Precondition: data contains YAML conforming to the creature schema.
// Postcondition: The returned creature has passed Validate.
func LoadCreatureFromBytes(data []byte) (*Creature, error) {
	var c Creature
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("content: LoadCreatureFromBytes: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("content: LoadCreatureFromBytes: %w", err)
	}
	return &c, nil
}

// LoadCreatures loads every .yaml file directly under dir. Subdirectories
// and other extensions are skipped. os.ReadDir sorts entries by name, so
// load order, and with it id allocation order, is stable across runs.
//
// Postcondition: Either every definition loaded and validated, or the
// first failure is returned with its file name and nothing is returned.
func LoadCreatures(dir string) ([]*Creature, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("content: LoadCreatures: %w", err)
	}
	var creatures []*Creature
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("content: LoadCreatures: %w", err)
		}
		c, err := LoadCreatureFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("content: LoadCreatures: %s: %w", entry.Name(), err)
		}
		creatures = append(creatures, c)
	}
	return creatures, nil
}
