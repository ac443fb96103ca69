// Package component resolves component vocabulary in queries against the
// structural component set of a circuit.
package component

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/text"
)

//go:embed default.yaml
var defaultTable []byte

// Concept is one entry of the synonym table.
type Concept struct {
	Name       string   `yaml:"name"`
	Terms      []string `yaml:"terms"`
	Match      []string `yaml:"match"`
	Confusable []string `yaml:"confusable"`
}

// Table is the static query vocabulary.
type Table struct {
	Concepts []Concept `yaml:"concepts"`
}

// DefaultTable returns the built-in vocabulary.
func DefaultTable() (Table, error) {
	return ParseTable(defaultTable)
}

// LoadTable reads a vocabulary file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Table{}, fmt.Errorf("read synonyms %s: %w", path, err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML vocabulary.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("%w: parse synonyms: %w", domain.ErrConfiguration, err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate checks every concept has a name, terms and match types, and that no
// term maps to two concepts.
func (t Table) Validate() error {
	if len(t.Concepts) == 0 {
		return fmt.Errorf("%w: synonym table has no concepts", domain.ErrConfiguration)
	}
	seen := make(map[string]string)
	for i, c := range t.Concepts {
		if c.Name == "" {
			return fmt.Errorf("%w: concept #%d has no name", domain.ErrConfiguration, i)
		}
		if len(c.Terms) == 0 {
			return fmt.Errorf("%w: concept %q has no terms", domain.ErrConfiguration, c.Name)
		}
		if len(c.Match) == 0 {
			return fmt.Errorf("%w: concept %q has no match types", domain.ErrConfiguration, c.Name)
		}
		for _, term := range c.Terms {
			norm := text.Normalize(term)
			if norm == "" {
				return fmt.Errorf("%w: concept %q has an empty term", domain.ErrConfiguration, c.Name)
			}
			if owner, dup := seen[norm]; dup && owner != c.Name {
				return fmt.Errorf("%w: term %q used by %q and %q",
					domain.ErrConfiguration, term, owner, c.Name)
			}
			seen[norm] = c.Name
		}
	}
	return nil
}
