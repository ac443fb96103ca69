// Package catalog reads circuit records from catalog export files.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
)

// Catalog is the decoded content of one export file.
type Catalog struct {
	Records []circuit.Record
	// Skipped holds one error per element that could not be decoded at all.
	Skipped []error
}

// LoadFile reads a JSON array of circuits from path.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // operator-provided path
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Decode reads a JSON array of circuits. A malformed array fails as a whole;
// a malformed element is skipped and reported.
func Decode(r io.Reader) (Catalog, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Catalog{}, fmt.Errorf("decode array: %v: %w", err, domain.ErrMalformedInput)
	}

	c := Catalog{Records: make([]circuit.Record, 0, len(raw))}
	for i, elem := range raw {
		var dto circuitDTO
		if err := json.Unmarshal(elem, &dto); err != nil {
			c.Skipped = append(c.Skipped, fmt.Errorf("element %d: %v: %w", i, err, domain.ErrMalformedInput))
			continue
		}
		rec, err := dto.toRecord()
		if err != nil {
			c.Skipped = append(c.Skipped, fmt.Errorf("element %d: %v: %w", i, err, domain.ErrMalformedInput))
			continue
		}
		c.Records = append(c.Records, rec)
	}
	return c, nil
}
