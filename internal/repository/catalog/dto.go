package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
)

// circuitDTO is one element of the catalog file as written by the acquisition scripts.
type circuitDTO struct {
	ID                 json.RawMessage `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Tags               []string        `json:"tags"`
	ScopeNames         []string        `json:"scope_names"`
	Components         []string        `json:"components"`
	ComponentBreakdown map[string]int  `json:"component_breakdown"`
	ComponentCount     int             `json:"component_count"`
	View               int             `json:"view"`
	CreatedAt          string          `json:"created_at"`
	AccessType         string          `json:"project_access_type"`
}

// placeholderScopes are default tab names CircuitVerse gives new circuits.
var placeholderScopes = map[string]bool{
	"main":     true,
	"untitled": true,
}

const minScopeNameLen = 3

func (d *circuitDTO) toRecord() (circuit.Record, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return circuit.Record{}, err
	}
	return circuit.Record{
		ID:              id,
		Name:            d.Name,
		Description:     d.Description,
		Tags:            nonEmpty(d.Tags),
		ScopeNames:      cleanScopeNames(d.ScopeNames),
		Components:      d.Components,
		ComponentCounts: d.ComponentBreakdown,
		Views:           d.View,
		CreatedAt:       parseTime(d.CreatedAt),
		AccessType:      d.AccessType,
	}, nil
}

// parseID accepts the id as a JSON string or number. A missing or null id
// yields "", which the index builder rejects.
func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or number, got %s", raw)
	}
	return n.String(), nil
}

// cleanScopeNames drops placeholder and too-short names. Kept names are
// trimmed of surrounding whitespace only; casing and inner text stay verbatim.
func cleanScopeNames(names []string) []string {
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if len([]rune(n)) < minScopeNameLen || placeholderScopes[strings.ToLower(n)] {
			continue
		}
		out = append(out, n)
	}
	return out
}

func nonEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00", "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
