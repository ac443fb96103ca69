// Package enrich turns sparse catalog records into dense searchable text.
package enrich

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
)

// EmptyText is the enriched text of a record with no usable metadata.
const EmptyText = "Empty circuit."

// Config tunes enrichment.
type Config struct {
	// XORRatioThreshold is the share of XOR/XNOR gates marking a circuit arithmetic.
	XORRatioThreshold float64
	// MaxDescriptionChars truncates descriptions; 0 keeps them whole.
	MaxDescriptionChars int
}

// DefaultConfig returns the default enrichment settings.
func DefaultConfig() Config {
	return Config{XORRatioThreshold: 0.3}
}

// Validate checks thresholds.
func (c Config) Validate() error {
	if c.XORRatioThreshold <= 0 || c.XORRatioThreshold > 1 {
		return fmt.Errorf("%w: xor ratio threshold must be in (0,1], got %v",
			domain.ErrConfiguration, c.XORRatioThreshold)
	}
	if c.MaxDescriptionChars < 0 {
		return fmt.Errorf("%w: max description chars must be >= 0, got %d",
			domain.ErrConfiguration, c.MaxDescriptionChars)
	}
	return nil
}

// Pipeline enriches records. It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	cfg    Config
	policy *bluemonday.Policy
}

// New creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, policy: bluemonday.StrictPolicy()}, nil
}

// Enrich builds the enriched document for r. Clause order: base text, modules,
// pattern, component summary.
func (p *Pipeline) Enrich(r *circuit.Record) circuit.Enriched {
	counts := r.Breakdown()
	f := facts{counts: counts}
	for _, n := range counts {
		f.total += n
	}

	var clauses []string
	clauses = append(clauses, p.baseClauses(r)...)
	if m := modulesClause(r.ScopeNames); m != "" {
		clauses = append(clauses, m)
	}
	pattern, patternClauses := classify(f, p.cfg)
	clauses = append(clauses, patternClauses...)
	if s := summaryClause(f); s != "" {
		clauses = append(clauses, s)
	}

	body := strings.Join(clauses, " ")
	if body == "" {
		body = EmptyText
	}

	return circuit.Enriched{
		ID:   r.ID,
		Name: r.Name,
		Text: body,
		Structure: circuit.Structure{
			Types:   sortedTypes(counts),
			Pattern: pattern,
		},
	}
}

func (p *Pipeline) baseClauses(r *circuit.Record) []string {
	var out []string
	if name := strings.TrimSpace(r.Name); name != "" {
		out = append(out, sentence(name))
	}
	if desc := p.cleanDescription(r.Description); desc != "" {
		out = append(out, sentence(desc))
	}
	var tags []string
	for _, t := range r.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		out = append(out, sentence("Tags: "+strings.Join(tags, ", ")))
	}
	return out
}

// cleanDescription strips markup, unescapes entities and collapses whitespace.
func (p *Pipeline) cleanDescription(desc string) string {
	if desc == "" {
		return ""
	}
	clean := html.UnescapeString(p.policy.Sanitize(desc))
	clean = strings.Join(strings.Fields(clean), " ")
	if limit := p.cfg.MaxDescriptionChars; limit > 0 {
		if runes := []rune(clean); len(runes) > limit {
			clean = strings.TrimSpace(string(runes[:limit]))
		}
	}
	return clean
}

// modulesClause keeps scope names verbatim: they are often the only precise
// domain terms a circuit carries.
func modulesClause(scopes []string) string {
	var names []string
	for _, s := range scopes {
		if strings.TrimSpace(s) != "" {
			names = append(names, s)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return sentence("Modules: " + strings.Join(names, ", "))
}

func summaryClause(f facts) string {
	if f.total == 0 {
		return ""
	}
	types := orderedSummaryTypes(f.counts)
	phrases := make([]string, 0, len(types))
	for _, t := range types {
		phrases = append(phrases, componentPhrase(t, f.counts[t]))
	}
	return fmt.Sprintf("Components: %d total, %d %s. %s.",
		f.total, len(types), plural("type", len(types)), strings.Join(phrases, ", "))
}

// orderedSummaryTypes lists inputs, outputs, then the rest by name.
func orderedSummaryTypes(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for _, t := range []string{circuit.Input, circuit.Output} {
		if counts[t] > 0 {
			out = append(out, t)
		}
	}
	var rest []string
	for t, n := range counts {
		if n > 0 && t != circuit.Input && t != circuit.Output {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func sortedTypes(counts map[string]int) []string {
	types := make([]string, 0, len(counts))
	for t, n := range counts {
		if n > 0 {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

func sentence(s string) string {
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}
