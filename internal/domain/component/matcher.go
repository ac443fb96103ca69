package component

import (
	"strings"

	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
	"github.com/kailas-cloud/circuitrank/internal/domain/text"
)

// NeutralScore is the component score when a query names no component.
const NeutralScore = 0.5

// Matcher recognizes concepts in query tokens. Immutable after construction.
type Matcher struct {
	concepts  []Concept
	phrases   map[string]int // normalized term -> concept index
	maxPhrase int
}

// NewMatcher builds a matcher from a validated table.
func NewMatcher(t Table) (*Matcher, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{
		concepts: t.Concepts,
		phrases:  make(map[string]int),
	}
	for i, c := range t.Concepts {
		for _, term := range c.Terms {
			words := normalizedWords(term)
			m.phrases[strings.Join(words, " ")] = i
			if len(words) > m.maxPhrase {
				m.maxPhrase = len(words)
			}
		}
	}
	return m, nil
}

// Intent is the set of concepts a query mentions, in order of first mention.
type Intent struct {
	concepts []*Concept
}

// Detect scans query tokens for known terms, longest phrase first, without overlap.
func (m *Matcher) Detect(tokens []string) Intent {
	var intent Intent
	seen := make(map[int]bool)
	for i := 0; i < len(tokens); {
		idx, width := m.longestAt(tokens, i)
		if width == 0 {
			i++
			continue
		}
		if !seen[idx] {
			seen[idx] = true
			intent.concepts = append(intent.concepts, &m.concepts[idx])
		}
		i += width
	}
	return intent
}

func (m *Matcher) longestAt(tokens []string, start int) (int, int) {
	for width := min(m.maxPhrase, len(tokens)-start); width > 0; width-- {
		phrase := strings.Join(tokens[start:start+width], " ")
		if idx, ok := m.phrases[phrase]; ok {
			return idx, width
		}
		for _, singular := range singulars(phrase) {
			if idx, ok := m.phrases[singular]; ok {
				return idx, width
			}
		}
	}
	return 0, 0
}

// singulars returns candidate singular forms of an English plural:
// "flip flops", "muxes", "latches", "memories".
func singulars(phrase string) []string {
	var out []string
	if stem, ok := strings.CutSuffix(phrase, "ies"); ok {
		out = append(out, stem+"y")
	}
	if stem, ok := strings.CutSuffix(phrase, "es"); ok {
		out = append(out, stem)
	}
	if stem, ok := strings.CutSuffix(phrase, "s"); ok {
		out = append(out, stem)
	}
	return out
}

// Empty reports whether no concept was recognized.
func (in Intent) Empty() bool { return len(in.concepts) == 0 }

// Names returns recognized concept names.
func (in Intent) Names() []string {
	names := make([]string, len(in.concepts))
	for i, c := range in.concepts {
		names[i] = c.Name
	}
	return names
}

// Score rates a circuit structure against the intent.
// Each concept contributes +1 when a matching type is present, -1 when only a
// confusable type is present, 0 otherwise. The mean in [-1,1] maps to [0,1],
// so a hit is 1, a confusable-only circuit is 0 and an unrelated one is 0.5.
func (in Intent) Score(s circuit.Structure) float64 {
	if in.Empty() {
		return NeutralScore
	}
	var sum float64
	for _, c := range in.concepts {
		sum += contribution(c, s)
	}
	mean := sum / float64(len(in.concepts))
	return clip((mean+1)/2, 0, 1)
}

func contribution(c *Concept, s circuit.Structure) float64 {
	for _, t := range c.Match {
		if s.Has(t) {
			return 1
		}
	}
	for _, t := range c.Confusable {
		if s.Has(t) {
			return -1
		}
	}
	return 0
}

func normalizedWords(term string) []string {
	return text.Tokenize(term)
}

func clip(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
