package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/circuitrank/internal/domain"
	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
	"github.com/kailas-cloud/circuitrank/internal/domain/text"
)

func newDefaultMatcher(t *testing.T) *Matcher {
	t.Helper()
	table, err := DefaultTable()
	require.NoError(t, err)
	m, err := NewMatcher(table)
	require.NoError(t, err)
	return m
}

func structure(types ...string) circuit.Structure {
	return circuit.Structure{Types: types} // callers pass sorted types
}

func TestDetect(t *testing.T) {
	m := newDefaultMatcher(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"multiplexer", []string{"multiplexer"}},
		{"4:1 MUX", []string{"multiplexer"}},
		{"data selector", []string{"multiplexer"}},
		{"demux", []string{"demultiplexer"}},
		{"Flip-Flop", []string{"flip flop"}},
		{"jk flip flops", []string{"flip flop"}},
		{"seven segment display", []string{"seven segment"}},
		{"multiplexers and counters", []string{"multiplexer", "counter"}},
		{"muxes", []string{"multiplexer"}},
		{"d latches", []string{"latch"}},
		{"the flip-flops'", []string{"flip flop"}},
		{"memories", []string{"memory element"}},
		{"mux mux multiplexer", []string{"multiplexer"}},
		{"traffic light", nil},
		{"", nil},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			intent := m.Detect(text.Tokenize(tc.query))
			if tc.want == nil {
				assert.True(t, intent.Empty())
				return
			}
			assert.Equal(t, tc.want, intent.Names())
		})
	}
}

func TestIntentScore(t *testing.T) {
	m := newDefaultMatcher(t)
	mux := m.Detect(text.Tokenize("multiplexer"))

	t.Run("match", func(t *testing.T) {
		assert.Equal(t, 1.0, mux.Score(structure(circuit.Input, circuit.Multiplexer)))
	})

	t.Run("confusable is penalized below empty", func(t *testing.T) {
		confused := mux.Score(structure(circuit.Demultiplexer))
		empty := mux.Score(structure())
		assert.Equal(t, 0.0, confused)
		assert.Equal(t, 0.5, empty)
		assert.Less(t, confused, empty)
	})

	t.Run("match beats confusable when both present", func(t *testing.T) {
		assert.Equal(t, 1.0, mux.Score(structure(circuit.Demultiplexer, circuit.Multiplexer)))
	})

	t.Run("no intent is neutral", func(t *testing.T) {
		none := m.Detect(text.Tokenize("traffic light controller"))
		assert.Equal(t, NeutralScore, none.Score(structure(circuit.Demultiplexer)))
	})

	t.Run("mixed concepts average", func(t *testing.T) {
		both := m.Detect(text.Tokenize("mux counter"))
		// +1 for multiplexer, 0 for counter -> mean 0.5 -> 0.75
		assert.InDelta(t, 0.75, both.Score(structure(circuit.Multiplexer)), 1e-9)
		// -1 for multiplexer, +1 for counter -> mean 0 -> 0.5
		assert.InDelta(t, 0.5, both.Score(structure(circuit.Counter, circuit.Demultiplexer)), 1e-9)
	})

	t.Run("group concept matches any member", func(t *testing.T) {
		ff := m.Detect(text.Tokenize("flip flop"))
		assert.Equal(t, 1.0, ff.Score(structure(circuit.Clock, circuit.TFlipFlop)))
	})
}

func TestParseTable_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid yaml":  "concepts: [",
		"no concepts":   "concepts: []",
		"missing name":  "concepts:\n  - terms: [a]\n    match: [A]\n",
		"missing terms": "concepts:\n  - name: a\n    match: [A]\n",
		"missing match": "concepts:\n  - name: a\n    terms: [a]\n",
		"empty term":    "concepts:\n  - name: a\n    terms: ['--']\n    match: [A]\n",
		"duplicate term": "concepts:\n  - name: a\n    terms: [mux]\n    match: [A]\n" +
			"  - name: b\n    terms: [MUX]\n    match: [B]\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable([]byte(data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration), err)
		})
	}
}

func TestParseTable_Custom(t *testing.T) {
	data := []byte(`
concepts:
  - name: tristate
    terms: [tri state, tristate buffer]
    match: [TriState]
`)
	table, err := ParseTable(data)
	require.NoError(t, err)
	m, err := NewMatcher(table)
	require.NoError(t, err)

	intent := m.Detect(text.Tokenize("tri-state buffer"))
	assert.Equal(t, []string{"tristate"}, intent.Names())
	assert.Equal(t, 1.0, intent.Score(structure("TriState")))
}
