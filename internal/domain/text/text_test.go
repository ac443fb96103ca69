package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"only separators", " -/():_ ", []string{}},
		{"hyphen and slash", "Lab-4/CSA", []string{"lab", "4", "csa"}},
		{"parentheses", "Homework-1(20MIC0089)", []string{"homework", "1", "20mic0089"}},
		{"colon and underscore", "Modules: MEMORY_ELEMENT", []string{"modules", "memory", "element"}},
		{"sentence", "Sequential logic circuit. Clocked operation.",
			[]string{"sequential", "logic", "circuit", "clocked", "operation"}},
		{"single characters kept", "a 4 b", []string{"a", "4", "b"}},
		{"unicode letters", "Schaltkreis Größe", []string{"schaltkreis", "größe"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.in))
		})
	}
}

func TestTokenize_Idempotent(t *testing.T) {
	inputs := []string{
		"LAB 4 CSA",
		"DE/MEM E",
		"Components: 12 total, 4 types. 2 D flip-flops, 3 inputs.",
	}
	for _, in := range inputs {
		once := Tokenize(in)
		twice := Tokenize(strings.Join(once, " "))
		assert.Equal(t, once, twice, in)
	}
}

func TestTokenize_NeverNil(t *testing.T) {
	assert.NotNil(t, Tokenize(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "flip flop", Normalize("Flip-Flop"))
	assert.Equal(t, "", Normalize("--"))
}
