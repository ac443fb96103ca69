package enrich

import (
	"fmt"

	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
)

var (
	sequentialTypes = []string{
		circuit.DFlipFlop, circuit.SRFlipFlop, circuit.JKFlipFlop, circuit.TFlipFlop, circuit.Clock,
	}
	displayTypes = []string{
		circuit.SevenSegDisplay, circuit.HexDisplay, circuit.RGBLed,
		circuit.LED, circuit.DigitalLed, circuit.VariableLed,
	}
	xorTypes   = []string{circuit.XorGate, circuit.XnorGate}
	adderTypes = []string{circuit.FullAdder, circuit.HalfAdder, circuit.ALU}
)

// facts are the structural inputs of the classifier.
type facts struct {
	counts map[string]int
	total  int
}

func (f facts) count(types ...string) int {
	n := 0
	for _, t := range types {
		n += f.counts[t]
	}
	return n
}

// rule is one row of the ordered classifier table.
type rule struct {
	pattern circuit.Pattern
	applies func(f facts, cfg Config) bool
	clauses func(f facts) []string
}

// classifierRules is evaluated top to bottom; the first applicable rule wins.
var classifierRules = []rule{
	{
		pattern: circuit.PatternSequential,
		applies: func(f facts, _ Config) bool { return f.count(sequentialTypes...) > 0 },
		clauses: func(f facts) []string {
			out := []string{"Sequential logic circuit."}
			if f.counts[circuit.Clock] > 0 {
				out = append(out, "Clocked operation.")
			}
			return out
		},
	},
	{
		pattern: circuit.PatternDisplay,
		applies: func(f facts, _ Config) bool { return f.count(displayTypes...) > 0 },
		clauses: func(f facts) []string {
			n := f.count(displayTypes...)
			return []string{fmt.Sprintf("Display circuit with %d display %s.", n, plural("component", n))}
		},
	},
	{
		pattern: circuit.PatternArithmetic,
		applies: func(f facts, cfg Config) bool {
			if f.count(adderTypes...) > 0 {
				return true
			}
			return f.total > 0 && float64(f.count(xorTypes...))/float64(f.total) >= cfg.XORRatioThreshold
		},
		clauses: func(facts) []string { return []string{"Arithmetic logic circuit."} },
	},
	{
		pattern: circuit.PatternCombinational,
		applies: func(f facts, _ Config) bool { return f.total > 0 },
		clauses: func(facts) []string { return []string{"Combinational logic circuit."} },
	},
	{
		pattern: circuit.PatternUnclassified,
		applies: func(facts, Config) bool { return true },
		clauses: func(facts) []string { return nil },
	},
}

// classify returns the first matching pattern and its clauses.
func classify(f facts, cfg Config) (circuit.Pattern, []string) {
	for _, r := range classifierRules {
		if r.applies(f, cfg) {
			return r.pattern, r.clauses(f)
		}
	}
	return circuit.PatternUnclassified, nil
}
