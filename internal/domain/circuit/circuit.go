// Package circuit models catalog records and their enriched, searchable form.
package circuit

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Component type names as reported by the catalog.
const (
	Input           = "Input"
	Output          = "Output"
	Clock           = "Clock"
	AndGate         = "AndGate"
	OrGate          = "OrGate"
	NotGate         = "NotGate"
	XorGate         = "XorGate"
	XnorGate        = "XnorGate"
	DFlipFlop       = "DflipFlop"
	SRFlipFlop      = "SRflipFlop"
	JKFlipFlop      = "JKflipFlop"
	TFlipFlop       = "TflipFlop"
	FullAdder       = "FullAdder"
	HalfAdder       = "HalfAdder"
	ALU             = "ALU"
	Multiplexer     = "Multiplexer"
	Demultiplexer   = "Demultiplexer"
	Decoder         = "Decoder"
	Encoder         = "Encoder"
	Counter         = "Counter"
	SevenSegDisplay = "SevenSegDisplay"
	HexDisplay      = "HexDisplay"
	RGBLed          = "RGBLed"
	LED             = "LED"
	DigitalLed      = "DigitalLed"
	VariableLed     = "VariableLed"
	RAM             = "Ram"
	ROM             = "Rom"
	EEPROM          = "EEPROM"
	SubCircuit      = "SubCircuit"
)

// Record is one catalog item as fetched. Missing fields are zero values.
type Record struct {
	ID              string
	Name            string
	Description     string
	Tags            []string
	ScopeNames      []string
	Components      []string
	ComponentCounts map[string]int
	Views           int
	CreatedAt       time.Time
	AccessType      string
}

// Breakdown returns per-type component counts. Explicit counts win over the
// component list; otherwise the list is tallied. Zero and negative counts are dropped.
func (r *Record) Breakdown() map[string]int {
	out := make(map[string]int)
	if len(r.ComponentCounts) > 0 {
		for t, n := range r.ComponentCounts {
			if n > 0 {
				out[t] = n
			}
		}
		return out
	}
	for _, t := range r.Components {
		out[t]++
	}
	return out
}

// CountsConsistent reports whether explicit counts, when both counts and the
// list are present, sum to the list length.
func (r *Record) CountsConsistent() bool {
	if len(r.ComponentCounts) == 0 || len(r.Components) == 0 {
		return true
	}
	sum := 0
	for _, n := range r.ComponentCounts {
		sum += n
	}
	return sum == len(r.Components)
}

// Pattern is the dominant structural tag of a circuit.
type Pattern string

// Pattern taxonomy.
const (
	PatternSequential    Pattern = "sequential"
	PatternDisplay       Pattern = "display"
	PatternArithmetic    Pattern = "arithmetic"
	PatternCombinational Pattern = "combinational"
	PatternUnclassified  Pattern = "unclassified"
)

// Structure is the structural summary derived from a record's components.
type Structure struct {
	Types   []string // sorted, distinct component types present
	Pattern Pattern
}

// Has reports whether a component type is present.
func (s Structure) Has(componentType string) bool {
	i := sort.SearchStrings(s.Types, componentType)
	return i < len(s.Types) && s.Types[i] == componentType
}

// Enriched is the searchable representation of a record.
type Enriched struct {
	ID        string
	Name      string // display only; never scored on its own
	Text      string
	Structure Structure
}

// CompareIDs orders identifiers: numerically when both are decimal integers,
// lexicographically otherwise. Numeric IDs sort before non-numeric ones.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
