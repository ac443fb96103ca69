package enrich

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
)

// componentNouns overrides the CamelCase split for types whose catalog name
// reads badly as words.
var componentNouns = map[string]string{
	circuit.DFlipFlop:       "D flip-flop",
	circuit.SRFlipFlop:      "SR flip-flop",
	circuit.JKFlipFlop:      "JK flip-flop",
	circuit.TFlipFlop:       "T flip-flop",
	circuit.SevenSegDisplay: "7-segment display",
	circuit.SubCircuit:      "subcircuit module",
	circuit.RAM:             "RAM",
	circuit.ROM:             "ROM",
	circuit.LED:             "LED",
	circuit.RGBLed:          "RGB LED",
}

// componentPhrase renders "2 D flip-flops", "1 multiplexer", "3 and gates".
func componentPhrase(componentType string, n int) string {
	noun, ok := componentNouns[componentType]
	if !ok {
		noun = strings.ToLower(strings.Join(splitCamel(componentType), " "))
	}
	return fmt.Sprintf("%d %s", n, plural(noun, n))
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

// splitCamel splits "FullAdder" -> Full Adder, "ALUUnit" -> ALU Unit.
func splitCamel(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		boundary := (unicode.IsLower(prev) && unicode.IsUpper(cur)) ||
			(unicode.IsUpper(prev) && unicode.IsUpper(cur) && nextLower) ||
			(unicode.IsLetter(prev) && unicode.IsDigit(cur))
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}
