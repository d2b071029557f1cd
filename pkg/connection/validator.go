// Package connection classifies panel-to-panel feed connections by
// voltage and phase compatibility. It is a pure decision table with no
// dependencies; every input combination resolves to exactly one severity.
package connection

import (
	"fmt"
	"math"
)

// Severity classifies a proposed connection.
type Severity int

const (
	// Allow means the connection is electrically sound.
	Allow Severity = iota
	// Warn means the connection is valid but unusual; the advisory must
	// be surfaced to the caller.
	Warn
	// Block means the connection is invalid without a transformer.
	Block
)

func (s Severity) String() string {
	switch s {
	case Allow:
		return "allow"
	case Warn:
		return "warn"
	case Block:
		return "block"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler for JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the classification of one candidate feed edge.
type Result struct {
	Severity            Severity `json:"severity"`
	RequiresTransformer bool     `json:"requiresTransformer"`
	Reason              string   `json:"reason"`
}

// Validate classifies a connection from a source node at (sourceV,
// sourceP) to a destination panel at (destV, destP). Rules are applied in
// priority order; anything unmatched blocks conservatively.
func Validate(sourceV, sourceP, destV, destP int) Result {
	// Identical voltage and phase.
	if sourceV == destV && sourceP == destP {
		return Result{
			Severity: Allow,
			Reason:   fmt.Sprintf("%dV %d-phase matches source", destV, destP),
		}
	}

	// Wye line-to-neutral derivative: 3-phase source feeding a 1-phase
	// panel at V/sqrt(3), within 1V of rounding (480->277, 208->120).
	if sourceP == 3 && destP == 1 {
		derived := int(math.Round(float64(sourceV) / math.Sqrt(3)))
		if abs(destV-derived) <= 1 {
			return Result{
				Severity: Allow,
				Reason:   fmt.Sprintf("%dV line-to-neutral tap of %dV wye source", destV, sourceV),
			}
		}
	}

	// Split-phase center tap: 240V/1ph source feeding 120V/1ph.
	if sourceV == 240 && sourceP == 1 && destV == 120 && destP == 1 {
		return Result{
			Severity: Allow,
			Reason:   "120V center-tap neutral from 240V split-phase source",
		}
	}

	// High-leg delta: 240V/3ph source feeding 120V/1ph. Only two of the
	// three phases give 120V to neutral.
	if sourceV == 240 && sourceP == 3 && destV == 120 && destP == 1 {
		return Result{
			Severity: Warn,
			Reason:   "high-leg delta: only two phases provide 120V to neutral; verify phase assignment",
		}
	}

	// Same voltage, 3-phase source to 1-phase panel: a valid but unusual
	// line-to-line tap.
	if sourceV == destV && sourceP == 3 && destP == 1 {
		return Result{
			Severity: Warn,
			Reason:   fmt.Sprintf("single-phase line-to-line tap of %dV 3-phase source is unusual", destV),
		}
	}

	// Three-phase cannot be synthesized from a single-phase source.
	if sourceP == 1 && destP == 3 {
		return Result{
			Severity:            Block,
			RequiresTransformer: true,
			Reason:              "cannot derive 3-phase from a single-phase source; a transformer is required",
		}
	}

	// Any remaining voltage mismatch.
	if sourceV != destV {
		return Result{
			Severity:            Block,
			RequiresTransformer: true,
			Reason:              fmt.Sprintf("%dV panel cannot be fed from %dV source without a transformer", destV, sourceV),
		}
	}

	// Conservative default for anything unclassified.
	return Result{
		Severity:            Block,
		RequiresTransformer: true,
		Reason:              fmt.Sprintf("unsupported connection %dV/%dph to %dV/%dph", sourceV, sourceP, destV, destP),
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
