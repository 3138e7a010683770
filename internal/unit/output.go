package unit

import "github.com/zclconf/go-cty/cty"

type outputKind int

const (
	skipOutput outputKind = iota
	valueOutput
	arrayOutput
)

// Output is one produced output socket value: a concrete value, an ordered
// element sequence for an array socket, or Skip. The zero Output is Skip, so
// an unset position in a result never propagates anything downstream.
type Output struct {
	kind  outputKind
	value cty.Value
	elems []Output
}

// Skip is the suppression marker: downstream connections sourced from a
// skipped socket receive nothing and are not triggered.
var Skip = Output{kind: skipOutput}

// Val wraps a concrete value for a scalar output socket.
func Val(v cty.Value) Output {
	return Output{kind: valueOutput, value: v}
}

// Arr builds the ordered element sequence for an array output socket.
// Individual elements may be Skip to suppress just their slot.
func Arr(elems ...Output) Output {
	return Output{kind: arrayOutput, elems: elems}
}

// IsSkip reports whether the output suppresses propagation entirely.
func (o Output) IsSkip() bool { return o.kind == skipOutput }

// IsArray reports whether the output is an ordered element sequence.
func (o Output) IsArray() bool { return o.kind == arrayOutput }

// Value returns the concrete value, or cty.NilVal for Skip and array outputs.
func (o Output) Value() cty.Value {
	if o.kind != valueOutput {
		return cty.NilVal
	}
	return o.value
}

// Elems returns the element sequence of an array output, nil otherwise.
func (o Output) Elems() []Output {
	if o.kind != arrayOutput {
		return nil
	}
	return o.elems
}
