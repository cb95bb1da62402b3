package scope

import (
	"github.com/roach88/tempo/internal/types"
)

// Symbol is a sealed interface for everything a name can be bound to.
// Only Variable, Measure and RecordType implement it.
type Symbol interface {
	SymbolName() string
	symbol()
}

// Variable is a note (let/const), parameter or loop variable.
//
// ID is unique within one analysis and distinguishes shadowed variables that
// share a name. Builtin variables have negative IDs.
type Variable struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Type    types.Type `json:"-"`
	Mutable bool       `json:"mutable"`
}

func (Variable) symbol()              {}
func (v Variable) SymbolName() string { return v.Name }

// Measure is a function declaration's signature.
type Measure struct {
	Name    string
	Params  []types.Type
	Return  types.Type
	Builtin bool
}

func (Measure) symbol()              {}
func (m Measure) SymbolName() string { return m.Name }

// Type returns the function type of the measure.
func (m Measure) Type() *types.Function {
	return &types.Function{Params: m.Params, Return: m.Return}
}

// RecordType is a grand declaration.
type RecordType struct {
	Record *types.Record
}

func (RecordType) symbol()              {}
func (r RecordType) SymbolName() string { return r.Record.Name }
