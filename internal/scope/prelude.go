package scope

import (
	"github.com/roach88/tempo/internal/types"
)

// Builtin variable IDs live below zero so they never collide with IDs handed
// out by the binder.
const (
	PiID = -1
)

// Prelude returns a fresh root scope holding the standard library. Program
// scopes are children of the prelude, so user code may shadow any builtin.
func Prelude() *Scope {
	s := New()
	unary := []string{"sin", "cos", "sqrt", "exp", "ln"}
	for _, name := range unary {
		mustDeclare(s, Measure{Name: name, Params: []types.Type{types.Number}, Return: types.Number, Builtin: true})
	}
	mustDeclare(s, Measure{Name: "hypot", Params: []types.Type{types.Number, types.Number}, Return: types.Number, Builtin: true})
	mustDeclare(s, Measure{Name: "print", Params: []types.Type{types.Any}, Return: types.Void, Builtin: true})
	mustDeclare(s, Variable{ID: PiID, Name: "pi", Type: types.Number, Mutable: false})
	return s
}

func mustDeclare(s *Scope, sym Symbol) {
	if err := s.Declare(sym.SymbolName(), sym); err != nil {
		panic(err)
	}
}
