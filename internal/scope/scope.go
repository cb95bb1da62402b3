// Package scope implements the lexical scope chain used during binding.
//
// A Scope maps names to Symbols and points to its parent. Each scope also
// carries the inLoop flag and the return type of the enclosing measure, both
// inherited by children unless overridden. Scopes are plain values threaded
// through the binder; nothing here is global.
package scope

import (
	"github.com/roach88/tempo/internal/diag"
	"github.com/roach88/tempo/internal/types"
)

// Scope is one level of the lexical scope chain.
type Scope struct {
	parent     *Scope
	symbols    map[string]Symbol
	inLoop     bool
	returnType types.Type // nil outside any measure
}

// New returns an empty root scope.
func New() *Scope {
	return &Scope{symbols: make(map[string]Symbol)}
}

// Option configures a child scope.
type Option func(*Scope)

// Loop marks the child as a loop body.
func Loop() Option {
	return func(s *Scope) { s.inLoop = true }
}

// Function marks the child as the body of a measure returning ret.
// A measure body is never inside a loop, even when declared in one.
func Function(ret types.Type) Option {
	return func(s *Scope) {
		s.returnType = ret
		s.inLoop = false
	}
}

// Child returns a new scope nested in s. Flags are inherited from s and then
// adjusted by opts.
func (s *Scope) Child(opts ...Option) *Scope {
	c := &Scope{
		parent:     s,
		symbols:    make(map[string]Symbol),
		inLoop:     s.inLoop,
		returnType: s.returnType,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parent returns the enclosing scope, or nil for a root.
func (s *Scope) Parent() *Scope { return s.parent }

// InLoop reports whether break is legal here.
func (s *Scope) InLoop() bool { return s.inLoop }

// ReturnType returns the enclosing measure's return type. ok is false
// outside any measure.
func (s *Scope) ReturnType() (ret types.Type, ok bool) {
	return s.returnType, s.returnType != nil
}

// Declare binds name in this scope. Shadowing a name from an ancestor is
// allowed; redeclaring one in the same scope is a ScopeError.
func (s *Scope) Declare(name string, sym Symbol) error {
	if _, exists := s.symbols[name]; exists {
		return diag.Scopef(diag.ErrAlreadyDeclared, diag.Pos{}, "Identifier %s already declared", name)
	}
	s.symbols[name] = sym
	return nil
}

// Lookup walks from s outward and returns the first symbol bound to name.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal finds name in s only.
func (s *Scope) LookupLocal(name string) (Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Len returns the number of symbols declared directly in s.
func (s *Scope) Len() int { return len(s.symbols) }
