package compiler

import (
	"fmt"

	"github.com/roach88/tempo/internal/diag"
	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/syntax"
	"github.com/roach88/tempo/internal/types"
)

// resolveType turns a type expression into a Type, resolving record names in
// sc.
func (b *binder) resolveType(n *syntax.Node, sc *scope.Scope) (types.Type, error) {
	switch n.Kind {
	case syntax.KindNamedType:
		if p, ok := types.LookupPrimitive(n.Text); ok {
			return p, nil
		}
		sym, ok := sc.Lookup(n.Text)
		if !ok {
			return nil, diag.Scopef(diag.ErrUndeclared, n.Pos, "Identifier %s not declared", n.Text)
		}
		rt, ok := sym.(scope.RecordType)
		if !ok {
			return nil, diag.Scopef(diag.ErrNotAType, n.Pos, "%s is not a type", n.Text)
		}
		return rt.Record, nil
	case syntax.KindOptionalType:
		inner, err := b.resolveType(n.Child(0), sc)
		if err != nil {
			return nil, err
		}
		if types.IsOptional(inner) {
			return nil, diag.Typef(diag.ErrAlreadyOptional, n.Pos, "Already an optional type")
		}
		return types.OptionalOf(inner), nil
	case syntax.KindArrayType:
		el, err := b.resolveType(n.Child(0), sc)
		if err != nil {
			return nil, err
		}
		return types.ArrayOf(el), nil
	case syntax.KindFunctionType:
		list := n.Child(0).Children
		params := make([]types.Type, len(list))
		for i, p := range list {
			t, err := b.resolveType(p, sc)
			if err != nil {
				return nil, err
			}
			params[i] = t
		}
		ret, err := b.resolveType(n.Child(1), sc)
		if err != nil {
			return nil, err
		}
		return &types.Function{Params: params, Return: ret}, nil
	default:
		return nil, fmt.Errorf("analyze: unexpected type node %s at %s", n.Kind, n.Pos)
	}
}
