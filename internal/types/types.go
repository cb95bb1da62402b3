// Package types is the value model of tempo types and the assignability
// relation between them.
//
// Type is a closed sum: Primitive, *Optional, *Array, *Function, *Record and
// NilType. Equality is structural except for records, which match by
// declared name.
package types

import (
	"strings"

	"github.com/roach88/tempo/internal/diag"
)

// Type is a sealed interface; only the variants in this package implement it.
type Type interface {
	String() string
	isType()
}

// Primitive is one of the built-in scalar types.
type Primitive string

const (
	Number  Primitive = "number"
	Boolean Primitive = "boolean"
	String  Primitive = "string"
	Void    Primitive = "void"
	Any     Primitive = "any"
)

func (Primitive) isType()          {}
func (p Primitive) String() string { return string(p) }

// LookupPrimitive returns the primitive named name, if any.
func LookupPrimitive(name string) (Primitive, bool) {
	switch p := Primitive(name); p {
	case Number, Boolean, String, Void, Any:
		return p, true
	}
	return "", false
}

// Optional is T?.
type Optional struct {
	Inner Type
}

func (*Optional) isType() {}

func (o *Optional) String() string {
	if _, ok := o.Inner.(*Function); ok {
		return "(" + o.Inner.String() + ")?"
	}
	return o.Inner.String() + "?"
}

// Array is [T].
type Array struct {
	Element Type
}

func (*Array) isType() {}

func (a *Array) String() string { return "[" + a.Element.String() + "]" }

// Function is (P1, P2) -> R.
type Function struct {
	Params []Type
	Return Type
}

func (*Function) isType() {}

func (f *Function) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ",") + ")->" + f.Return.String()
}

// Field is a named, typed record member.
type Field struct {
	Name string
	Type Type
}

// Record is a nominal composite type.
type Record struct {
	Name   string
	Fields []Field
}

func (*Record) isType() {}

func (r *Record) String() string { return r.Name }

// Field returns the field called name.
func (r *Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// NilType is the type of the bare nil literal. It is assignable to any
// optional and to any, and to nothing else.
type NilType struct{}

func (NilType) isType()        {}
func (NilType) String() string { return "nil" }

// Nil is the single NilType value.
var Nil Type = NilType{}

// OptionalOf returns T?.
func OptionalOf(t Type) *Optional { return &Optional{Inner: t} }

// ArrayOf returns [T].
func ArrayOf(t Type) *Array { return &Array{Element: t} }

// FunctionOf returns (params) -> ret.
func FunctionOf(ret Type, params ...Type) *Function {
	return &Function{Params: params, Return: ret}
}

// Equal reports structural equality, with records compared by name.
func Equal(a, b Type) bool {
	switch at := a.(type) {
	case Primitive:
		bt, ok := b.(Primitive)
		return ok && at == bt
	case *Optional:
		bt, ok := b.(*Optional)
		return ok && Equal(at.Inner, bt.Inner)
	case *Array:
		bt, ok := b.(*Array)
		return ok && Equal(at.Element, bt.Element)
	case *Function:
		bt, ok := b.(*Function)
		if !ok || len(at.Params) != len(bt.Params) || !Equal(at.Return, bt.Return) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return true
	case *Record:
		bt, ok := b.(*Record)
		return ok && at.Name == bt.Name
	case NilType:
		_, ok := b.(NilType)
		return ok
	default:
		return false
	}
}

// IsAssignable reports whether a value of type from may be stored where a
// value of type to is expected.
func IsAssignable(from, to Type) bool {
	if to == Any || Equal(from, to) {
		return true
	}
	if opt, ok := to.(*Optional); ok {
		if _, isNil := from.(NilType); isNil {
			return true
		}
		return IsAssignable(from, opt.Inner)
	}
	if fa, ok := from.(*Array); ok {
		if ta, ok := to.(*Array); ok {
			return Equal(fa.Element, ta.Element)
		}
	}
	// Functions are assignable only when identical, which Equal covered.
	return false
}

// ElementType returns the element type of an array type.
func ElementType(t Type) (Type, error) {
	if a, ok := t.(*Array); ok {
		return a.Element, nil
	}
	return nil, diag.Typef(diag.ErrExpectedArray, diag.Pos{}, "Expected an array type, got %s", describe(t))
}

// InnerType returns the wrapped type of an optional type.
func InnerType(t Type) (Type, error) {
	if o, ok := t.(*Optional); ok {
		return o.Inner, nil
	}
	return nil, diag.Typef(diag.ErrExpectedOptional, diag.Pos{}, "Expected optional type, got %s", describe(t))
}

// IsOptional reports whether t is T?.
func IsOptional(t Type) bool {
	_, ok := t.(*Optional)
	return ok
}

// IsArray reports whether t is [T].
func IsArray(t Type) bool {
	_, ok := t.(*Array)
	return ok
}

// IsNil reports whether t is the bare nil type.
func IsNil(t Type) bool {
	_, ok := t.(NilType)
	return ok
}

func describe(t Type) string {
	if t == nil {
		return "<none>"
	}
	return t.String()
}
