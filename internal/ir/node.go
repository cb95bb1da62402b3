package ir

import (
	"github.com/roach88/tempo/internal/scope"
	"github.com/roach88/tempo/internal/types"
)

// Kind is the discriminant of an IR node.
type Kind string

const (
	KindProgram     Kind = "Program"
	KindNoteDecl    Kind = "NoteDecl"
	KindRecordDecl  Kind = "RecordDecl"
	KindMeasureDecl Kind = "MeasureDecl"
	KindBlock       Kind = "Block"
	KindIf          Kind = "If"
	KindShortIf     Kind = "ShortIf"
	KindRepeatWhile Kind = "RepeatWhile"
	KindRepeatTimes Kind = "RepeatTimes"
	KindForRange    Kind = "ForRange"
	KindForEach     Kind = "ForEach"
	KindBump        Kind = "Bump"
	KindAssign      Kind = "Assign"
	KindCallStmt    Kind = "CallStmt"
	KindBreak       Kind = "Break"
	KindReturn      Kind = "Return"
	KindShortReturn Kind = "ShortReturn"
	KindPlay        Kind = "Play"
	KindRest        Kind = "Rest"

	KindConditional   Kind = "Conditional"
	KindUnwrapElse    Kind = "UnwrapElse"
	KindBinary        Kind = "Binary"
	KindUnary         Kind = "Unary"
	KindCall          Kind = "Call"
	KindConstruct     Kind = "Construct"
	KindSubscript     Kind = "Subscript"
	KindMember        Kind = "Member"
	KindArrayLit      Kind = "ArrayLit"
	KindEmptyArrayLit Kind = "EmptyArrayLit"
	KindIntLit        Kind = "IntLit"
	KindFloatLit      Kind = "FloatLit"
	KindStringLit     Kind = "StringLit"
	KindBoolLit       Kind = "BoolLit"
	KindNilLit        Kind = "NilLit"
	KindVarRef        Kind = "VarRef"
	KindMeasureRef    Kind = "MeasureRef"
)

// Node is any IR node.
type Node interface {
	Kind() Kind
	irNode()
}

// Stmt is a sealed interface for statements and declarations.
type Stmt interface {
	Node
	stmt()
}

// Expr is a sealed interface for expressions. Type is never nil on IR
// produced by the binder.
type Expr interface {
	Node
	Type() types.Type
	expr()
}

// Typed carries an expression's resolved type.
type Typed struct {
	T types.Type
}

// Type returns the resolved type.
func (t Typed) Type() types.Type { return t.T }

// Program is a bound compilation unit.
type Program struct {
	Statements []Stmt
}

func (*Program) Kind() Kind { return KindProgram }
func (*Program) irNode()    {}

// Statements

// NoteDecl declares a variable with let or const.
type NoteDecl struct {
	Variable    scope.Variable
	Initializer Expr
}

// RecordDecl declares a grand (record) type.
type RecordDecl struct {
	Record *types.Record
}

// MeasureDecl declares a function.
type MeasureDecl struct {
	Measure scope.Measure
	Params  []scope.Variable
	Body    []Stmt
}

// Block is a nested statement list with its own scope.
type Block struct {
	Statements []Stmt
}

// If is a two-armed conditional. An else-if chain is an If whose Else holds
// a single nested If.
type If struct {
	Test Expr
	Then []Stmt
	Else []Stmt
}

// ShortIf is an if without an else.
type ShortIf struct {
	Test Expr
	Then []Stmt
}

// RepeatWhile loops while Test holds.
type RepeatWhile struct {
	Test Expr
	Body []Stmt
}

// RepeatTimes runs Body Count times.
type RepeatTimes struct {
	Count Expr
	Body  []Stmt
}

// Range operators.
const (
	RangeInclusive = "..."
	RangeExclusive = "..<"
)

// ForRange iterates Var over the numeric range Low Op High.
type ForRange struct {
	Var  scope.Variable
	Low  Expr
	Op   string
	High Expr
	Body []Stmt
}

// ForEach iterates Var over the elements of an array or the characters of a
// string.
type ForEach struct {
	Var        scope.Variable
	Collection Expr
	Body       []Stmt
}

// Bump is an increment (++) or decrement (--).
type Bump struct {
	Target Expr
	Op     string
}

// Assign stores Source into Target.
type Assign struct {
	Target Expr
	Source Expr
}

// CallStmt is a call evaluated for its effect.
type CallStmt struct {
	Call *Call
}

// Break exits the innermost loop.
type Break struct{}

// Return returns Value from the enclosing measure.
type Return struct {
	Value Expr
}

// ShortReturn is a bare return.
type ShortReturn struct{}

// Play emits a value.
type Play struct {
	Value Expr
}

// Rest pauses for a value.
type Rest struct {
	Value Expr
}

func (*NoteDecl) Kind() Kind    { return KindNoteDecl }
func (*RecordDecl) Kind() Kind  { return KindRecordDecl }
func (*MeasureDecl) Kind() Kind { return KindMeasureDecl }
func (*Block) Kind() Kind       { return KindBlock }
func (*If) Kind() Kind          { return KindIf }
func (*ShortIf) Kind() Kind     { return KindShortIf }
func (*RepeatWhile) Kind() Kind { return KindRepeatWhile }
func (*RepeatTimes) Kind() Kind { return KindRepeatTimes }
func (*ForRange) Kind() Kind    { return KindForRange }
func (*ForEach) Kind() Kind     { return KindForEach }
func (*Bump) Kind() Kind        { return KindBump }
func (*Assign) Kind() Kind      { return KindAssign }
func (*CallStmt) Kind() Kind    { return KindCallStmt }
func (*Break) Kind() Kind       { return KindBreak }
func (*Return) Kind() Kind      { return KindReturn }
func (*ShortReturn) Kind() Kind { return KindShortReturn }
func (*Play) Kind() Kind        { return KindPlay }
func (*Rest) Kind() Kind        { return KindRest }

func (*NoteDecl) irNode()    {}
func (*RecordDecl) irNode()  {}
func (*MeasureDecl) irNode() {}
func (*Block) irNode()       {}
func (*If) irNode()          {}
func (*ShortIf) irNode()     {}
func (*RepeatWhile) irNode() {}
func (*RepeatTimes) irNode() {}
func (*ForRange) irNode()    {}
func (*ForEach) irNode()     {}
func (*Bump) irNode()        {}
func (*Assign) irNode()      {}
func (*CallStmt) irNode()    {}
func (*Break) irNode()       {}
func (*Return) irNode()      {}
func (*ShortReturn) irNode() {}
func (*Play) irNode()        {}
func (*Rest) irNode()        {}

func (*NoteDecl) stmt()    {}
func (*RecordDecl) stmt()  {}
func (*MeasureDecl) stmt() {}
func (*Block) stmt()       {}
func (*If) stmt()          {}
func (*ShortIf) stmt()     {}
func (*RepeatWhile) stmt() {}
func (*RepeatTimes) stmt() {}
func (*ForRange) stmt()    {}
func (*ForEach) stmt()     {}
func (*Bump) stmt()        {}
func (*Assign) stmt()      {}
func (*CallStmt) stmt()    {}
func (*Break) stmt()       {}
func (*Return) stmt()      {}
func (*ShortReturn) stmt() {}
func (*Play) stmt()        {}
func (*Rest) stmt()        {}

// Expressions

// Conditional is test ? Then : Else.
type Conditional struct {
	Typed
	Test Expr
	Then Expr
	Else Expr
}

// UnwrapElse is Optional ?? Fallback.
type UnwrapElse struct {
	Typed
	Optional Expr
	Fallback Expr
}

// Binary is a binary operator application. The result type is decided by
// the operator family, not copied from an operand.
type Binary struct {
	Typed
	Op    string
	Left  Expr
	Right Expr
}

// Unary is -, !, #, some or random applied to Operand.
type Unary struct {
	Typed
	Op      string
	Operand Expr
}

// Call invokes a measure or a function-typed value.
type Call struct {
	Typed
	Callee Expr
	Args   []Expr
}

// Construct builds a record value from positional field values.
type Construct struct {
	Typed
	Record *types.Record
	Args   []Expr
}

// Subscript is Base[Index], or Base?[Index] when Chained.
type Subscript struct {
	Typed
	Base    Expr
	Index   Expr
	Chained bool
}

// Member is Base.Field, or Base?.Field when Chained.
type Member struct {
	Typed
	Base    Expr
	Field   string
	Chained bool
}

// ArrayLit is a non-empty array literal.
type ArrayLit struct {
	Typed
	Elements []Expr
}

// EmptyArrayLit is an empty array of an explicitly known element type.
type EmptyArrayLit struct {
	Typed
}

// IntLit is an integral number literal.
type IntLit struct {
	Typed
	Value int64
}

// FloatLit is a non-integral number literal.
type FloatLit struct {
	Typed
	Value float64
}

// StringLit is a string literal.
type StringLit struct {
	Typed
	Value string
}

// BoolLit is on/off.
type BoolLit struct {
	Typed
	Value bool
}

// NilLit is the empty optional. Its type is the optional type written with
// "no", or types.Nil for a bare nil.
type NilLit struct {
	Typed
}

// VarRef reads a variable.
type VarRef struct {
	Typed
	Variable scope.Variable
}

// MeasureRef names a measure as a value.
type MeasureRef struct {
	Typed
	Measure scope.Measure
}

func (*Conditional) Kind() Kind   { return KindConditional }
func (*UnwrapElse) Kind() Kind    { return KindUnwrapElse }
func (*Binary) Kind() Kind        { return KindBinary }
func (*Unary) Kind() Kind         { return KindUnary }
func (*Call) Kind() Kind          { return KindCall }
func (*Construct) Kind() Kind     { return KindConstruct }
func (*Subscript) Kind() Kind     { return KindSubscript }
func (*Member) Kind() Kind        { return KindMember }
func (*ArrayLit) Kind() Kind      { return KindArrayLit }
func (*EmptyArrayLit) Kind() Kind { return KindEmptyArrayLit }
func (*IntLit) Kind() Kind        { return KindIntLit }
func (*FloatLit) Kind() Kind      { return KindFloatLit }
func (*StringLit) Kind() Kind     { return KindStringLit }
func (*BoolLit) Kind() Kind       { return KindBoolLit }
func (*NilLit) Kind() Kind        { return KindNilLit }
func (*VarRef) Kind() Kind        { return KindVarRef }
func (*MeasureRef) Kind() Kind    { return KindMeasureRef }

func (*Conditional) irNode()   {}
func (*UnwrapElse) irNode()    {}
func (*Binary) irNode()        {}
func (*Unary) irNode()         {}
func (*Call) irNode()          {}
func (*Construct) irNode()     {}
func (*Subscript) irNode()     {}
func (*Member) irNode()        {}
func (*ArrayLit) irNode()      {}
func (*EmptyArrayLit) irNode() {}
func (*IntLit) irNode()        {}
func (*FloatLit) irNode()      {}
func (*StringLit) irNode()     {}
func (*BoolLit) irNode()       {}
func (*NilLit) irNode()        {}
func (*VarRef) irNode()        {}
func (*MeasureRef) irNode()    {}

func (*Conditional) expr()   {}
func (*UnwrapElse) expr()    {}
func (*Binary) expr()        {}
func (*Unary) expr()         {}
func (*Call) expr()          {}
func (*Construct) expr()     {}
func (*Subscript) expr()     {}
func (*Member) expr()        {}
func (*ArrayLit) expr()      {}
func (*EmptyArrayLit) expr() {}
func (*IntLit) expr()        {}
func (*FloatLit) expr()      {}
func (*StringLit) expr()     {}
func (*BoolLit) expr()       {}
func (*NilLit) expr()        {}
func (*VarRef) expr()        {}
func (*MeasureRef) expr()    {}
