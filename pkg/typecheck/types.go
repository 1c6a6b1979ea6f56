// Package typecheck implements the semantic analyzer for SQLite-flavored
// statements: scope construction from FROM/JOIN/WITH, column resolution,
// expression type inference with unification over type variables, join
// validation, and composition of query types through compound operators.
//
// A statement is either fully well-typed, yielding the ordered list of
// result columns plus the set of schema tables it touches, or rejected at
// the first positioned fault.
package typecheck

import (
	"strings"

	"github.com/leapstack-labs/squint/pkg/schema"
)

// InferredType is a type under inference. It is one of ConcreteType,
// VariableType, DependentType, or OneOfType.
type InferredType interface {
	inferredType()
	describe() string
}

// ConcreteType is a fully known column type.
type ConcreteType struct {
	Type schema.ColumnType
}

func (*ConcreteType) inferredType() {}

func (t *ConcreteType) describe() string { return t.Type.String() }

// VariableType is a unification variable. It starts unbound and may later
// be bound to another inferred type in its InferenceContext.
type VariableType struct {
	ID int
}

func (*VariableType) inferredType() {}

func (t *VariableType) describe() string { return "<unbound>" }

// DependentType has the nullability of Parent but its own base type. It is
// produced by comparisons, whose Boolean result is nullable exactly when an
// operand is.
type DependentType struct {
	Parent InferredType
	Base   schema.BaseType
}

func (*DependentType) inferredType() {}

func (t *DependentType) describe() string { return t.Base.String() }

// OneOfType constrains a type to one of the listed concrete types. The
// first choice is the default on concretion.
type OneOfType struct {
	Choices []schema.ColumnType
}

func (*OneOfType) inferredType() {}

func (t *OneOfType) describe() string {
	parts := make([]string, len(t.Choices))
	for i, c := range t.Choices {
		parts[i] = c.String()
	}
	return "one of " + strings.Join(parts, ", ")
}

// oneOf builds the family constraint for a base type: the not-nullable and
// nullable concretes of that base. The not-nullable choice is listed first
// so concretion defaults stay tight.
func oneOf(base schema.BaseType) *OneOfType {
	return &OneOfType{Choices: []schema.ColumnType{
		{Nullable: false, Base: base},
		{Nullable: true, Base: base},
	}}
}

// Predefined shorthand constraints. Each call returns a fresh value.
func anyType() InferredType     { return oneOf(schema.Any) }
func stringType() InferredType  { return oneOf(schema.Text) }
func numberType() InferredType  { return oneOf(schema.Number) }
func integerType() InferredType { return oneOf(schema.Integer) }
func booleanType() InferredType { return oneOf(schema.Boolean) }

// concrete wraps a column type.
func concrete(nullable bool, base schema.BaseType) InferredType {
	return &ConcreteType{Type: schema.ColumnType{Nullable: nullable, Base: base}}
}

// baseMeet computes the meet of two base types in the lattice: Any is top,
// Number sits above Integer and Float, equal leaves meet at themselves, and
// distinct leaves have no meet.
func baseMeet(a, b schema.BaseType) (schema.BaseType, bool) {
	if a == b {
		return a, true
	}
	if a == schema.Any {
		return b, true
	}
	if b == schema.Any {
		return a, true
	}
	if a == schema.Number && (b == schema.Integer || b == schema.Float) {
		return b, true
	}
	if b == schema.Number && (a == schema.Integer || a == schema.Float) {
		return a, true
	}
	return schema.Any, false
}

// columnMeet computes the meet of two concrete column types. Nullability is
// monotone: the result is nullable when either input is.
func columnMeet(a, b schema.ColumnType) (schema.ColumnType, bool) {
	base, ok := baseMeet(a.Base, b.Base)
	if !ok {
		return schema.ColumnType{}, false
	}
	return schema.ColumnType{Nullable: a.Nullable || b.Nullable, Base: base}, true
}
