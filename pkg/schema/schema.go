// Package schema describes the catalog a statement is checked against:
// tables, columns, and built-in function signatures.
//
// The catalog is read-only. Identifier matching is case-insensitive
// throughout; Normalize is the canonical form used for map keys.
package schema

import "strings"

// BaseType is a base column type in the lattice. Any is the top element,
// Number sits above Integer and Float, and the remaining types are
// incomparable leaves.
type BaseType int

// Base types.
const (
	Any BaseType = iota
	Integer
	Float
	Number
	Text
	Blob
	Boolean
	DateTime
	DateTimeOffset
)

// String returns the SQL-ish name of the base type.
func (b BaseType) String() string {
	switch b {
	case Any:
		return "ANY"
	case Integer:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case Number:
		return "NUMBER"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	case Boolean:
		return "BOOLEAN"
	case DateTime:
		return "DATETIME"
	case DateTimeOffset:
		return "DATETIMEOFFSET"
	}
	return "ANY"
}

// ColumnType is a concrete column type: a base type plus nullability.
type ColumnType struct {
	Nullable bool
	Base     BaseType
}

// String renders the type the way a CREATE TABLE would.
func (t ColumnType) String() string {
	if t.Nullable {
		return t.Base.String()
	}
	return t.Base.String() + " NOT NULL"
}

// Column describes a table column.
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
}

// Table describes a schema table.
type Table struct {
	Schema  string // schema name, "" for the main schema
	Name    string
	Columns []Column
}

// Column finds a column by name, case-insensitively.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if Normalize(c.Name) == Normalize(name) {
			return c, true
		}
	}
	return Column{}, false
}

// ArgType is a function signature argument or output type: either a
// concrete column type, or a named type variable shared across positions
// of the same signature.
type ArgType struct {
	Var  string     // named signature-scoped variable, "" when concrete
	Type ColumnType // concrete type, meaningful when Var == ""
}

// Concrete builds a concrete ArgType.
func Concrete(nullable bool, base BaseType) ArgType {
	return ArgType{Type: ColumnType{Nullable: nullable, Base: base}}
}

// Var builds a type-variable ArgType.
func Var(name string) ArgType {
	return ArgType{Var: name}
}

// FunctionSignature describes a built-in function.
type FunctionSignature struct {
	Name          string
	FixedArgs     []ArgType
	VariableArg   *ArgType // accepts any number of trailing arguments when set
	Output        ArgType
	AllowWildcard bool // COUNT(*)
	AllowDistinct bool // COUNT(DISTINCT x)
}

// Model is the read-only schema catalog consumed by the checker.
type Model interface {
	// FindTable looks up a table by optional schema name and table name,
	// case-insensitively. Returns nil when not found.
	FindTable(schemaName, tableName string) *Table

	// Function looks up a built-in function signature by name,
	// case-insensitively. Returns nil when not found.
	Function(name string) *FunctionSignature
}

// Normalize returns the canonical (lowercase) form of an identifier.
func Normalize(name string) string {
	return strings.ToLower(name)
}

// MapModel is a Model backed by in-memory maps. The zero value is empty;
// use NewMapModel to build one from tables plus the built-in functions.
type MapModel struct {
	tables    map[string]*Table
	functions map[string]*FunctionSignature
}

// NewMapModel builds a MapModel over the given tables and the built-in
// function catalog.
func NewMapModel(tables []*Table) *MapModel {
	m := &MapModel{
		tables:    make(map[string]*Table, len(tables)),
		functions: make(map[string]*FunctionSignature, len(builtinFunctions)),
	}
	for _, t := range tables {
		m.tables[tableKey(t.Schema, t.Name)] = t
	}
	for i := range builtinFunctions {
		f := &builtinFunctions[i]
		m.functions[Normalize(f.Name)] = f
	}
	return m
}

func tableKey(schemaName, tableName string) string {
	return Normalize(schemaName) + "." + Normalize(tableName)
}

// Tables returns the catalog's tables.
func (m *MapModel) Tables() []*Table {
	out := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	return out
}

// FindTable implements Model.
func (m *MapModel) FindTable(schemaName, tableName string) *Table {
	if t, ok := m.tables[tableKey(schemaName, tableName)]; ok {
		return t
	}
	if schemaName == "" {
		return nil
	}
	return nil
}

// Function implements Model.
func (m *MapModel) Function(name string) *FunctionSignature {
	return m.functions[Normalize(name)]
}
