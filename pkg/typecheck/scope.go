package typecheck

import (
	"fmt"

	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/schema"
)

// InferredQueryColumn is one result column of an inferred query.
type InferredQueryColumn struct {
	Name       string
	FromAlias  string // owning FROM binding, "" for synthesized columns
	Type       InferredType
	PrimaryKey bool
}

// InferredQuery is the ordered result column list of a query.
type InferredQuery struct {
	Columns []InferredQueryColumn
}

// Column finds a column by name, case-insensitively.
func (q *InferredQuery) Column(name string) (InferredQueryColumn, bool) {
	for _, c := range q.Columns {
		if schema.Normalize(c.Name) == schema.Normalize(name) {
			return c, true
		}
	}
	return InferredQueryColumn{}, false
}

// Rename returns a copy of the query with the given column names. The name
// list must match the column count.
func (q *InferredQuery) Rename(names []string) (*InferredQuery, error) {
	if len(names) != len(q.Columns) {
		return nil, &resolveError{kind: KindArity,
			msg: fmt.Sprintf("column name list has %d names for %d columns", len(names), len(q.Columns))}
	}
	out := &InferredQuery{Columns: make([]InferredQueryColumn, len(q.Columns))}
	for i, c := range q.Columns {
		c.Name = names[i]
		out.Columns[i] = c
	}
	return out, nil
}

// rebind returns a copy of the query with every column owned by the given
// FROM binding.
func (q *InferredQuery) rebind(alias string) *InferredQuery {
	out := &InferredQuery{Columns: make([]InferredQueryColumn, len(q.Columns))}
	for i, c := range q.Columns {
		c.FromAlias = alias
		out.Columns[i] = c
	}
	return out
}

// FromScope is the set of table bindings visible from a FROM subtree: the
// alias map plus the ordered concatenation of all visible columns.
type FromScope struct {
	order    []string
	vars     map[string]*InferredQuery
	wildcard []InferredQueryColumn
}

func newFromScope() *FromScope {
	return &FromScope{vars: make(map[string]*InferredQuery)}
}

// Bind adds a named query to the scope. Binding an already-bound name is an
// error.
func (f *FromScope) Bind(name string, q *InferredQuery) error {
	key := schema.Normalize(name)
	if _, ok := f.vars[key]; ok {
		return &resolveError{kind: KindStructural, msg: "duplicate table binding " + quote(name)}
	}
	f.order = append(f.order, key)
	f.vars[key] = q
	return nil
}

// Query looks up a binding by alias or table name.
func (f *FromScope) Query(name string) (*InferredQuery, bool) {
	q, ok := f.vars[schema.Normalize(name)]
	return q, ok
}

// Wildcard returns the ordered columns visible through `*`.
func (f *FromScope) Wildcard() []InferredQueryColumn {
	return f.wildcard
}

// SelectScope resolves names for one SELECT. Scopes nest through the parent
// pointer; a child sees the CTEs and FROM bindings of its ancestors.
type SelectScope struct {
	Parent *SelectScope
	Model  schema.Model
	From   *FromScope

	cteOrder []string
	ctes     map[string]*InferredQuery
}

// NewScope creates a root scope over a schema model.
func NewScope(model schema.Model) *SelectScope {
	return &SelectScope{Model: model, ctes: make(map[string]*InferredQuery)}
}

// Child creates a nested scope sharing the model.
func (s *SelectScope) Child() *SelectScope {
	return &SelectScope{Parent: s, Model: s.Model, ctes: make(map[string]*InferredQuery)}
}

// childWithFrom creates a nested scope carrying a FROM clause.
func (s *SelectScope) childWithFrom(f *FromScope) *SelectScope {
	c := s.Child()
	c.From = f
	return c
}

// BindCTE registers a CTE. Later CTEs of the same WITH clause may reference
// earlier ones; rebinding a name shadows it.
func (s *SelectScope) BindCTE(name string, q *InferredQuery) {
	key := schema.Normalize(name)
	if _, ok := s.ctes[key]; !ok {
		s.cteOrder = append(s.cteOrder, key)
	}
	s.ctes[key] = q
}

// cte looks up a CTE through the scope chain.
func (s *SelectScope) cte(name string) (*InferredQuery, bool) {
	key := schema.Normalize(name)
	for sc := s; sc != nil; sc = sc.Parent {
		if q, ok := sc.ctes[key]; ok {
			return q, true
		}
	}
	return nil, false
}

// ResolveColumn resolves a column reference. A qualified reference looks up
// its table binding; an unqualified one searches the FROM bindings in
// insertion order and must match exactly once. Unresolved names fall
// through to the parent scope for correlated subqueries.
func (s *SelectScope) ResolveColumn(ref *ast.ColumnRef) (InferredQueryColumn, error) {
	if ref.Table != "" {
		for sc := s; sc != nil; sc = sc.Parent {
			if sc.From == nil {
				continue
			}
			q, ok := sc.From.Query(ref.Table)
			if !ok {
				continue
			}
			col, ok := q.Column(ref.Column)
			if !ok {
				return InferredQueryColumn{}, notFoundf("no column %s in %s", quote(ref.Column), quote(ref.Table))
			}
			return col, nil
		}
		return InferredQueryColumn{}, notFoundf("no table or alias %s in scope", quote(ref.Table))
	}

	for sc := s; sc != nil; sc = sc.Parent {
		if sc.From == nil {
			continue
		}
		var found InferredQueryColumn
		matches := 0
		for _, key := range sc.From.order {
			if col, ok := sc.From.vars[key].Column(ref.Column); ok {
				found = col
				matches++
			}
		}
		switch {
		case matches == 1:
			return found, nil
		case matches > 1:
			return InferredQueryColumn{}, ambiguousf("ambiguous column %s", quote(ref.Column))
		}
	}
	return InferredQueryColumn{}, notFoundf("no column %s in scope", quote(ref.Column))
}

// ResolveTable resolves a table reference to an inferred query. A
// schema-less name matching a CTE resolves to the CTE; otherwise the schema
// model is consulted and onReference is invoked so the caller can record
// the touched table.
func (s *SelectScope) ResolveTable(t *ast.TableName, onReference func(*schema.Table)) (*InferredQuery, error) {
	if t.Schema == "" {
		if q, ok := s.cte(t.Name); ok {
			return q, nil
		}
	}
	table := s.Model.FindTable(t.Schema, t.Name)
	if table == nil {
		return nil, notFoundf("no such table %s", quote(t.Name))
	}
	if onReference != nil {
		onReference(table)
	}
	q := &InferredQuery{Columns: make([]InferredQueryColumn, len(table.Columns))}
	for i, col := range table.Columns {
		q.Columns[i] = InferredQueryColumn{
			Name:       col.Name,
			Type:       &ConcreteType{Type: col.Type},
			PrimaryKey: col.PrimaryKey,
		}
	}
	return q, nil
}

func quote(s string) string { return fmt.Sprintf("%q", s) }
