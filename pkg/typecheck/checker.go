package typecheck

import (
	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/schema"
)

// Checker runs semantic analysis for one statement at a time. It is not
// safe for concurrent use; the schema model may be shared.
type Checker struct {
	model schema.Model

	ctx           *InferenceContext
	refs          *tableSet
	writes        *tableSet
	joinWildcards map[*ast.JoinExpr]joinSides
}

// joinSides remembers the column names visible on each side of a join,
// collected while the FROM scope is built.
type joinSides struct {
	left  []string
	right []string
}

// NewChecker creates a checker over a schema model.
func NewChecker(model schema.Model) *Checker {
	c := &Checker{model: model}
	c.reset()
	return c
}

func (c *Checker) reset() {
	c.ctx = NewInferenceContext()
	c.refs = newTableSet()
	c.writes = newTableSet()
	c.joinWildcards = make(map[*ast.JoinExpr]joinSides)
}

// Context returns the inference context of the last check.
func (c *Checker) Context() *InferenceContext {
	return c.ctx
}

// References returns the schema tables read by the last checked statement,
// in first-reference order.
func (c *Checker) References() []*schema.Table {
	return c.refs.tables
}

// Writes returns the schema tables written by the last checked statement.
func (c *Checker) Writes() []*schema.Table {
	return c.writes.tables
}

func (c *Checker) reference(t *schema.Table) {
	c.refs.add(t)
}

func (c *Checker) write(t *schema.Table) {
	c.writes.add(t)
}

// CheckStatement checks a statement and returns its inferred query type.
// DML statements yield an empty query. Each call starts a fresh inference
// context.
func (c *Checker) CheckStatement(stmt ast.Stmt) (*InferredQuery, error) {
	c.reset()
	scope := NewScope(c.model)
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		return c.InferQuery(scope, s)
	case *ast.InsertStmt:
		return c.checkInsert(scope, s)
	case *ast.UpdateStmt:
		return c.checkUpdate(scope, s)
	case *ast.DeleteStmt:
		return c.checkDelete(scope, s)
	}
	return nil, errorf(stmt.SourceSpan(), KindUnsupported, "unsupported statement")
}

// ColumnDescription is a concretized result column, for callers that
// render or compare checked output.
type ColumnDescription struct {
	Name       string
	FromAlias  string
	Type       schema.ColumnType
	PrimaryKey bool
}

// Describe concretizes an inferred query against the checker's context.
func (c *Checker) Describe(q *InferredQuery) []ColumnDescription {
	out := make([]ColumnDescription, len(q.Columns))
	for i, col := range q.Columns {
		out[i] = ColumnDescription{
			Name:       col.Name,
			FromAlias:  col.FromAlias,
			Type:       c.ctx.Concrete(col.Type),
			PrimaryKey: col.PrimaryKey,
		}
	}
	return out
}

// tableSet is an ordered set of schema tables.
type tableSet struct {
	seen   map[*schema.Table]bool
	tables []*schema.Table
}

func newTableSet() *tableSet {
	return &tableSet{seen: make(map[*schema.Table]bool)}
}

func (s *tableSet) add(t *schema.Table) {
	if t == nil || s.seen[t] {
		return
	}
	s.seen[t] = true
	s.tables = append(s.tables, t)
}
