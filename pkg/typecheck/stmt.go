package typecheck

import (
	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/schema"
)

// DML statements reuse the expression and query checkers. The target table
// is recorded as a write; its columns are visible to WHERE and SET
// expressions through an ordinary FROM scope.

func (c *Checker) checkInsert(scope *SelectScope, s *ast.InsertStmt) (*InferredQuery, error) {
	is, err := c.promoteCTEs(scope, s.With)
	if err != nil {
		return nil, err
	}

	table := scope.Model.FindTable(s.Table.Schema, s.Table.Name)
	if table == nil {
		return nil, errorf(s.Table.Span, KindNotFound, "no such table %s", quote(s.Table.Name))
	}
	c.write(table)

	targets := table.Columns
	if s.Columns != nil {
		targets = make([]schema.Column, len(s.Columns))
		for i, name := range s.Columns {
			col, ok := table.Column(name)
			if !ok {
				return nil, errorf(s.Table.Span, KindNotFound, "no column %s in %s", quote(name), quote(table.Name))
			}
			targets[i] = col
		}
	}

	q, err := c.InferQuery(is, s.Source)
	if err != nil {
		return nil, err
	}
	if len(q.Columns) != len(targets) {
		return nil, errorf(s.Span, KindArity, "INSERT supplies %d values for %d columns", len(q.Columns), len(targets))
	}
	for i, col := range q.Columns {
		if _, err := c.ctx.Unify(col.Type, &ConcreteType{Type: targets[i].Type}); err != nil {
			return nil, positioned(s.Source.Span, err)
		}
	}
	return &InferredQuery{}, nil
}

func (c *Checker) checkUpdate(scope *SelectScope, s *ast.UpdateStmt) (*InferredQuery, error) {
	us, err := c.promoteCTEs(scope, s.With)
	if err != nil {
		return nil, err
	}

	table, child, err := c.writeScope(us, s.Table)
	if err != nil {
		return nil, err
	}
	for _, a := range s.Set {
		col, ok := table.Column(a.Column)
		if !ok {
			return nil, errorf(a.Span, KindNotFound, "no column %s in %s", quote(a.Column), quote(table.Name))
		}
		t, err := c.InferExpr(child, a.Value)
		if err != nil {
			return nil, err
		}
		if _, err := c.ctx.Unify(t, &ConcreteType{Type: col.Type}); err != nil {
			return nil, positioned(a.Value.SourceSpan(), err)
		}
	}
	if s.Where != nil {
		if err := c.RequireType(child, s.Where, schema.Boolean); err != nil {
			return nil, err
		}
	}
	return &InferredQuery{}, nil
}

func (c *Checker) checkDelete(scope *SelectScope, s *ast.DeleteStmt) (*InferredQuery, error) {
	ds, err := c.promoteCTEs(scope, s.With)
	if err != nil {
		return nil, err
	}

	_, child, err := c.writeScope(ds, s.Table)
	if err != nil {
		return nil, err
	}
	if s.Where != nil {
		if err := c.RequireType(child, s.Where, schema.Boolean); err != nil {
			return nil, err
		}
	}
	return &InferredQuery{}, nil
}

// promoteCTEs binds a DML statement's WITH clause into a child scope the
// same way InferQuery does.
func (c *Checker) promoteCTEs(scope *SelectScope, with *ast.WithClause) (*SelectScope, error) {
	if with == nil {
		return scope, nil
	}
	s := scope.Child()
	for _, cte := range with.CTEs {
		q, err := c.InferQuery(s, cte.Select)
		if err != nil {
			return nil, err
		}
		if cte.Columns != nil {
			q, err = q.Rename(cte.Columns)
			if err != nil {
				return nil, positioned(cte.Span, err)
			}
		}
		s.BindCTE(cte.Name, q)
	}
	return s, nil
}

// writeScope resolves a DML target table, records the write, and returns a
// scope in which the table's columns are visible.
func (c *Checker) writeScope(scope *SelectScope, t *ast.TableName) (*schema.Table, *SelectScope, error) {
	if t.HasArgs {
		return nil, nil, errorf(t.Span, KindUnsupported, "table-valued function invocations are not supported")
	}
	table := scope.Model.FindTable(t.Schema, t.Name)
	if table == nil {
		return nil, nil, errorf(t.Span, KindNotFound, "no such table %s", quote(t.Name))
	}
	c.write(table)

	q := &InferredQuery{Columns: make([]InferredQueryColumn, len(table.Columns))}
	for i, col := range table.Columns {
		q.Columns[i] = InferredQueryColumn{
			Name:       col.Name,
			FromAlias:  t.Binding(),
			Type:       &ConcreteType{Type: col.Type},
			PrimaryKey: col.PrimaryKey,
		}
	}
	fs := newFromScope()
	if err := fs.Bind(t.Binding(), q); err != nil {
		return nil, nil, positioned(t.Span, err)
	}
	fs.wildcard = append(fs.wildcard, q.Columns...)
	return table, scope.childWithFrom(fs), nil
}
