package typecheck

import (
	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/schema"
)

// InferQuery infers the result type of a full SELECT statement: CTE
// promotion, the compound expression, then ORDER BY and LIMIT/OFFSET.
// LIMIT and OFFSET are typed in the outer scope, not the select's own FROM
// scope.
func (c *Checker) InferQuery(scope *SelectScope, stmt *ast.SelectStmt) (*InferredQuery, error) {
	s := scope
	if stmt.With != nil {
		s = scope.Child()
		for _, cte := range stmt.With.CTEs {
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
	}

	q, inner, err := c.inferCompound(s, stmt.Compound)
	if err != nil {
		return nil, err
	}

	for _, term := range stmt.OrderBy {
		if err := c.RequireType(inner, term.Expr, schema.Any); err != nil {
			return nil, err
		}
	}
	if stmt.Limit != nil {
		if err := c.RequireType(s, stmt.Limit, schema.Integer); err != nil {
			return nil, err
		}
	}
	if stmt.Offset != nil {
		if err := c.RequireType(s, stmt.Offset, schema.Integer); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// inferCompound infers a compound expression. Both sides of a set operation
// must have the same width; column i of the result is the top column with
// its type unified with the bottom's. The returned scope is the first
// term's inner scope, used to type ORDER BY.
func (c *Checker) inferCompound(scope *SelectScope, ce *ast.CompoundExpr) (*InferredQuery, *SelectScope, error) {
	q, inner, err := c.inferCompoundTerm(scope, ce.Term)
	if err != nil {
		return nil, nil, err
	}
	if ce.Right == nil {
		return q, inner, nil
	}

	bottom, _, err := c.inferCompound(scope, ce.Right)
	if err != nil {
		return nil, nil, err
	}
	if len(bottom.Columns) != len(q.Columns) {
		return nil, nil, errorf(ce.Span, KindArity, "%s sides have %d and %d columns",
			ce.Op, len(q.Columns), len(bottom.Columns))
	}
	out := &InferredQuery{Columns: make([]InferredQueryColumn, len(q.Columns))}
	for i, col := range q.Columns {
		u, err := c.ctx.Unify(col.Type, bottom.Columns[i].Type)
		if err != nil {
			return nil, nil, positioned(ce.Span, err)
		}
		col.Type = u
		out.Columns[i] = col
	}
	return out, inner, nil
}

// inferCompoundTerm infers a single compound term: a SELECT core or a
// VALUES block.
func (c *Checker) inferCompoundTerm(scope *SelectScope, term ast.CompoundTerm) (*InferredQuery, *SelectScope, error) {
	switch t := term.(type) {
	case *ast.SelectCore:
		return c.inferSelectCore(scope, t)
	case *ast.ValuesClause:
		q, err := c.inferValues(scope, t)
		return q, scope, err
	}
	return nil, nil, errorf(term.SourceSpan(), KindUnsupported, "unsupported compound term")
}

// inferValues infers a VALUES block. The first row establishes the column
// count and per-column types; every following row must match the count and
// unify pairwise. Result columns have no name, no owning alias, and no
// primary-key flag.
func (c *Checker) inferValues(scope *SelectScope, v *ast.ValuesClause) (*InferredQuery, error) {
	if len(v.Rows) == 0 {
		return nil, errorf(v.Span, KindStructural, "VALUES requires at least one row")
	}
	first := v.Rows[0]
	q := &InferredQuery{Columns: make([]InferredQueryColumn, len(first))}
	for i, e := range first {
		t, err := c.InferExpr(scope, e)
		if err != nil {
			return nil, err
		}
		q.Columns[i] = InferredQueryColumn{Type: t}
	}
	for _, row := range v.Rows[1:] {
		if len(row) != len(first) {
			return nil, errorf(v.Span, KindArity, "VALUES rows have %d and %d columns", len(first), len(row))
		}
		for i, e := range row {
			t, err := c.InferExpr(scope, e)
			if err != nil {
				return nil, err
			}
			u, err := c.ctx.Unify(q.Columns[i].Type, t)
			if err != nil {
				return nil, positioned(e.SourceSpan(), err)
			}
			q.Columns[i].Type = u
		}
	}
	return q, nil
}

// inferSelectCore infers a single SELECT core: FROM scope, WHERE, grouping,
// then the result column list.
func (c *Checker) inferSelectCore(scope *SelectScope, core *ast.SelectCore) (*InferredQuery, *SelectScope, error) {
	child := scope
	if core.From != nil {
		fs, err := c.fromScope(scope, core.From)
		if err != nil {
			return nil, nil, err
		}
		child = scope.childWithFrom(fs)
		if err := c.validateJoins(child, core.From); err != nil {
			return nil, nil, err
		}
	}

	if core.Where != nil {
		if err := c.RequireType(child, core.Where, schema.Boolean); err != nil {
			return nil, nil, err
		}
	}
	for _, g := range core.GroupBy {
		if err := c.RequireType(child, g, schema.Any); err != nil {
			return nil, nil, err
		}
	}
	if core.Having != nil {
		if err := c.RequireType(child, core.Having, schema.Boolean); err != nil {
			return nil, nil, err
		}
	}

	q := &InferredQuery{}
	for _, item := range core.Columns {
		cols, err := c.inferSelectItem(child, core, item)
		if err != nil {
			return nil, nil, err
		}
		q.Columns = append(q.Columns, cols...)
	}
	return q, child, nil
}

// inferSelectItem expands one SELECT-list item into result columns.
func (c *Checker) inferSelectItem(child *SelectScope, core *ast.SelectCore, item ast.SelectItem) ([]InferredQueryColumn, error) {
	switch {
	case item.Star:
		if core.From == nil {
			return nil, errorf(item.Span, KindStructural, "* requires a FROM clause")
		}
		return child.From.Wildcard(), nil

	case item.TableStar != "":
		if core.From == nil {
			return nil, errorf(item.Span, KindStructural, "%s.* requires a FROM clause", item.TableStar)
		}
		for sc := child; sc != nil; sc = sc.Parent {
			if sc.From == nil {
				continue
			}
			if q, ok := sc.From.Query(item.TableStar); ok {
				return q.Columns, nil
			}
		}
		return nil, errorf(item.Span, KindNotFound, "no table or alias %s in scope", quote(item.TableStar))

	default:
		t, err := c.InferExpr(child, item.Expr)
		if err != nil {
			return nil, err
		}
		if ref, ok := item.Expr.(*ast.ColumnRef); ok {
			col, err := child.ResolveColumn(ref)
			if err != nil {
				return nil, positioned(ref.Span, err)
			}
			name := item.Alias
			if name == "" {
				name = col.Name
			}
			return []InferredQueryColumn{{
				Name:       name,
				FromAlias:  col.FromAlias,
				Type:       t,
				PrimaryKey: col.PrimaryKey,
			}}, nil
		}
		if item.Alias == "" {
			return nil, errorf(item.Span, KindStructural, "expression column requires an alias")
		}
		return []InferredQueryColumn{{Name: item.Alias, Type: t}}, nil
	}
}
