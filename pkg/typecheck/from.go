package typecheck

import (
	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/schema"
)

// fromScope builds the FromScope for a FROM subtree.
func (c *Checker) fromScope(scope *SelectScope, t ast.TableRef) (*FromScope, error) {
	fs := newFromScope()
	if _, err := c.buildFrom(scope, t, fs); err != nil {
		return nil, err
	}
	return fs, nil
}

// buildFrom recursively adds a table reference's bindings to fs and
// returns the columns the subtree contributes to the wildcard, in order.
func (c *Checker) buildFrom(scope *SelectScope, t ast.TableRef, fs *FromScope) ([]InferredQueryColumn, error) {
	switch r := t.(type) {
	case *ast.TableName:
		if r.HasArgs {
			return nil, errorf(r.Span, KindUnsupported, "table-valued function invocations are not supported")
		}
		q, err := scope.ResolveTable(r, c.reference)
		if err != nil {
			return nil, positioned(r.Span, err)
		}
		q = q.rebind(r.Binding())
		if err := fs.Bind(r.Binding(), q); err != nil {
			return nil, positioned(r.Span, err)
		}
		fs.wildcard = append(fs.wildcard, q.Columns...)
		return q.Columns, nil

	case *ast.DerivedTable:
		q, err := c.InferQuery(scope.Child(), r.Select)
		if err != nil {
			return nil, err
		}
		q = q.rebind(r.Alias)
		if r.Alias != "" {
			if err := fs.Bind(r.Alias, q); err != nil {
				return nil, positioned(r.Span, err)
			}
		}
		fs.wildcard = append(fs.wildcard, q.Columns...)
		return q.Columns, nil

	case *ast.JoinExpr:
		left, err := c.buildFrom(scope, r.Left, fs)
		if err != nil {
			return nil, err
		}
		right, err := c.buildFrom(scope, r.Right, fs)
		if err != nil {
			return nil, err
		}
		c.joinWildcards[r] = joinSides{left: columnNames(left), right: columnNames(right)}
		return append(left, right...), nil
	}
	return nil, errorf(t.SourceSpan(), KindUnsupported, "unsupported table reference")
}

// validateJoins checks the join constraints of a FROM subtree against the
// scope that already carries its FromScope.
func (c *Checker) validateJoins(scope *SelectScope, t ast.TableRef) error {
	j, ok := t.(*ast.JoinExpr)
	if !ok {
		return nil
	}
	if err := c.validateJoins(scope, j.Left); err != nil {
		return err
	}
	if err := c.validateJoins(scope, j.Right); err != nil {
		return err
	}

	sides := c.joinWildcards[j]
	switch {
	case j.Natural && (j.On != nil || len(j.Using) > 0):
		return errorf(j.Span, KindStructural, "NATURAL JOIN cannot carry an ON or USING constraint")
	case j.Natural:
		if len(intersect(sides.left, sides.right)) == 0 {
			return errorf(j.Span, KindStructural, "NATURAL JOIN has no common columns")
		}
	case j.On != nil:
		if err := c.RequireType(scope, j.On, schema.Boolean); err != nil {
			return err
		}
	case len(j.Using) > 0:
		for _, name := range j.Using {
			if !containsName(sides.left, name) || !containsName(sides.right, name) {
				return errorf(j.Span, KindNotFound, "USING column %s must appear on both sides of the join", quote(name))
			}
		}
	}
	return nil
}

func columnNames(cols []InferredQueryColumn) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = schema.Normalize(c.Name)
	}
	return out
}

func containsName(names []string, name string) bool {
	key := schema.Normalize(name)
	for _, n := range names {
		if n == key {
			return true
		}
	}
	return false
}

func intersect(a, b []string) []string {
	var out []string
	for _, n := range a {
		if containsName(b, n) {
			out = append(out, n)
		}
	}
	return out
}
