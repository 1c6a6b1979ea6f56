package typecheck

import (
	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/schema"
)

// InferExpr infers the type of an expression in the given scope. The first
// positioned error aborts the walk.
func (c *Checker) InferExpr(scope *SelectScope, e ast.Expr) (InferredType, error) {
	switch x := e.(type) {
	case *ast.Literal:
		return literalType(x), nil

	case *ast.BindParam:
		return c.ctx.Variable(x.Name), nil

	case *ast.ColumnRef:
		col, err := scope.ResolveColumn(x)
		if err != nil {
			return nil, positioned(x.Span, err)
		}
		return col.Type, nil

	case *ast.CastExpr:
		t, err := c.InferExpr(scope, x.Expr)
		if err != nil {
			return nil, err
		}
		return &DependentType{Parent: t, Base: schema.AffinityOf(x.TypeName)}, nil

	case *ast.CollateExpr:
		t, err := c.InferExpr(scope, x.Expr)
		if err != nil {
			return nil, err
		}
		u, err := c.ctx.Unify(t, stringType())
		if err != nil {
			return nil, positioned(x.Span, err)
		}
		return u, nil

	case *ast.FuncCall:
		return c.inferFunction(scope, x)

	case *ast.SimilarityExpr:
		return c.inferSimilarity(scope, x)

	case *ast.UnaryExpr:
		return c.inferUnary(scope, x)

	case *ast.BinaryExpr:
		return c.inferBinary(scope, x)

	case *ast.BetweenExpr:
		types := make([]InferredType, 0, 3)
		for _, operand := range []ast.Expr{x.Input, x.Low, x.High} {
			t, err := c.InferExpr(scope, operand)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		u, err := c.ctx.UnifyAll(types...)
		if err != nil {
			return nil, positioned(x.Span, err)
		}
		return &DependentType{Parent: u, Base: schema.Boolean}, nil

	case *ast.InExpr:
		return c.inferIn(scope, x)

	case *ast.ExistsExpr:
		if _, err := c.InferQuery(scope.Child(), x.Select); err != nil {
			return nil, err
		}
		return concrete(false, schema.Boolean), nil

	case *ast.CaseExpr:
		return c.inferCase(scope, x)

	case *ast.SubqueryExpr:
		q, err := c.InferQuery(scope.Child(), x.Select)
		if err != nil {
			return nil, err
		}
		if len(q.Columns) != 1 {
			return nil, errorf(x.Span, KindArity, "scalar subquery must produce exactly one column, got %d", len(q.Columns))
		}
		return q.Columns[0].Type, nil

	case *ast.RaiseExpr:
		return concrete(true, schema.Any), nil
	}
	return nil, errorf(e.SourceSpan(), KindUnsupported, "unsupported expression")
}

// RequireType infers an expression and imposes a base-type constraint on
// it, discarding the refined type.
func (c *Checker) RequireType(scope *SelectScope, e ast.Expr, base schema.BaseType) error {
	t, err := c.InferExpr(scope, e)
	if err != nil {
		return err
	}
	if _, err := c.ctx.UnifyBase(t, base); err != nil {
		return positioned(e.SourceSpan(), err)
	}
	return nil
}

func literalType(l *ast.Literal) InferredType {
	switch l.Kind {
	case ast.LiteralInteger:
		return concrete(false, schema.Integer)
	case ast.LiteralFloat:
		return concrete(false, schema.Float)
	case ast.LiteralString:
		return concrete(false, schema.Text)
	case ast.LiteralBlob:
		return concrete(false, schema.Blob)
	case ast.LiteralBool:
		return concrete(false, schema.Boolean)
	case ast.LiteralNull:
		return concrete(true, schema.Any)
	case ast.LiteralCurrentDate, ast.LiteralCurrentTime, ast.LiteralCurrentTimestamp:
		return concrete(false, schema.DateTime)
	}
	return concrete(true, schema.Any)
}

// inferBinary types a binary operator application. Operator families fold
// both operands into the family constraint; comparisons unify the operands
// with each other and yield a Boolean that inherits their nullability.
func (c *Checker) inferBinary(scope *SelectScope, x *ast.BinaryExpr) (InferredType, error) {
	lt, err := c.InferExpr(scope, x.Left)
	if err != nil {
		return nil, err
	}
	rt, err := c.InferExpr(scope, x.Right)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case ast.BinConcat:
		return c.foldFamily(x, schema.Text, lt, rt)
	case ast.BinMul, ast.BinDiv, ast.BinAdd, ast.BinSub:
		return c.foldFamily(x, schema.Number, lt, rt)
	case ast.BinMod, ast.BinShl, ast.BinShr, ast.BinBitAnd, ast.BinBitOr:
		return c.foldFamily(x, schema.Integer, lt, rt)
	case ast.BinLt, ast.BinLe, ast.BinGt, ast.BinGe, ast.BinEq, ast.BinNe, ast.BinIs, ast.BinIsNot:
		u, err := c.ctx.Unify(lt, rt)
		if err != nil {
			return nil, positioned(x.Span, err)
		}
		return &DependentType{Parent: u, Base: schema.Boolean}, nil
	case ast.BinAnd, ast.BinOr:
		return c.foldFamily(x, schema.Boolean, lt, rt)
	}
	return nil, errorf(x.Span, KindUnsupported, "unsupported operator %s", x.Op)
}

// foldFamily unifies both operand types into the family constraint of the
// operator and returns the fold.
func (c *Checker) foldFamily(x *ast.BinaryExpr, base schema.BaseType, lt, rt InferredType) (InferredType, error) {
	acc := oneOf(base)
	u, err := c.ctx.Unify(acc, lt)
	if err != nil {
		return nil, positioned(x.Left.SourceSpan(), err)
	}
	u, err = c.ctx.Unify(u, rt)
	if err != nil {
		return nil, positioned(x.Right.SourceSpan(), err)
	}
	return u, nil
}

func (c *Checker) inferUnary(scope *SelectScope, x *ast.UnaryExpr) (InferredType, error) {
	t, err := c.InferExpr(scope, x.Expr)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case ast.UnaryNegate, ast.UnaryBitNot:
		u, err := c.ctx.UnifyBase(t, schema.Number)
		if err != nil {
			return nil, positioned(x.Span, err)
		}
		return u, nil
	case ast.UnaryNot:
		u, err := c.ctx.UnifyBase(t, schema.Boolean)
		if err != nil {
			return nil, positioned(x.Span, err)
		}
		return u, nil
	case ast.UnaryIsNull, ast.UnaryNotNull:
		return concrete(false, schema.Boolean), nil
	}
	return nil, errorf(x.Span, KindUnsupported, "unsupported operator %s", x.Op)
}

// inferSimilarity types LIKE/GLOB/MATCH/REGEXP. Input, pattern, and escape
// each unify with TEXT; the Boolean result inherits nullability from input
// and pattern.
func (c *Checker) inferSimilarity(scope *SelectScope, x *ast.SimilarityExpr) (InferredType, error) {
	it, err := c.InferExpr(scope, x.Input)
	if err != nil {
		return nil, err
	}
	if it, err = c.ctx.Unify(it, stringType()); err != nil {
		return nil, positioned(x.Input.SourceSpan(), err)
	}
	pt, err := c.InferExpr(scope, x.Pattern)
	if err != nil {
		return nil, err
	}
	if pt, err = c.ctx.Unify(pt, stringType()); err != nil {
		return nil, positioned(x.Pattern.SourceSpan(), err)
	}
	if x.Escape != nil {
		et, err := c.InferExpr(scope, x.Escape)
		if err != nil {
			return nil, err
		}
		if _, err = c.ctx.Unify(et, stringType()); err != nil {
			return nil, positioned(x.Escape.SourceSpan(), err)
		}
	}
	u, err := c.ctx.Unify(it, pt)
	if err != nil {
		return nil, positioned(x.Span, err)
	}
	return &DependentType{Parent: u, Base: schema.Boolean}, nil
}

// inferFunction types a function invocation against its catalog signature.
// Named signature variables instantiate to fresh inference variables once
// per invocation, giving parametric polymorphism per call.
func (c *Checker) inferFunction(scope *SelectScope, x *ast.FuncCall) (InferredType, error) {
	sig := c.model.Function(x.Name)
	if sig == nil {
		return nil, errorf(x.Span, KindNotFound, "no such function %s", quote(x.Name))
	}

	instantiated := make(map[string]InferredType)
	instantiate := func(a schema.ArgType) InferredType {
		if a.Var == "" {
			return &ConcreteType{Type: a.Type}
		}
		v, ok := instantiated[a.Var]
		if !ok {
			v = c.ctx.AnonymousVariable()
			instantiated[a.Var] = v
		}
		return v
	}

	if x.Star {
		if !sig.AllowWildcard {
			return nil, errorf(x.Span, KindStructural, "%s does not accept a * argument", quote(x.Name))
		}
		return instantiate(sig.Output), nil
	}
	if x.Distinct && !sig.AllowDistinct {
		return nil, errorf(x.Span, KindStructural, "%s does not accept DISTINCT", quote(x.Name))
	}
	if len(x.Args) < len(sig.FixedArgs) {
		return nil, errorf(x.Span, KindArity, "%s expects at least %d arguments, got %d",
			quote(x.Name), len(sig.FixedArgs), len(x.Args))
	}

	for i, arg := range x.Args {
		var expected schema.ArgType
		if i < len(sig.FixedArgs) {
			expected = sig.FixedArgs[i]
		} else {
			if sig.VariableArg == nil {
				return nil, errorf(x.Span, KindArity, "%s expects %d arguments, got %d",
					quote(x.Name), len(sig.FixedArgs), len(x.Args))
			}
			expected = *sig.VariableArg
		}
		at, err := c.InferExpr(scope, arg)
		if err != nil {
			return nil, err
		}
		if _, err := c.ctx.Unify(at, instantiate(expected)); err != nil {
			return nil, positioned(arg.SourceSpan(), err)
		}
	}
	return instantiate(sig.Output), nil
}

// inferIn types [NOT] IN over a value list, subquery, or table reference.
func (c *Checker) inferIn(scope *SelectScope, x *ast.InExpr) (InferredType, error) {
	t, err := c.InferExpr(scope, x.Input)
	if err != nil {
		return nil, err
	}

	switch {
	case x.Query != nil:
		q, err := c.InferQuery(scope.Child(), x.Query)
		if err != nil {
			return nil, err
		}
		if len(q.Columns) != 1 {
			return nil, errorf(x.Query.Span, KindArity, "IN subquery must produce exactly one column, got %d", len(q.Columns))
		}
		if t, err = c.ctx.Unify(t, q.Columns[0].Type); err != nil {
			return nil, positioned(x.Span, err)
		}

	case x.Table != nil:
		q, err := scope.ResolveTable(x.Table, c.reference)
		if err != nil {
			return nil, positioned(x.Table.Span, err)
		}
		if len(q.Columns) != 1 {
			return nil, errorf(x.Table.Span, KindArity, "IN table must have exactly one column, got %d", len(q.Columns))
		}
		if t, err = c.ctx.Unify(t, q.Columns[0].Type); err != nil {
			return nil, positioned(x.Span, err)
		}

	default:
		types := make([]InferredType, 0, len(x.Values))
		for _, v := range x.Values {
			vt, err := c.InferExpr(scope, v)
			if err != nil {
				return nil, err
			}
			types = append(types, vt)
		}
		u, err := c.ctx.UnifyAll(types...)
		if err != nil {
			return nil, positioned(x.Span, err)
		}
		if t, err = c.ctx.Unify(t, u); err != nil {
			return nil, positioned(x.Span, err)
		}
	}
	return &DependentType{Parent: t, Base: schema.Boolean}, nil
}

// inferCase types both CASE forms. Branch outputs fold into a running
// output type; a missing ELSE forces the output nullable.
func (c *Checker) inferCase(scope *SelectScope, x *ast.CaseExpr) (InferredType, error) {
	var input InferredType
	if x.Input != nil {
		t, err := c.InferExpr(scope, x.Input)
		if err != nil {
			return nil, err
		}
		input = t
	}

	output := anyType()
	for _, when := range x.Whens {
		if input != nil {
			kt, err := c.InferExpr(scope, when.Condition)
			if err != nil {
				return nil, err
			}
			if input, err = c.ctx.Unify(input, kt); err != nil {
				return nil, positioned(when.Condition.SourceSpan(), err)
			}
		} else {
			if err := c.RequireType(scope, when.Condition, schema.Boolean); err != nil {
				return nil, err
			}
		}
		rt, err := c.InferExpr(scope, when.Result)
		if err != nil {
			return nil, err
		}
		if output, err = c.ctx.Unify(output, rt); err != nil {
			return nil, positioned(when.Result.SourceSpan(), err)
		}
	}

	if x.Else != nil {
		et, err := c.InferExpr(scope, x.Else)
		if err != nil {
			return nil, err
		}
		if output, err = c.ctx.Unify(output, et); err != nil {
			return nil, positioned(x.Else.SourceSpan(), err)
		}
	} else {
		u, err := c.ctx.Unify(output, concrete(true, schema.Any))
		if err != nil {
			return nil, positioned(x.Span, err)
		}
		output = u
	}
	return output, nil
}
