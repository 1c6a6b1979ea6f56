package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/token"
)

// Primary expression parsing: literals, bind parameters, column refs,
// function calls, CASE, CAST, EXISTS, RAISE, and parenthesized
// expressions or scalar subqueries.

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() ast.Expr {
	start := p.start()

	switch p.token.Type {
	case token.NUMBER:
		lit := p.token.Literal
		p.nextToken()
		kind := ast.LiteralInteger
		if !strings.HasPrefix(lit, "0x") && !strings.HasPrefix(lit, "0X") &&
			strings.ContainsAny(lit, ".eE") {
			kind = ast.LiteralFloat
		}
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: kind, Value: lit}

	case token.STRING:
		lit := p.token.Literal
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralString, Value: lit}

	case token.BLOB:
		lit := p.token.Literal
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralBlob, Value: lit}

	case token.NULL:
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralNull, Value: "NULL"}

	case token.TRUE:
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralBool, Value: "TRUE"}

	case token.FALSE:
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralBool, Value: "FALSE"}

	case token.CURRENT_DATE:
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralCurrentDate, Value: "CURRENT_DATE"}

	case token.CURRENT_TIME:
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralCurrentTime, Value: "CURRENT_TIME"}

	case token.CURRENT_TIMESTAMP:
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralCurrentTimestamp, Value: "CURRENT_TIMESTAMP"}

	case token.BIND:
		name := p.token.Literal
		p.nextToken()
		if name == "?" {
			name = p.nextBindName()
		}
		return &ast.BindParam{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Name: name}

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		return p.parseCastExpr()

	case token.RAISE:
		return p.parseRaiseExpr()

	case token.NOT:
		// NOT EXISTS; plain NOT is handled in the precedence ladder
		if p.checkPeek(token.EXISTS) {
			p.nextToken()
			return p.parseExistsExpr(start, true)
		}
		p.addError("unexpected NOT")
		p.nextToken()
		return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralNull, Value: "NULL"}

	case token.EXISTS:
		return p.parseExistsExpr(start, false)

	case token.IDENT:
		return p.parseIdentifierExpr()

	case token.LPAREN:
		return p.parseParenExpr()
	}

	p.addError(fmt.Sprintf("unexpected token in expression: %s", p.token.Type))
	p.nextToken()
	return &ast.Literal{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Kind: ast.LiteralNull, Value: "NULL"}
}

// parseIdentifierExpr parses an identifier: a column ref, a qualified
// column ref, or a function call.
func (p *Parser) parseIdentifierExpr() ast.Expr {
	start := p.start()
	name := p.token.Literal
	p.nextToken()

	if p.check(token.LPAREN) {
		return p.parseFuncCall(start, name)
	}

	// Qualified reference: table.column or schema.table.column. The
	// schema part is dropped; resolution is by table name or alias.
	parts := []string{name}
	for p.match(token.DOT) {
		parts = append(parts, p.ident("column name"))
	}

	ref := &ast.ColumnRef{Column: parts[len(parts)-1]}
	if len(parts) > 1 {
		ref.Table = parts[len(parts)-2]
	}
	ref.Span = p.spanFrom(start)
	return ref
}

// parseFuncCall parses a function call.
func (p *Parser) parseFuncCall(start token.Position, name string) ast.Expr {
	fn := &ast.FuncCall{Name: name}

	p.expect(token.LPAREN)

	if p.check(token.STAR) {
		fn.Star = true
		p.nextToken()
	} else if !p.check(token.RPAREN) {
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		}
		fn.Args = p.parseExpressionList()
	}

	p.expect(token.RPAREN)
	fn.Span = p.spanFrom(start)
	return fn
}

// parseParenExpr parses a parenthesized expression or a scalar subquery.
func (p *Parser) parseParenExpr() ast.Expr {
	start := p.start()
	p.expect(token.LPAREN)

	if p.check(token.SELECT) || p.check(token.WITH) || p.check(token.VALUES) {
		sub := &ast.SubqueryExpr{Select: p.parseSelectBody()}
		p.expect(token.RPAREN)
		sub.Span = p.spanFrom(start)
		return sub
	}

	expr := p.parseExpression()
	p.expect(token.RPAREN)
	return expr
}

// parseCaseExpr parses both CASE forms.
func (p *Parser) parseCaseExpr() ast.Expr {
	start := p.start()
	p.expect(token.CASE)
	c := &ast.CaseExpr{}

	if !p.check(token.WHEN) {
		c.Input = p.parseExpression()
	}

	for p.check(token.WHEN) {
		wStart := p.start()
		p.nextToken()
		w := ast.WhenClause{}
		w.Condition = p.parseExpression()
		p.expect(token.THEN)
		w.Result = p.parseExpression()
		w.Span = p.spanFrom(wStart)
		c.Whens = append(c.Whens, w)
	}

	if p.match(token.ELSE) {
		c.Else = p.parseExpression()
	}

	p.expect(token.END)
	c.Span = p.spanFrom(start)
	return c
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() ast.Expr {
	start := p.start()
	p.expect(token.CAST)
	p.expect(token.LPAREN)
	c := &ast.CastExpr{}
	c.Expr = p.parseExpression()
	p.expect(token.AS)
	c.TypeName = p.parseTypeName()
	p.expect(token.RPAREN)
	c.Span = p.spanFrom(start)
	return c
}

// parseTypeName parses a declared type: one or more identifier words with
// an optional parenthesized size.
func (p *Parser) parseTypeName() string {
	var words []string
	for p.check(token.IDENT) {
		words = append(words, p.token.Literal)
		p.nextToken()
	}
	if len(words) == 0 {
		p.addError("expected type name")
	}
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.check(token.EOF) {
			p.nextToken()
		}
		p.expect(token.RPAREN)
	}
	return strings.Join(words, " ")
}

// parseExistsExpr parses [NOT] EXISTS (SELECT ...).
func (p *Parser) parseExistsExpr(start token.Position, not bool) ast.Expr {
	p.expect(token.EXISTS)
	p.expect(token.LPAREN)
	e := &ast.ExistsExpr{Not: not}
	e.Select = p.parseSelectBody()
	p.expect(token.RPAREN)
	e.Span = p.spanFrom(start)
	return e
}

// parseRaiseExpr parses RAISE(IGNORE) or RAISE(action, message).
func (p *Parser) parseRaiseExpr() ast.Expr {
	start := p.start()
	p.expect(token.RAISE)
	p.expect(token.LPAREN)

	r := &ast.RaiseExpr{}
	action := strings.ToUpper(p.ident("raise action"))
	switch action {
	case "IGNORE":
		r.Action = ast.RaiseIgnore
	case "ROLLBACK":
		r.Action = ast.RaiseRollback
	case "ABORT":
		r.Action = ast.RaiseAbort
	case "FAIL":
		r.Action = ast.RaiseFail
	default:
		p.addError(fmt.Sprintf("unknown RAISE action %q", action))
	}

	if p.match(token.COMMA) {
		if p.check(token.STRING) {
			r.Message = p.token.Literal
			p.nextToken()
		} else {
			p.addError("expected RAISE message string")
		}
	}

	p.expect(token.RPAREN)
	r.Span = p.spanFrom(start)
	return r
}
