package parser

import (
	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/token"
)

// Expression precedence parsing.
//
// Precedence (lowest to highest):
//
//  1. OR
//  2. AND
//  3. NOT
//  4. Comparisons: =, !=, <, >, <=, >=, IS [NOT], IN, BETWEEN,
//     LIKE/GLOB/MATCH/REGEXP
//  5. Bitwise: <<, >>, &, |
//  6. Addition: +, -, ||
//  7. Multiplication: *, /, %
//  8. Unary: -, +, ~
//  9. Postfix COLLATE
// 10. Primary

// parseExpression parses an expression.
func (p *Parser) parseExpression() ast.Expr {
	return p.parseOrExpr()
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []ast.Expr {
	var exprs []ast.Expr
	for {
		exprs = append(exprs, p.parseExpression())
		if !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}

// parseOrExpr parses OR expressions.
func (p *Parser) parseOrExpr() ast.Expr {
	start := p.start()
	left := p.parseAndExpr()

	for p.match(token.OR) {
		right := p.parseAndExpr()
		left = &ast.BinaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Left: left, Op: ast.BinOr, Right: right}
	}

	return left
}

// parseAndExpr parses AND expressions.
func (p *Parser) parseAndExpr() ast.Expr {
	start := p.start()
	left := p.parseNotExpr()

	for p.match(token.AND) {
		right := p.parseNotExpr()
		left = &ast.BinaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Left: left, Op: ast.BinAnd, Right: right}
	}

	return left
}

// parseNotExpr parses NOT expressions.
func (p *Parser) parseNotExpr() ast.Expr {
	if p.check(token.NOT) && !p.checkPeek(token.EXISTS) {
		start := p.start()
		p.nextToken()
		expr := p.parseNotExpr()
		return &ast.UnaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Op: ast.UnaryNot, Expr: expr}
	}
	return p.parseComparison()
}

// parseComparison parses comparison expressions, including the IN, BETWEEN,
// LIKE-family, and IS forms.
func (p *Parser) parseComparison() ast.Expr {
	start := p.start()
	left := p.parseBitwise()

	var not bool
	if p.check(token.NOT) {
		switch p.peek.Type {
		case token.IN, token.BETWEEN, token.LIKE, token.GLOB, token.MATCH, token.REGEXP:
			p.nextToken()
			not = true
		}
	}

	switch {
	case p.match(token.IN):
		return p.parseInExpr(start, left, not)
	case p.match(token.BETWEEN):
		return p.parseBetweenExpr(start, left, not)
	case p.check(token.LIKE), p.check(token.GLOB), p.check(token.MATCH), p.check(token.REGEXP):
		return p.parseSimilarityExpr(start, left, not)
	}

	// IS NULL / IS NOT NULL / IS [NOT] expr
	if p.match(token.IS) {
		isNot := p.match(token.NOT)
		if p.match(token.NULL) {
			op := ast.UnaryIsNull
			if isNot {
				op = ast.UnaryNotNull
			}
			return &ast.UnaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Op: op, Expr: left}
		}
		op := ast.BinIs
		if isNot {
			op = ast.BinIsNot
		}
		right := p.parseBitwise()
		return &ast.BinaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Left: left, Op: op, Right: right}
	}

	var op ast.BinaryOp
	switch p.token.Type {
	case token.EQ:
		op = ast.BinEq
	case token.NE:
		op = ast.BinNe
	case token.LT:
		op = ast.BinLt
	case token.GT:
		op = ast.BinGt
	case token.LE:
		op = ast.BinLe
	case token.GE:
		op = ast.BinGe
	default:
		return left
	}
	p.nextToken()
	right := p.parseBitwise()
	return &ast.BinaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Left: left, Op: op, Right: right}
}

// parseInExpr parses the set of an IN expression: a value list, a subquery,
// or a table reference.
func (p *Parser) parseInExpr(start token.Position, left ast.Expr, not bool) ast.Expr {
	in := &ast.InExpr{Input: left, Not: not}

	if p.match(token.LPAREN) {
		if p.check(token.SELECT) || p.check(token.WITH) || p.check(token.VALUES) {
			in.Query = p.parseSelectBody()
		} else if !p.check(token.RPAREN) {
			in.Values = p.parseExpressionList()
		} else {
			in.Values = []ast.Expr{}
		}
		p.expect(token.RPAREN)
	} else {
		in.Table = p.parseTableName(false)
	}

	in.Span = p.spanFrom(start)
	return in
}

// parseBetweenExpr parses a BETWEEN expression. The bounds parse at the
// bitwise level so the AND separator is not captured.
func (p *Parser) parseBetweenExpr(start token.Position, left ast.Expr, not bool) ast.Expr {
	between := &ast.BetweenExpr{Input: left, Not: not}
	between.Low = p.parseBitwise()
	p.expect(token.AND)
	between.High = p.parseBitwise()
	between.Span = p.spanFrom(start)
	return between
}

// parseSimilarityExpr parses LIKE/GLOB/MATCH/REGEXP with optional ESCAPE.
func (p *Parser) parseSimilarityExpr(start token.Position, left ast.Expr, not bool) ast.Expr {
	sim := &ast.SimilarityExpr{Input: left, Not: not}
	switch p.token.Type {
	case token.LIKE:
		sim.Op = ast.SimLike
	case token.GLOB:
		sim.Op = ast.SimGlob
	case token.MATCH:
		sim.Op = ast.SimMatch
	case token.REGEXP:
		sim.Op = ast.SimRegexp
	}
	p.nextToken()

	sim.Pattern = p.parseBitwise()
	if p.match(token.ESCAPE) {
		sim.Escape = p.parseBitwise()
	}

	sim.Span = p.spanFrom(start)
	return sim
}

// parseBitwise parses <<, >>, &, | expressions.
func (p *Parser) parseBitwise() ast.Expr {
	start := p.start()
	left := p.parseAddition()

	for {
		var op ast.BinaryOp
		switch p.token.Type {
		case token.SHL:
			op = ast.BinShl
		case token.SHR:
			op = ast.BinShr
		case token.AMP:
			op = ast.BinBitAnd
		case token.PIPE:
			op = ast.BinBitOr
		default:
			return left
		}
		p.nextToken()
		right := p.parseAddition()
		left = &ast.BinaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Left: left, Op: op, Right: right}
	}
}

// parseAddition parses addition/subtraction/concatenation expressions.
func (p *Parser) parseAddition() ast.Expr {
	start := p.start()
	left := p.parseMultiplication()

	for {
		var op ast.BinaryOp
		switch p.token.Type {
		case token.PLUS:
			op = ast.BinAdd
		case token.MINUS:
			op = ast.BinSub
		case token.DPIPE:
			op = ast.BinConcat
		default:
			return left
		}
		p.nextToken()
		right := p.parseMultiplication()
		left = &ast.BinaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Left: left, Op: op, Right: right}
	}
}

// parseMultiplication parses multiplication/division/modulo expressions.
func (p *Parser) parseMultiplication() ast.Expr {
	start := p.start()
	left := p.parseUnary()

	for {
		var op ast.BinaryOp
		switch p.token.Type {
		case token.STAR:
			op = ast.BinMul
		case token.SLASH:
			op = ast.BinDiv
		case token.MOD:
			op = ast.BinMod
		default:
			return left
		}
		p.nextToken()
		right := p.parseUnary()
		left = &ast.BinaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Left: left, Op: op, Right: right}
	}
}

// parseUnary parses unary expressions.
func (p *Parser) parseUnary() ast.Expr {
	start := p.start()
	switch p.token.Type {
	case token.MINUS:
		p.nextToken()
		operand := p.parseUnary()
		return &ast.UnaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Op: ast.UnaryNegate, Expr: operand}
	case token.PLUS:
		// Unary plus is the identity
		p.nextToken()
		return p.parseUnary()
	case token.TILDE:
		p.nextToken()
		operand := p.parseUnary()
		return &ast.UnaryExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Op: ast.UnaryBitNot, Expr: operand}
	}
	return p.parsePostfix()
}

// parsePostfix parses COLLATE suffixes on a primary expression.
func (p *Parser) parsePostfix() ast.Expr {
	start := p.start()
	expr := p.parsePrimary()

	for p.match(token.COLLATE) {
		name := p.ident("collation name")
		expr = &ast.CollateExpr{NodeSpan: ast.NodeSpan{Span: p.spanFrom(start)}, Expr: expr, Collation: name}
	}

	return expr
}
