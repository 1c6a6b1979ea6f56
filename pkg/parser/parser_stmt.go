package parser

import (
	"fmt"

	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/token"
)

// Statement parsing: WITH clause, CTEs, compound SELECT bodies, DML.

// parseStatement parses a complete SQL statement.
func (p *Parser) parseStatement() ast.Stmt {
	start := p.start()

	var with *ast.WithClause
	if p.check(token.WITH) {
		with = p.parseWithClause()
	}

	switch p.token.Type {
	case token.SELECT, token.VALUES:
		stmt := p.parseSelectStmt(start)
		stmt.With = with
		return stmt
	case token.INSERT:
		return p.parseInsert(start, with)
	case token.UPDATE:
		return p.parseUpdate(start, with)
	case token.DELETE:
		return p.parseDelete(start, with)
	}
	p.addError(fmt.Sprintf("expected a statement, got %s", p.token.Type))
	return &ast.SelectStmt{}
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *ast.WithClause {
	start := p.start()
	p.expect(token.WITH)
	with := &ast.WithClause{}

	if p.match(token.RECURSIVE) {
		with.Recursive = true
	}

	for {
		cte := p.parseCTE()
		with.CTEs = append(with.CTEs, cte)

		if !p.match(token.COMMA) {
			break
		}
	}

	with.Span = p.spanFrom(start)
	return with
}

// parseCTE parses a single CTE: name [(columns)] AS (statement).
func (p *Parser) parseCTE() *ast.CTE {
	start := p.start()
	cte := &ast.CTE{}

	cte.Name = p.ident("CTE name")

	if p.match(token.LPAREN) {
		for {
			cte.Columns = append(cte.Columns, p.ident("column name"))
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	p.expect(token.AS)
	p.expect(token.LPAREN)
	cte.Select = p.parseSelectBody()
	p.expect(token.RPAREN)

	cte.Span = p.spanFrom(start)
	return cte
}

// parseSelectBody parses a bare SELECT statement (compound plus trailing
// clauses), used for CTE bodies and subqueries.
func (p *Parser) parseSelectBody() *ast.SelectStmt {
	start := p.start()

	var with *ast.WithClause
	if p.check(token.WITH) {
		with = p.parseWithClause()
	}

	stmt := p.parseSelectStmt(start)
	stmt.With = with
	return stmt
}

// parseSelectStmt parses the compound expression and the statement-level
// ORDER BY / LIMIT / OFFSET clauses.
func (p *Parser) parseSelectStmt(start token.Position) *ast.SelectStmt {
	stmt := &ast.SelectStmt{}
	stmt.Compound = p.parseCompound()

	if p.match(token.ORDER) {
		p.expect(token.BY)
		for {
			stmt.OrderBy = append(stmt.OrderBy, p.parseOrderingTerm())
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	if p.match(token.LIMIT) {
		limit := p.parseExpression()
		switch {
		case p.match(token.OFFSET):
			stmt.Limit = limit
			stmt.Offset = p.parseExpression()
		case p.match(token.COMMA):
			// LIMIT offset, count
			stmt.Offset = limit
			stmt.Limit = p.parseExpression()
		default:
			stmt.Limit = limit
		}
	}

	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseOrderingTerm parses one ORDER BY term.
func (p *Parser) parseOrderingTerm() ast.OrderingTerm {
	start := p.start()
	term := ast.OrderingTerm{Expr: p.parseExpression()}
	if p.match(token.DESC) {
		term.Desc = true
	} else {
		p.match(token.ASC)
	}
	term.Span = p.spanFrom(start)
	return term
}

// parseCompound parses a chain of set operations over compound terms.
func (p *Parser) parseCompound() *ast.CompoundExpr {
	start := p.start()
	ce := &ast.CompoundExpr{Term: p.parseCompoundTerm()}

	switch p.token.Type {
	case token.UNION:
		p.nextToken()
		if p.match(token.ALL) {
			ce.Op = ast.SetOpUnionAll
		} else {
			ce.Op = ast.SetOpUnion
		}
		ce.Right = p.parseCompound()
	case token.INTERSECT:
		p.nextToken()
		ce.Op = ast.SetOpIntersect
		ce.Right = p.parseCompound()
	case token.EXCEPT:
		p.nextToken()
		ce.Op = ast.SetOpExcept
		ce.Right = p.parseCompound()
	}

	ce.Span = p.spanFrom(start)
	return ce
}

// parseCompoundTerm parses a SELECT core or a VALUES block.
func (p *Parser) parseCompoundTerm() ast.CompoundTerm {
	if p.check(token.VALUES) {
		return p.parseValues()
	}
	return p.parseSelectCore()
}

// parseValues parses VALUES (expr, ...), (expr, ...).
func (p *Parser) parseValues() *ast.ValuesClause {
	start := p.start()
	p.expect(token.VALUES)
	v := &ast.ValuesClause{}

	for {
		p.expect(token.LPAREN)
		var row []ast.Expr
		if !p.check(token.RPAREN) {
			row = p.parseExpressionList()
		}
		p.expect(token.RPAREN)
		v.Rows = append(v.Rows, row)

		if !p.match(token.COMMA) {
			break
		}
	}

	v.Span = p.spanFrom(start)
	return v
}

// parseSelectCore parses a single SELECT clause.
func (p *Parser) parseSelectCore() *ast.SelectCore {
	start := p.start()
	p.expect(token.SELECT)
	sc := &ast.SelectCore{}

	if p.match(token.DISTINCT) {
		sc.Distinct = true
	} else {
		p.match(token.ALL)
	}

	for {
		sc.Columns = append(sc.Columns, p.parseSelectItem())
		if !p.match(token.COMMA) {
			break
		}
	}

	if p.match(token.FROM) {
		sc.From = p.parseFromClause()
	}

	if p.match(token.WHERE) {
		sc.Where = p.parseExpression()
	}

	if p.match(token.GROUP) {
		p.expect(token.BY)
		sc.GroupBy = p.parseExpressionList()
		if p.match(token.HAVING) {
			sc.Having = p.parseExpression()
		}
	}

	sc.Span = p.spanFrom(start)
	return sc
}

// parseSelectItem parses one item of the SELECT list.
func (p *Parser) parseSelectItem() ast.SelectItem {
	start := p.start()
	item := ast.SelectItem{}

	switch {
	case p.check(token.STAR):
		p.nextToken()
		item.Star = true
	case p.check(token.IDENT) && p.checkPeek(token.DOT) && p.checkPeek2(token.STAR):
		item.TableStar = p.token.Literal
		p.nextToken()
		p.nextToken()
		p.nextToken()
	default:
		item.Expr = p.parseExpression()
		if p.match(token.AS) {
			item.Alias = p.ident("column alias")
		} else if p.check(token.IDENT) {
			item.Alias = p.token.Literal
			p.nextToken()
		}
	}

	item.Span = p.spanFrom(start)
	return item
}

// ---------- DML ----------

// parseInsert parses INSERT INTO table [(columns)] (VALUES ... | SELECT ...).
func (p *Parser) parseInsert(start token.Position, with *ast.WithClause) *ast.InsertStmt {
	p.expect(token.INSERT)
	p.expect(token.INTO)

	stmt := &ast.InsertStmt{With: with}

	// The target name is read here rather than through parseTableName, which
	// would take a following "(" as table-valued arguments.
	tStart := p.start()
	stmt.Table = &ast.TableName{Name: p.ident("table name")}
	if p.match(token.DOT) {
		stmt.Table.Schema = stmt.Table.Name
		stmt.Table.Name = p.ident("table name")
	}
	stmt.Table.Span = p.spanFrom(tStart)

	if p.match(token.LPAREN) {
		for {
			stmt.Columns = append(stmt.Columns, p.ident("column name"))
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	stmt.Source = p.parseSelectBody()
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseUpdate parses UPDATE table SET col = expr, ... [WHERE expr].
func (p *Parser) parseUpdate(start token.Position, with *ast.WithClause) *ast.UpdateStmt {
	p.expect(token.UPDATE)

	stmt := &ast.UpdateStmt{With: with}
	stmt.Table = p.parseTableName(true)
	p.expect(token.SET)

	for {
		aStart := p.start()
		a := ast.Assignment{Column: p.ident("column name")}
		p.expect(token.EQ)
		a.Value = p.parseExpression()
		a.Span = p.spanFrom(aStart)
		stmt.Set = append(stmt.Set, a)

		if !p.match(token.COMMA) {
			break
		}
	}

	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}

	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseDelete parses DELETE FROM table [WHERE expr].
func (p *Parser) parseDelete(start token.Position, with *ast.WithClause) *ast.DeleteStmt {
	p.expect(token.DELETE)
	p.expect(token.FROM)

	stmt := &ast.DeleteStmt{With: with}
	stmt.Table = p.parseTableName(true)

	if p.match(token.WHERE) {
		stmt.Where = p.parseExpression()
	}

	stmt.Span = p.spanFrom(start)
	return stmt
}
