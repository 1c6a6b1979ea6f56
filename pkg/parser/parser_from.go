package parser

import (
	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/token"
)

// FROM clause parsing: table references, derived tables, joins.
//
// Grammar:
//
//	from_clause → table_ref (join)*
//	table_ref   → table_name | derived_table
//	table_name  → [schema "."] identifier ["(" expr_list ")"] [[AS] identifier]
//	derived     → "(" statement ")" [[AS] identifier]
//	join        → [NATURAL] [LEFT [OUTER]|INNER|CROSS] JOIN table_ref
//	              [ON expr | USING "(" name_list ")"] | "," table_ref

// parseFromClause parses the FROM clause into a left-folded join tree.
func (p *Parser) parseFromClause() ast.TableRef {
	start := p.start()
	source := p.parseTableRef()

	for {
		join, ok := p.parseJoin(start, source)
		if !ok {
			break
		}
		source = join
	}

	return source
}

// parseJoin parses one join step onto the given left side.
func (p *Parser) parseJoin(start token.Position, left ast.TableRef) (ast.TableRef, bool) {
	join := &ast.JoinExpr{Type: ast.JoinInner, Left: left}

	switch {
	case p.match(token.COMMA):
		join.Type = ast.JoinCross
		join.Right = p.parseTableRef()
		join.Span = p.spanFrom(start)
		return join, true

	case p.check(token.NATURAL), p.check(token.JOIN), p.check(token.LEFT),
		p.check(token.INNER), p.check(token.CROSS):
		if p.match(token.NATURAL) {
			join.Natural = true
		}
		switch {
		case p.match(token.LEFT):
			p.match(token.OUTER)
			join.Type = ast.JoinLeft
		case p.match(token.INNER):
		case p.match(token.CROSS):
			join.Type = ast.JoinCross
		}
		p.expect(token.JOIN)

		join.Right = p.parseTableRef()

		switch {
		case p.match(token.ON):
			join.On = p.parseExpression()
		case p.match(token.USING):
			p.expect(token.LPAREN)
			for {
				join.Using = append(join.Using, p.ident("column name"))
				if !p.match(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN)
		}

		join.Span = p.spanFrom(start)
		return join, true
	}

	return nil, false
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() ast.TableRef {
	if p.check(token.LPAREN) {
		return p.parseDerivedTable()
	}
	return p.parseTableName(true)
}

// parseTableName parses a possibly schema-qualified table name with an
// optional argument list and alias.
func (p *Parser) parseTableName(allowAlias bool) *ast.TableName {
	start := p.start()
	table := &ast.TableName{}

	if !p.check(token.IDENT) {
		p.addError("expected table name")
		table.Span = p.spanFrom(start)
		return table
	}

	table.Name = p.token.Literal
	p.nextToken()

	if p.match(token.DOT) {
		table.Schema = table.Name
		table.Name = p.ident("table name")
	}

	// Table-valued invocation arguments. The checker rejects these; they
	// are kept in the tree for the error span.
	if p.check(token.LPAREN) {
		p.nextToken()
		table.HasArgs = true
		if !p.check(token.RPAREN) {
			table.Arguments = p.parseExpressionList()
		}
		p.expect(token.RPAREN)
	}

	if allowAlias {
		if p.match(token.AS) {
			table.Alias = p.ident("table alias")
		} else if p.check(token.IDENT) {
			table.Alias = p.token.Literal
			p.nextToken()
		}
	}

	table.Span = p.spanFrom(start)
	return table
}

// parseDerivedTable parses a subquery in a FROM clause.
func (p *Parser) parseDerivedTable() *ast.DerivedTable {
	start := p.start()
	p.expect(token.LPAREN)
	derived := &ast.DerivedTable{}
	derived.Select = p.parseSelectBody()
	p.expect(token.RPAREN)

	if p.match(token.AS) {
		derived.Alias = p.ident("table alias")
	} else if p.check(token.IDENT) {
		derived.Alias = p.token.Literal
		p.nextToken()
	}

	derived.Span = p.spanFrom(start)
	return derived
}
