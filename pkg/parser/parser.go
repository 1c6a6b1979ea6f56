// Package parser implements a recursive descent parser for the SQLite
// dialect.
//
// The parser is split across multiple files:
//
//   - parser.go (this file): public API, Parser struct, token helpers
//   - parser_stmt.go: statements (WITH, SELECT, INSERT, UPDATE, DELETE)
//   - parser_from.go: FROM clause (table refs, joins)
//   - parser_expr.go: expression precedence parsing
//   - parser_primary.go: primary expressions (literals, refs, calls)
//
// Grammar overview:
//
//	statement   → [WITH cte_list] (select_stmt | insert | update | delete)
//	select_stmt → compound [ORDER BY order_list] [LIMIT expr [OFFSET expr]]
//	compound    → term [(UNION [ALL]|INTERSECT|EXCEPT) compound]
//	term        → select_core | VALUES row ("," row)*
//	select_core → SELECT [DISTINCT|ALL] select_list [FROM from_clause]
//	              [WHERE expr] [GROUP BY expr_list [HAVING expr]]
package parser

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/squint/pkg/ast"
	"github.com/leapstack-labs/squint/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	peek2   token.Token // second lookahead token
	prevEnd token.Position
	errors  []error
	bindSeq int // positional bind parameter counter
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{
		lexer: NewLexer(sql),
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single statement and returns the AST.
func Parse(sql string) (ast.Stmt, error) {
	p := NewParser(sql)
	stmt := p.parseStatement()
	if !p.check(token.EOF) {
		p.addError(fmt.Sprintf("unexpected trailing input at %s", p.token.Type))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// ParseQuery parses a SELECT statement and returns the AST.
func ParseQuery(sql string) (*ast.SelectStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return nil, &ParseError{Message: "not a SELECT statement"}
	}
	return sel, nil
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prevEnd = p.token.Span.End
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.Type) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.Type) bool {
	return p.peek.Type == t
}

// checkPeek2 returns true if the peek2 token is of the given type.
func (p *Parser) checkPeek2(t token.Type) bool {
	return p.peek2.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.Type) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("unexpected token %s, expected %s", p.token.Type, t))
	return false
}

// addError adds a parse error at the current token.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Span.Start,
		Message: msg,
	})
}

// start returns the current token's start position, for span tracking.
func (p *Parser) start() token.Position {
	return p.token.Span.Start
}

// spanFrom builds the span from a recorded start to the end of the last
// consumed token.
func (p *Parser) spanFrom(start token.Position) token.Span {
	return token.Span{Start: start, End: p.prevEnd}
}

// ident consumes an identifier and returns its literal, or reports an
// error.
func (p *Parser) ident(what string) string {
	if p.check(token.IDENT) {
		name := p.token.Literal
		p.nextToken()
		return name
	}
	p.addError(fmt.Sprintf("expected %s, got %s", what, p.token.Type))
	return ""
}

// nextBindName numbers a positional bind parameter.
func (p *Parser) nextBindName() string {
	p.bindSeq++
	return "?" + strconv.Itoa(p.bindSeq)
}
