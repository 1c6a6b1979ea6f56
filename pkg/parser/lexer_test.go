package parser

import (
	"testing"

	"github.com/leapstack-labs/squint/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(input string) []token.Token {
	l := NewLexer(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerOperators(t *testing.T) {
	toks := tokenize("+ - * / % || = == != <> < <= > >= << >> & | ~ . , ( )")
	var types []token.Type
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []token.Type{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.MOD,
		token.DPIPE, token.EQ, token.EQ, token.NE, token.NE,
		token.LT, token.LE, token.GT, token.GE, token.SHL, token.SHR,
		token.AMP, token.PIPE, token.TILDE, token.DOT, token.COMMA,
		token.LPAREN, token.RPAREN,
	}, types)
}

func TestLexerKeywordsAreCaseInsensitive(t *testing.T) {
	toks := tokenize("SeLeCt NaMe FrOm users")
	require.Len(t, toks, 4)
	assert.Equal(t, token.SELECT, toks[0].Type)
	assert.Equal(t, token.IDENT, toks[1].Type)
	assert.Equal(t, "NaMe", toks[1].Literal)
	assert.Equal(t, token.FROM, toks[2].Type)
}

func TestLexerLiterals(t *testing.T) {
	tests := []struct {
		input   string
		want    token.Type
		literal string
	}{
		{"42", token.NUMBER, "42"},
		{"3.14", token.NUMBER, "3.14"},
		{"1e10", token.NUMBER, "1e10"},
		{"0x1F", token.NUMBER, "0x1F"},
		{"'hello'", token.STRING, "hello"},
		{"'it''s'", token.STRING, "it's"},
		{"x'53514c'", token.BLOB, "53514c"},
		{"X'00'", token.BLOB, "00"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := tokenize(tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, tt.want, toks[0].Type)
			assert.Equal(t, tt.literal, toks[0].Literal)
		})
	}
}

func TestLexerBindParameters(t *testing.T) {
	toks := tokenize("? :name @name $name")
	require.Len(t, toks, 4)
	for _, tok := range toks {
		assert.Equal(t, token.BIND, tok.Type)
	}
	assert.Equal(t, "?", toks[0].Literal)
	assert.Equal(t, ":name", toks[1].Literal)
	assert.Equal(t, "@name", toks[2].Literal)
	assert.Equal(t, "$name", toks[3].Literal)
}

func TestLexerQuotedIdentifiers(t *testing.T) {
	toks := tokenize(`"col name" ` + "`other`" + ` [third]`)
	require.Len(t, toks, 3)
	for _, tok := range toks {
		assert.Equal(t, token.IDENT, tok.Type)
	}
	assert.Equal(t, "col name", toks[0].Literal)
	assert.Equal(t, "other", toks[1].Literal)
	assert.Equal(t, "third", toks[2].Literal)
}

func TestLexerSkipsComments(t *testing.T) {
	toks := tokenize("SELECT -- line comment\n /* block\ncomment */ 1")
	require.Len(t, toks, 2)
	assert.Equal(t, token.SELECT, toks[0].Type)
	assert.Equal(t, token.NUMBER, toks[1].Type)
}

func TestLexerPositions(t *testing.T) {
	toks := tokenize("SELECT\n  name")
	require.Len(t, toks, 2)
	assert.Equal(t, 1, toks[0].Span.Start.Line)
	assert.Equal(t, 1, toks[0].Span.Start.Column)
	assert.Equal(t, 2, toks[1].Span.Start.Line)
	assert.Equal(t, 3, toks[1].Span.Start.Column)
}
