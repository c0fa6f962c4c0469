package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Captainexpo-1/PitLang/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenize_Operators(t *testing.T) {
	toks, err := Tokenize(`123 + 2 - 12 * 4 / 2 % 3`)
	require.Nil(t, err)
	require.Equal(t, []token.Kind{
		token.NUMBER, token.PLUS, token.NUMBER, token.MINUS, token.NUMBER,
		token.STAR, token.NUMBER, token.SLASH, token.NUMBER, token.PERCENT, token.NUMBER,
	}, kinds(toks))
}

func TestTokenize_LongestMatch(t *testing.T) {
	toks, err := Tokenize(`<= >= == != && || ++ -- =`)
	require.Nil(t, err)
	require.Equal(t, []token.Kind{
		token.LESSEQUAL, token.GREATEREQUAL, token.EQUAL, token.NOTEQUAL,
		token.AND, token.OR, token.INCREMENT, token.DECREMENT, token.ASSIGN,
	}, kinds(toks))
}

func TestTokenize_Keywords(t *testing.T) {
	toks, err := Tokenize(`let fn if else return while for true false null foo`)
	require.Nil(t, err)
	require.Equal(t, []token.Kind{
		token.LET, token.FUNCTION, token.IF, token.ELSE, token.RETURN,
		token.WHILE, token.FOR, token.TRUE, token.FALSE, token.NULL, token.IDENTIFIER,
	}, kinds(toks))
}

func TestTokenize_StringEscapes(t *testing.T) {
	toks, err := Tokenize(`"a\nb\tc\r"`)
	require.Nil(t, err)
	require.Len(t, toks, 1)
	require.Equal(t, "a\nb\tc\r", toks[0].Literal)
}

func TestTokenize_SingleQuotedString(t *testing.T) {
	toks, err := Tokenize(`'hello'`)
	require.Nil(t, err)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "hello", toks[0].Literal)
}

func TestTokenize_InvalidEscape(t *testing.T) {
	_, err := Tokenize(`"bad\q"`)
	require.NotNil(t, err)
	require.Equal(t, "LexError", string(err.Kind))
}

func TestTokenize_UnterminatedString(t *testing.T) {
	_, err := Tokenize(`"no end`)
	require.NotNil(t, err)
}

func TestTokenize_UnterminatedBlockComment(t *testing.T) {
	_, err := Tokenize("/* never closes")
	require.NotNil(t, err)
}

func TestTokenize_Comments(t *testing.T) {
	toks, err := Tokenize("1 // a comment\n + /* multi\nline */ 2")
	require.Nil(t, err)
	require.Equal(t, []token.Kind{token.NUMBER, token.PLUS, token.NUMBER}, kinds(toks))
}

func TestTokenize_Number(t *testing.T) {
	toks, err := Tokenize(`3.14 42`)
	require.Nil(t, err)
	require.Equal(t, "3.14", toks[0].Literal)
	require.Equal(t, "42", toks[1].Literal)
}

func TestTokenize_LineColumnTracking(t *testing.T) {
	toks, err := Tokenize("a\nb")
	require.Nil(t, err)
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 1, toks[1].Column)
}
