// Package query implements the boolean query language: a tokenizer, a
// recursive-descent parser producing an AST, and the set-algebra evaluator.
package query

import (
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenTerm TokenType = iota
	TokenAnd
	TokenOr
	TokenNot
	TokenLParen
	TokenRParen
	TokenEnd
)

func (t TokenType) String() string {
	switch t {
	case TokenTerm:
		return "Term"
	case TokenAnd:
		return "And"
	case TokenOr:
		return "Or"
	case TokenNot:
		return "Not"
	case TokenLParen:
		return "LParen"
	case TokenRParen:
		return "RParen"
	case TokenEnd:
		return "EndOfQuery"
	default:
		return "Unknown"
	}
}

// Token is one lexical unit of a query. Value holds the raw, un-normalized
// text for Term tokens and is empty otherwise.
type Token struct {
	Type  TokenType
	Value string
}

func (t Token) String() string {
	if t.Type == TokenTerm {
		return t.Type.String() + "(" + t.Value + ")"
	}
	return t.Type.String()
}

// text is how the token appeared in the query.
func (t Token) text() string {
	switch t.Type {
	case TokenTerm:
		return t.Value
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenNot:
		return "NOT"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	}
	return ""
}

// Tokenize splits raw into tokens. The result always ends with a TokenEnd.
func Tokenize(raw string) []Token {
	var tokens []Token
	runes := []rune(raw)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, Token{Type: TokenLParen})
			i++
		case r == ')':
			tokens = append(tokens, Token{Type: TokenRParen})
			i++
		default:
			start := i
			for i < len(runes) && !isDelimiter(runes[i]) {
				i++
			}
			tokens = append(tokens, wordToken(string(runes[start:i])))
		}
	}
	return append(tokens, Token{Type: TokenEnd})
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')'
}

func wordToken(word string) Token {
	switch {
	case strings.EqualFold(word, "AND"):
		return Token{Type: TokenAnd}
	case strings.EqualFold(word, "OR"):
		return Token{Type: TokenOr}
	case strings.EqualFold(word, "NOT"):
		return Token{Type: TokenNot}
	default:
		return Token{Type: TokenTerm, Value: word}
	}
}
