package query

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
)

type ParseErrorKind int

const (
	EmptyQuery ParseErrorKind = iota + 1
	InvalidTerm
	SyntaxError
)

func (k ParseErrorKind) String() string {
	switch k {
	case EmptyQuery:
		return "EmptyQuery"
	case InvalidTerm:
		return "InvalidTerm"
	case SyntaxError:
		return "SyntaxError"
	default:
		return "Unknown"
	}
}

// ParseError describes why a query was rejected. Expected, Found and Near are
// set for SyntaxError; Term holds the raw text for InvalidTerm. Near lists up
// to three tokens starting at the offending one, end marker excluded.
type ParseError struct {
	Kind     ParseErrorKind
	Expected TokenType
	Found    TokenType
	Near     []Token
	Term     string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case EmptyQuery:
		return "empty query"
	case InvalidTerm:
		return fmt.Sprintf("invalid term %q: nothing searchable left after normalization", e.Term)
	default:
		msg := fmt.Sprintf("syntax error: expected %s, found %s", e.Expected, e.Found)
		if len(e.Near) > 0 {
			msg += fmt.Sprintf(" near %q", nearText(e.Near))
		}
		return msg
	}
}

func (e *ParseError) Unwrap() error {
	switch e.Kind {
	case EmptyQuery:
		return apperrors.ErrEmptyQuery
	case InvalidTerm:
		return apperrors.ErrInvalidTerm
	default:
		return apperrors.ErrSyntax
	}
}

func nearText(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.text()
	}
	return strings.Join(parts, " ")
}
