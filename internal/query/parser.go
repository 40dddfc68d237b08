package query

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/textproc"
)

const nearTokens = 3

// Parser turns query strings into ASTs. It keeps no per-query state and is
// safe for concurrent use.
//
// Grammar, lowest precedence first:
//
//	query   = or EOF
//	or      = and { OR and }
//	and     = not { AND not }
//	not     = NOT not | factor
//	factor  = TERM | "(" or ")"
type Parser struct {
	normalizer textproc.Normalizer
}

func NewParser(normalizer textproc.Normalizer) *Parser {
	if normalizer == nil {
		normalizer = textproc.BasicNormalizer{}
	}
	return &Parser{normalizer: normalizer}
}

// Parse returns a *ParseError on failure.
func (p *Parser) Parse(raw string) (Node, error) {
	st := &parseState{tokens: Tokenize(raw), normalizer: p.normalizer}
	if st.peek().Type == TokenEnd {
		return nil, &ParseError{Kind: EmptyQuery}
	}
	node, err := st.parseOr()
	if err != nil {
		return nil, err
	}
	if err := st.expect(TokenEnd); err != nil {
		return nil, err
	}
	return node, nil
}

type parseState struct {
	tokens     []Token
	pos        int
	normalizer textproc.Normalizer
}

func (s *parseState) peek() Token {
	return s.tokens[s.pos]
}

func (s *parseState) advance() Token {
	t := s.tokens[s.pos]
	if t.Type != TokenEnd {
		s.pos++
	}
	return t
}

func (s *parseState) expect(tt TokenType) error {
	if s.peek().Type != tt {
		return s.syntaxError(tt)
	}
	s.advance()
	return nil
}

func (s *parseState) syntaxError(expected TokenType) *ParseError {
	var near []Token
	for i := s.pos; i < len(s.tokens) && len(near) < nearTokens; i++ {
		if s.tokens[i].Type == TokenEnd {
			break
		}
		near = append(near, s.tokens[i])
	}
	return &ParseError{
		Kind:     SyntaxError,
		Expected: expected,
		Found:    s.peek().Type,
		Near:     near,
	}
}

func (s *parseState) parseOr() (Node, error) {
	left, err := s.parseAnd()
	if err != nil {
		return nil, err
	}
	for s.peek().Type == TokenOr {
		s.advance()
		right, err := s.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or(left, right)
	}
	return left, nil
}

func (s *parseState) parseAnd() (Node, error) {
	left, err := s.parseNot()
	if err != nil {
		return nil, err
	}
	for s.peek().Type == TokenAnd {
		s.advance()
		right, err := s.parseNot()
		if err != nil {
			return nil, err
		}
		left = And(left, right)
	}
	return left, nil
}

func (s *parseState) parseNot() (Node, error) {
	if s.peek().Type == TokenNot {
		s.advance()
		operand, err := s.parseNot()
		if err != nil {
			return nil, err
		}
		return Not(operand), nil
	}
	return s.parseFactor()
}

func (s *parseState) parseFactor() (Node, error) {
	switch s.peek().Type {
	case TokenTerm:
		tok := s.advance()
		term := s.normalizer.Normalize(tok.Value)
		if strings.TrimSpace(term) == "" {
			return nil, &ParseError{Kind: InvalidTerm, Term: tok.Value}
		}
		return Term(term), nil
	case TokenLParen:
		s.advance()
		node, err := s.parseOr()
		if err != nil {
			return nil, err
		}
		if err := s.expect(TokenRParen); err != nil {
			return nil, err
		}
		return node, nil
	default:
		return nil, s.syntaxError(TokenTerm)
	}
}
