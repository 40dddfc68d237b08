package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/textproc"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{"empty", "", []Token{{Type: TokenEnd}}},
		{"whitespace", "  \t ", []Token{{Type: TokenEnd}}},
		{"operators any case", "a and B Or not c", []Token{
			{Type: TokenTerm, Value: "a"}, {Type: TokenAnd}, {Type: TokenTerm, Value: "B"},
			{Type: TokenOr}, {Type: TokenNot}, {Type: TokenTerm, Value: "c"}, {Type: TokenEnd},
		}},
		{"parens split words", "(cat)AND(dog)", []Token{
			{Type: TokenLParen}, {Type: TokenTerm, Value: "cat"}, {Type: TokenRParen},
			{Type: TokenAnd},
			{Type: TokenLParen}, {Type: TokenTerm, Value: "dog"}, {Type: TokenRParen}, {Type: TokenEnd},
		}},
		{"raw value kept", "Dog's ANDROID", []Token{
			{Type: TokenTerm, Value: "Dog's"}, {Type: TokenTerm, Value: "ANDROID"}, {Type: TokenEnd},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestParsePrecedence(t *testing.T) {
	p := NewParser(textproc.BasicNormalizer{})
	tests := []struct {
		query string
		want  string
	}{
		{"a", "TERM(a)"},
		{"a OR b AND c", "(TERM(a) OR (TERM(b) AND TERM(c)))"},
		{"(a OR b) AND c", "((TERM(a) OR TERM(b)) AND TERM(c))"},
		{"a AND b AND c", "((TERM(a) AND TERM(b)) AND TERM(c))"},
		{"a OR b OR c", "((TERM(a) OR TERM(b)) OR TERM(c))"},
		{"NOT a AND b", "(NOT(TERM(a)) AND TERM(b))"},
		{"NOT NOT NOT a", "NOT(NOT(NOT(TERM(a))))"},
		{"NOT (a OR b)", "NOT((TERM(a) OR TERM(b)))"},
		{"((a))", "TERM(a)"},
		{"Cat AND DOG!", "(TERM(cat) AND TERM(dog))"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			node, err := p.Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, node.String())
		})
	}
}

func TestParseBuildsExpectedTree(t *testing.T) {
	node, err := NewParser(nil).Parse("a OR b AND c")
	require.NoError(t, err)
	assert.Equal(t, Or(Term("a"), And(Term("b"), Term("c"))), node)
}

func TestParseErrors(t *testing.T) {
	p := NewParser(textproc.BasicNormalizer{})
	tests := []struct {
		name     string
		query    string
		kind     ParseErrorKind
		sentinel error
		expected TokenType
		found    TokenType
		near     string
	}{
		{"empty", "", EmptyQuery, apperrors.ErrEmptyQuery, 0, 0, ""},
		{"blank", "   ", EmptyQuery, apperrors.ErrEmptyQuery, 0, 0, ""},
		{"punctuation term", "---", InvalidTerm, apperrors.ErrInvalidTerm, 0, 0, ""},
		{"dangling and", "a AND", SyntaxError, apperrors.ErrSyntax, TokenTerm, TokenEnd, ""},
		{"missing close paren", "(a OR b", SyntaxError, apperrors.ErrSyntax, TokenRParen, TokenEnd, ""},
		{"trailing term", "a b c d", SyntaxError, apperrors.ErrSyntax, TokenEnd, TokenTerm, "b c d"},
		{"leading operator", "OR a", SyntaxError, apperrors.ErrSyntax, TokenTerm, TokenOr, "OR a"},
		{"stray close paren", "a )", SyntaxError, apperrors.ErrSyntax, TokenEnd, TokenRParen, ")"},
		{"empty parens", "()", SyntaxError, apperrors.ErrSyntax, TokenTerm, TokenRParen, ")"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.query)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.True(t, apperrors.IsQueryError(err))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
			if tt.kind == SyntaxError {
				assert.Equal(t, tt.expected, pe.Expected)
				assert.Equal(t, tt.found, pe.Found)
				assert.Equal(t, tt.near, nearText(pe.Near))
			}
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	_, err := NewParser(nil).Parse("a AND")
	require.Error(t, err)
	assert.Equal(t, "syntax error: expected Term, found EndOfQuery", err.Error())

	_, err = NewParser(nil).Parse("a b")
	require.Error(t, err)
	assert.Equal(t, `syntax error: expected EndOfQuery, found Term near "b"`, err.Error())
}

func sampleIndex() *index.InvertedIndex {
	ix := index.NewInvertedIndex()
	ix.Add("cat", "d1")
	ix.Add("dog", "d1")
	ix.Add("dog", "d2")
	ix.Add("bird", "d2")
	ix.Add("fish", "d3")
	return ix
}

// explodingNode fails the test if the evaluator ever reaches it.
type explodingNode struct{}

func (explodingNode) node()          {}
func (explodingNode) String() string { return "BOOM" }

func TestAndShortCircuits(t *testing.T) {
	ix := sampleIndex()
	var got index.DocSet
	assert.NotPanics(t, func() {
		got = Evaluate(And(Term("missing"), explodingNode{}), ix, &EvaluationServices{})
	})
	assert.Equal(t, 0, got.Len())
	assert.NotNil(t, got)

	assert.Panics(t, func() {
		Evaluate(And(Term("cat"), explodingNode{}), ix, &EvaluationServices{})
	})
}

func TestEvaluate(t *testing.T) {
	ix := sampleIndex()
	p := NewParser(nil)
	tests := []struct {
		query string
		want  []string
	}{
		{"dog", []string{"d1", "d2"}},
		{"cat AND dog", []string{"d1"}},
		{"cat OR bird", []string{"d1", "d2"}},
		{"NOT dog", []string{"d3"}},
		{"NOT NOT dog", []string{"d1", "d2"}},
		{"dog AND NOT cat", []string{"d2"}},
		{"(cat OR fish) AND NOT bird", []string{"d1", "d3"}},
		{"unicorn", []string{}},
		{"NOT unicorn", []string{"d1", "d2", "d3"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			node, err := p.Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Evaluate(node, ix, nil).Sorted())
		})
	}
}

func TestDeMorgan(t *testing.T) {
	ix := sampleIndex()
	a, b := Term("cat"), Term("bird")
	got := Evaluate(Not(Or(a, b)), ix, nil)
	want := ix.AllDocumentIDs().Difference(Evaluate(a, ix, nil).Union(Evaluate(b, ix, nil)))
	assert.True(t, want.Equal(got))
	assert.True(t, got.Equal(Evaluate(And(Not(a), Not(b)), ix, nil)))
}

func TestEvaluateSameResultOnBothStores(t *testing.T) {
	ix := sampleIndex()
	m := index.NewTermDocumentMatrix()
	for _, e := range ix.Snapshot() {
		for _, p := range e.Postings {
			require.NoError(t, m.Add(e.Term, p.DocID))
		}
	}
	node, err := NewParser(nil).Parse("(dog OR fish) AND NOT cat")
	require.NoError(t, err)
	assert.Equal(t, Evaluate(node, ix, nil).Sorted(), Evaluate(node, m, nil).Sorted())
}

func TestEvaluateDoesNotAliasStoreSets(t *testing.T) {
	ix := sampleIndex()
	got := Evaluate(Term("dog"), ix, nil)
	got.Add("intruder")
	assert.False(t, ix.DocumentsForTerm("dog").Contains("intruder"))
}

func BenchmarkParse(b *testing.B) {
	p := NewParser(nil)
	for b.Loop() {
		_, _ = p.Parse("(alpha OR beta) AND NOT (gamma OR delta AND epsilon)")
	}
}

func BenchmarkEvaluate(b *testing.B) {
	ix := sampleIndex()
	node, err := NewParser(nil).Parse("(dog OR fish) AND NOT cat")
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		Evaluate(node, ix, nil)
	}
}
