// Package index holds the two posting stores built from a document
// collection: the InvertedIndex (term -> document -> frequency) and the
// TermDocumentMatrix (term -> set of documents). Both are safe for concurrent
// Add calls during a build and expose the read side through Accessor.
package index

import "strings"

// Accessor is the read-side capability the query evaluator needs.
//
// DocumentsForTerm returns an empty set, never nil, for an unknown term.
// AllDocumentIDs is the universe used to evaluate NOT. Both return sets the
// caller owns.
type Accessor interface {
	DocumentsForTerm(term string) DocSet
	AllDocumentIDs() DocSet
}

// foldTerm is the key stores use for terms: lookups are case-insensitive.
func foldTerm(term string) string {
	return strings.ToLower(term)
}

var (
	_ Accessor = (*InvertedIndex)(nil)
	_ Accessor = (*TermDocumentMatrix)(nil)
)
