package index

import (
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
)

// TermDocumentMatrix records term/document incidence without frequencies.
type TermDocumentMatrix struct {
	terms *shardedMap[map[string]struct{}]
	docs  *docRegistry
}

func NewTermDocumentMatrix() *TermDocumentMatrix {
	return &TermDocumentMatrix{
		terms: newShardedMap[map[string]struct{}](defaultShardCount),
		docs:  newDocRegistry(),
	}
}

// Add marks term as present in docID. Repeating the call has no further
// effect. Blank arguments are rejected and leave the matrix unchanged.
func (m *TermDocumentMatrix) Add(term, docID string) error {
	if strings.TrimSpace(term) == "" {
		return apperrors.InvalidArgument("term must not be empty")
	}
	if strings.TrimSpace(docID) == "" {
		return apperrors.InvalidArgument("document id must not be empty")
	}
	doc := m.docs.intern(docID)
	m.terms.update(foldTerm(term), func(set map[string]struct{}, ok bool) map[string]struct{} {
		if !ok {
			set = make(map[string]struct{}, 1)
		}
		set[doc] = struct{}{}
		return set
	})
	return nil
}

func (m *TermDocumentMatrix) DocumentsForTerm(term string) DocSet {
	out := DocSet{}
	m.terms.read(foldTerm(term), func(set map[string]struct{}, ok bool) {
		if !ok {
			return
		}
		out = make(DocSet, len(set))
		for doc := range set {
			out[doc] = struct{}{}
		}
	})
	return out
}

func (m *TermDocumentMatrix) AllDocumentIDs() DocSet {
	return m.docs.snapshot()
}

func (m *TermDocumentMatrix) Terms() []string {
	return m.terms.sortedKeys()
}

// Snapshot copies the matrix, terms and documents sorted.
func (m *TermDocumentMatrix) Snapshot() []MatrixEntry {
	terms := m.Terms()
	entries := make([]MatrixEntry, 0, len(terms))
	for _, term := range terms {
		docs := make([]string, 0)
		for doc := range m.DocumentsForTerm(term) {
			docs = append(docs, doc)
		}
		sort.Strings(docs)
		entries = append(entries, MatrixEntry{Term: term, Docs: docs})
	}
	return entries
}

func (m *TermDocumentMatrix) VocabularySize() int {
	return m.terms.len()
}

func (m *TermDocumentMatrix) DocumentCount() int {
	return m.docs.len()
}

// NonZeroEntries is the number of (term, document) cells set in the matrix.
func (m *TermDocumentMatrix) NonZeroEntries() int64 {
	var total int64
	m.terms.each(func(_ string, set map[string]struct{}) {
		total += int64(len(set))
	})
	return total
}
