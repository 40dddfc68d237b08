package index

import "sort"

// InvertedIndex maps term -> document -> frequency.
//
// Add is permissive about blank input; the builder filters empty tokens
// before they get here.
type InvertedIndex struct {
	terms *shardedMap[map[string]uint32]
	docs  *docRegistry
}

func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		terms: newShardedMap[map[string]uint32](defaultShardCount),
		docs:  newDocRegistry(),
	}
}

// Add records one occurrence of term in docID.
func (ix *InvertedIndex) Add(term, docID string) {
	ix.AddCount(term, docID, 1)
}

// AddCount records n occurrences at once. Deserializers use it to restore a
// frequency without replaying every token.
func (ix *InvertedIndex) AddCount(term, docID string, n uint32) {
	if n == 0 {
		return
	}
	// The universe is updated first so a reader that can see the posting can
	// also see the document in AllDocumentIDs.
	doc := ix.docs.intern(docID)
	ix.terms.update(foldTerm(term), func(postings map[string]uint32, ok bool) map[string]uint32 {
		if !ok {
			postings = make(map[string]uint32, 1)
		}
		postings[doc] += n
		return postings
	})
}

func (ix *InvertedIndex) DocumentsForTerm(term string) DocSet {
	out := DocSet{}
	ix.terms.read(foldTerm(term), func(postings map[string]uint32, ok bool) {
		if !ok {
			return
		}
		out = make(DocSet, len(postings))
		for doc := range postings {
			out[doc] = struct{}{}
		}
	})
	return out
}

func (ix *InvertedIndex) AllDocumentIDs() DocSet {
	return ix.docs.snapshot()
}

// Frequency returns how often term occurs in docID, 0 when it does not.
func (ix *InvertedIndex) Frequency(term, docID string) uint32 {
	doc, ok := ix.docs.lookup(docID)
	if !ok {
		return 0
	}
	var freq uint32
	ix.terms.read(foldTerm(term), func(postings map[string]uint32, ok bool) {
		if ok {
			freq = postings[doc]
		}
	})
	return freq
}

// Postings returns a copy of term's posting list sorted by document id.
func (ix *InvertedIndex) Postings(term string) PostingList {
	var out PostingList
	ix.terms.read(foldTerm(term), func(postings map[string]uint32, ok bool) {
		if !ok {
			return
		}
		out = make(PostingList, 0, len(postings))
		for doc, freq := range postings {
			out = append(out, Posting{DocID: doc, Frequency: freq})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].DocID < out[j].DocID
	})
	return out
}

// Terms returns the vocabulary in sorted order.
func (ix *InvertedIndex) Terms() []string {
	return ix.terms.sortedKeys()
}

// Snapshot copies the whole index, terms and postings sorted.
func (ix *InvertedIndex) Snapshot() []TermEntry {
	terms := ix.Terms()
	entries := make([]TermEntry, 0, len(terms))
	for _, term := range terms {
		entries = append(entries, TermEntry{Term: term, Postings: ix.Postings(term)})
	}
	return entries
}

func (ix *InvertedIndex) VocabularySize() int {
	return ix.terms.len()
}

func (ix *InvertedIndex) DocumentCount() int {
	return ix.docs.len()
}

// TotalTokenCount is the sum of every frequency in the index.
func (ix *InvertedIndex) TotalTokenCount() uint64 {
	var total uint64
	ix.terms.each(func(_ string, postings map[string]uint32) {
		for _, freq := range postings {
			total += uint64(freq)
		}
	})
	return total
}

// PostingCount is the number of (term, document) pairs.
func (ix *InvertedIndex) PostingCount() int {
	total := 0
	ix.terms.each(func(_ string, postings map[string]uint32) {
		total += len(postings)
	})
	return total
}
