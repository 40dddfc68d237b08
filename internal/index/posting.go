package index

// Posting is one (document, frequency) pair of a term's posting list.
type Posting struct {
	DocID     string `json:"doc"`
	Frequency uint32 `json:"freq"`
}

type PostingList []Posting

// TermEntry is a term with its postings sorted by document id. Snapshots of
// the inverted index are made of these.
type TermEntry struct {
	Term     string
	Postings PostingList
}

// MatrixEntry is a term with the sorted ids of the documents containing it.
type MatrixEntry struct {
	Term string
	Docs []string
}
