package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
)

// WriteInvertedJSON writes {"term": {"doc": freq}}.
func WriteInvertedJSON(w io.Writer, ix *index.InvertedIndex) error {
	out := make(map[string]map[string]uint32, ix.VocabularySize())
	for _, entry := range ix.Snapshot() {
		docs := make(map[string]uint32, len(entry.Postings))
		for _, p := range entry.Postings {
			docs[p.DocID] = p.Frequency
		}
		out[entry.Term] = docs
	}
	return encodeJSON(w, out)
}

func ReadInvertedJSON(r io.Reader, logger *slog.Logger) (*index.InvertedIndex, error) {
	logger = orDefault(logger)
	var in map[string]map[string]uint32
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decoding inverted index json: %w", err)
	}
	ix := index.NewInvertedIndex()
	for term, docs := range in {
		if strings.TrimSpace(term) == "" {
			logger.Warn("skipping blank term")
			continue
		}
		for doc, freq := range docs {
			if freq == 0 || strings.TrimSpace(doc) == "" {
				logger.Warn("skipping invalid posting", "term", term, "doc", doc, "freq", freq)
				continue
			}
			ix.AddCount(term, doc, freq)
		}
	}
	return ix, nil
}

// WriteMatrixJSON writes {"term": ["doc", ...]} with sorted document ids.
func WriteMatrixJSON(w io.Writer, m *index.TermDocumentMatrix) error {
	out := make(map[string][]string, m.VocabularySize())
	for _, entry := range m.Snapshot() {
		out[entry.Term] = entry.Docs
	}
	return encodeJSON(w, out)
}

func ReadMatrixJSON(r io.Reader, logger *slog.Logger) (*index.TermDocumentMatrix, error) {
	logger = orDefault(logger)
	var in map[string][]string
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decoding term-document matrix json: %w", err)
	}
	m := index.NewTermDocumentMatrix()
	for term, docs := range in {
		for _, doc := range docs {
			if err := m.Add(term, doc); err != nil {
				logger.Warn("skipping matrix entry", "term", term, "error", err)
			}
		}
	}
	return m, nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
