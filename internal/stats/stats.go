// Package stats summarises a built collection and its posting stores.
package stats

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
)

type InvertedStats struct {
	Tokens     uint64 `json:"tokens"`
	Vocabulary int    `json:"vocabulary"`
	Documents  int    `json:"documents"`
	Postings   int    `json:"postings"`
}

type MatrixStats struct {
	Vocabulary     int   `json:"vocabulary"`
	Documents      int   `json:"documents"`
	NonZeroEntries int64 `json:"nonZeroEntries"`
}

// Report is nil-safe per store: a store that was not built has nil stats.
type Report struct {
	Files           int            `json:"files"`
	CollectionBytes int64          `json:"collectionBytes"`
	Inverted        *InvertedStats `json:"inverted,omitempty"`
	Matrix          *MatrixStats   `json:"matrix,omitempty"`
}

// Collect sizes the files in paths and reads the store counters. Files that
// vanished since the build are logged and counted as zero bytes.
func Collect(paths []string, ix *index.InvertedIndex, m *index.TermDocumentMatrix, logger *slog.Logger) Report {
	if logger == nil {
		logger = slog.Default()
	}
	r := Report{Files: len(paths)}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			logger.Warn("file missing while sizing collection", "path", p, "error", err)
			continue
		}
		r.CollectionBytes += info.Size()
	}
	if ix != nil {
		r.Inverted = &InvertedStats{
			Tokens:     ix.TotalTokenCount(),
			Vocabulary: ix.VocabularySize(),
			Documents:  ix.DocumentCount(),
			Postings:   ix.PostingCount(),
		}
	}
	if m != nil {
		r.Matrix = &MatrixStats{
			Vocabulary:     m.VocabularySize(),
			Documents:      m.DocumentCount(),
			NonZeroEntries: m.NonZeroEntries(),
		}
	}
	return r
}

func (r Report) CollectionMB() float64 {
	return float64(r.CollectionBytes) / (1024 * 1024)
}

// Empty reports whether no store gained any term.
func (r Report) Empty() bool {
	return (r.Inverted == nil || r.Inverted.Vocabulary == 0) &&
		(r.Matrix == nil || r.Matrix.Vocabulary == 0)
}

func (r Report) Log(logger *slog.Logger) {
	attrs := []any{
		"files", r.Files,
		"collection_mb", fmt.Sprintf("%.2f", r.CollectionMB()),
	}
	if r.Inverted != nil {
		attrs = append(attrs, slog.Group("inverted",
			"tokens", r.Inverted.Tokens,
			"vocabulary", r.Inverted.Vocabulary,
			"documents", r.Inverted.Documents,
			"postings", r.Inverted.Postings,
		))
	}
	if r.Matrix != nil {
		attrs = append(attrs, slog.Group("matrix",
			"vocabulary", r.Matrix.Vocabulary,
			"documents", r.Matrix.Documents,
			"non_zero", r.Matrix.NonZeroEntries,
		))
	}
	logger.Info("collection statistics", attrs...)
}

// Write prints the report for a terminal.
func (r Report) Write(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Collection: %.2f MB in %d files\n", r.CollectionMB(), r.Files)
	ew.printf("\nInverted index:\n")
	if r.Inverted != nil {
		ew.printf("  tokens:     %d\n", r.Inverted.Tokens)
		ew.printf("  vocabulary: %d\n", r.Inverted.Vocabulary)
		ew.printf("  documents:  %d\n", r.Inverted.Documents)
		ew.printf("  postings:   %d\n", r.Inverted.Postings)
	} else {
		ew.printf("  not built\n")
	}
	ew.printf("\nTerm-document matrix:\n")
	if r.Matrix != nil {
		ew.printf("  vocabulary: %d\n", r.Matrix.Vocabulary)
		ew.printf("  documents:  %d\n", r.Matrix.Documents)
		ew.printf("  non-zero:   %d\n", r.Matrix.NonZeroEntries)
	} else {
		ew.printf("  not built\n")
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, args...)
	}
}
