// Package serialize reads and writes the posting stores. Both stores have a
// line-oriented text format and a JSON format; the inverted index also has a
// binary segment format with a checksum.
package serialize

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
)

// WriteInvertedText writes one "[term]" line per term followed by a
// "doc=freq" line per posting, all sorted.
func WriteInvertedText(w io.Writer, ix *index.InvertedIndex) error {
	bw := bufio.NewWriter(w)
	for _, entry := range ix.Snapshot() {
		fmt.Fprintf(bw, "[%s]\n", entry.Term)
		for _, p := range entry.Postings {
			fmt.Fprintf(bw, "%s=%d\n", p.DocID, p.Frequency)
		}
	}
	return bw.Flush()
}

// ReadInvertedText parses the format written by WriteInvertedText. Malformed
// lines are logged and skipped.
func ReadInvertedText(r io.Reader, logger *slog.Logger) (*index.InvertedIndex, error) {
	logger = orDefault(logger)
	ix := index.NewInvertedIndex()
	err := scanSections(r, logger, func(term, line string, lineNo int) {
		eq := strings.LastIndexByte(line, '=')
		if eq <= 0 {
			logger.Warn("malformed posting line", "line", lineNo, "term", term, "text", line)
			return
		}
		doc := line[:eq]
		freq, err := strconv.ParseUint(line[eq+1:], 10, 32)
		if err != nil || freq == 0 || strings.TrimSpace(doc) == "" {
			logger.Warn("invalid frequency", "line", lineNo, "term", term, "text", line)
			return
		}
		ix.AddCount(term, doc, uint32(freq))
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// WriteMatrixText writes one "[term]" line per term followed by one line per
// document id, all sorted.
func WriteMatrixText(w io.Writer, m *index.TermDocumentMatrix) error {
	bw := bufio.NewWriter(w)
	for _, entry := range m.Snapshot() {
		fmt.Fprintf(bw, "[%s]\n", entry.Term)
		for _, doc := range entry.Docs {
			bw.WriteString(doc)
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

func ReadMatrixText(r io.Reader, logger *slog.Logger) (*index.TermDocumentMatrix, error) {
	logger = orDefault(logger)
	m := index.NewTermDocumentMatrix()
	err := scanSections(r, logger, func(term, line string, lineNo int) {
		if err := m.Add(term, strings.TrimSpace(line)); err != nil {
			logger.Warn("skipping matrix entry", "line", lineNo, "term", term, "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// scanSections calls entry for every non-blank line below a "[term]" header.
func scanSections(r io.Reader, logger *slog.Logger, entry func(term, line string, lineNo int)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	term := ""
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			term = line[1 : len(line)-1]
			if strings.TrimSpace(term) == "" {
				logger.Warn("empty term header", "line", lineNo)
			}
			continue
		}
		if strings.TrimSpace(term) == "" {
			logger.Warn("entry before any term header", "line", lineNo, "text", line)
			continue
		}
		entry(term, line, lineNo)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scanning index text: %w", err)
	}
	return nil
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default().With("component", "serialize")
	}
	return logger
}
