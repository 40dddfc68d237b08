// Package reader extracts raw words from documents of the supported formats.
// Readers do not normalize; they hand back words exactly as they appear.
package reader

import (
	"io"
	"iter"
	"path/filepath"
	"regexp"
	"strings"
)

// Reader produces the words of one document format.
//
// ReadWords is lazy and single pass: the sequence pulls from r as it is
// ranged over and cannot be restarted. A non-nil error is yielded at most
// once and ends the sequence.
type Reader interface {
	CanRead(path string) bool
	ReadWords(r io.Reader) iter.Seq2[string, error]
}

// Resolver picks a Reader for a path by asking each registered reader in
// order.
type Resolver struct {
	readers []Reader
}

func NewResolver(readers ...Reader) *Resolver {
	return &Resolver{readers: readers}
}

// DefaultResolver knows plain text, CSV (text in csvColumn), FB2 and HTML.
func DefaultResolver(csvColumn int) *Resolver {
	return NewResolver(
		TxtReader{},
		CSVReader{TextColumn: csvColumn},
		FB2Reader{},
		HTMLReader{},
	)
}

// Resolve returns nil when no reader handles path.
func (r *Resolver) Resolve(path string) Reader {
	for _, rd := range r.readers {
		if rd.CanRead(path) {
			return rd
		}
	}
	return nil
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{M}]+`)

// yieldLetterRuns yields every maximal run of letters and marks in text and
// reports whether the consumer wants more.
func yieldLetterRuns(text string, yield func(string, error) bool) bool {
	for _, w := range wordPattern.FindAllString(text, -1) {
		if !yield(w, nil) {
			return false
		}
	}
	return true
}

func hasExt(path string, exts ...string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
