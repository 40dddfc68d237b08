package reader

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

// TxtReader segments plain text into UAX #29 words and keeps the segments
// that contain at least one letter.
type TxtReader struct{}

func (TxtReader) CanRead(path string) bool {
	return hasExt(path, ".txt")
}

func (TxtReader) ReadWords(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if len(line) > 0 {
				toks := words.FromString(line)
				for toks.Next() {
					w := toks.Value()
					if !containsLetter(w) {
						continue
					}
					if !yield(w, nil) {
						return
					}
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("reading text: %w", err))
				return
			}
		}
	}
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
