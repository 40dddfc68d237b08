package reader

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"golang.org/x/net/html"
)

// HTMLReader reads visible text of HTML pages, ignoring script and style
// contents.
type HTMLReader struct{}

func (HTMLReader) CanRead(path string) bool {
	return hasExt(path, ".html", ".htm")
}

func (HTMLReader) ReadWords(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		z := html.NewTokenizer(r)
		skip := 0
		for {
			switch z.Next() {
			case html.ErrorToken:
				if err := z.Err(); !errors.Is(err, io.EOF) {
					yield("", fmt.Errorf("tokenizing html: %w", err))
				}
				return
			case html.StartTagToken:
				if name, _ := z.TagName(); isHiddenTag(name) {
					skip++
				}
			case html.EndTagToken:
				if name, _ := z.TagName(); isHiddenTag(name) && skip > 0 {
					skip--
				}
			case html.TextToken:
				if skip > 0 {
					continue
				}
				if !yieldLetterRuns(string(z.Text()), yield) {
					return
				}
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "noscript":
		return true
	}
	return false
}
