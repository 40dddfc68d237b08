package reader

import (
	"encoding/xml"
	"fmt"
	"io"
	"iter"

	"golang.org/x/net/html/charset"
)

// FB2Reader reads FictionBook 2 documents. Text inside <binary> elements is
// embedded base64 image data and is skipped.
type FB2Reader struct{}

func (FB2Reader) CanRead(path string) bool {
	return hasExt(path, ".fb2")
}

func (FB2Reader) ReadWords(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dec := xml.NewDecoder(r)
		dec.Strict = false
		dec.CharsetReader = charset.NewReaderLabel
		binaryDepth := 0
		for {
			tok, err := dec.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("decoding fb2: %w", err))
				return
			}
			switch t := tok.(type) {
			case xml.StartElement:
				if t.Name.Local == "binary" {
					binaryDepth++
				}
			case xml.EndElement:
				if t.Name.Local == "binary" && binaryDepth > 0 {
					binaryDepth--
				}
			case xml.CharData:
				if binaryDepth > 0 {
					continue
				}
				if !yieldLetterRuns(string(t), yield) {
					return
				}
			}
		}
	}
}
