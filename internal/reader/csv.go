package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
)

// CSVReader reads the words of one column of every record.
type CSVReader struct {
	// TextColumn is the 0-based column holding the document text. Records
	// with fewer columns are skipped.
	TextColumn int
}

func (CSVReader) CanRead(path string) bool {
	return hasExt(path, ".csv")
}

func (c CSVReader) ReadWords(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if c.TextColumn < 0 {
			yield("", fmt.Errorf("csv text column must not be negative, got %d", c.TextColumn))
			return
		}
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true
		cr.ReuseRecord = true
		for {
			record, err := cr.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("reading csv record: %w", err))
				return
			}
			if len(record) <= c.TextColumn {
				continue
			}
			if !yieldLetterRuns(record[c.TextColumn], yield) {
				return
			}
		}
	}
}
