package serialize

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
)

type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatSegment Format = "segment"
)

const (
	InvertedJSONFile    = "inverted_index.json"
	InvertedTextFile    = "inverted_index_custom.txt"
	InvertedSegmentFile = "inverted_index.seg"
	MatrixJSONFile      = "term_document_matrix.json"
	MatrixTextFile      = "term_document_matrix_custom.txt"
)

// ParseFormats maps configuration names to formats, rejecting unknown ones
// with apperrors.ErrUnsupportedFormat.
func ParseFormats(names []string) ([]Format, error) {
	formats := make([]Format, 0, len(names))
	seen := make(map[Format]bool)
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case FormatText, FormatJSON, FormatSegment:
		default:
			return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, name)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// SaveAll writes each store in each requested format under dir and returns
// the paths written. A nil store is skipped; the matrix has no segment form.
func SaveAll(dir string, ix *index.InvertedIndex, m *index.TermDocumentMatrix, formats []Format, logger *slog.Logger) ([]string, error) {
	logger = orDefault(logger)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	var written []string
	save := func(name string, write func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		if err := writeFileAtomic(path, write, logger); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	for _, f := range formats {
		var err error
		switch f {
		case FormatText:
			if ix != nil {
				err = save(InvertedTextFile, func(w io.Writer) error { return WriteInvertedText(w, ix) })
			}
			if err == nil && m != nil {
				err = save(MatrixTextFile, func(w io.Writer) error { return WriteMatrixText(w, m) })
			}
		case FormatJSON:
			if ix != nil {
				err = save(InvertedJSONFile, func(w io.Writer) error { return WriteInvertedJSON(w, ix) })
			}
			if err == nil && m != nil {
				err = save(MatrixJSONFile, func(w io.Writer) error { return WriteMatrixJSON(w, m) })
			}
		case FormatSegment:
			if ix != nil {
				err = save(InvertedSegmentFile, func(w io.Writer) error { return WriteSegment(w, ix) })
			}
		default:
			err = fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, f)
		}
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// LoadInverted reads the inverted index saved in dir in format f.
func LoadInverted(dir string, f Format, logger *slog.Logger) (*index.InvertedIndex, error) {
	switch f {
	case FormatSegment:
		r, err := OpenSegment(filepath.Join(dir, InvertedSegmentFile))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return r.Load()
	case FormatJSON:
		return readFile(filepath.Join(dir, InvertedJSONFile), func(r io.Reader) (*index.InvertedIndex, error) {
			return ReadInvertedJSON(r, logger)
		})
	case FormatText:
		return readFile(filepath.Join(dir, InvertedTextFile), func(r io.Reader) (*index.InvertedIndex, error) {
			return ReadInvertedText(r, logger)
		})
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, f)
}

// LoadMatrix reads the term-document matrix saved in dir in format f.
func LoadMatrix(dir string, f Format, logger *slog.Logger) (*index.TermDocumentMatrix, error) {
	switch f {
	case FormatJSON:
		return readFile(filepath.Join(dir, MatrixJSONFile), func(r io.Reader) (*index.TermDocumentMatrix, error) {
			return ReadMatrixJSON(r, logger)
		})
	case FormatText:
		return readFile(filepath.Join(dir, MatrixTextFile), func(r io.Reader) (*index.TermDocumentMatrix, error) {
			return ReadMatrixText(r, logger)
		})
	}
	return nil, fmt.Errorf("%w: %q for term-document matrix", apperrors.ErrUnsupportedFormat, f)
}

func readFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	v, err := decode(f)
	if err != nil {
		return zero, fmt.Errorf("reading %s: %w", path, err)
	}
	return v, nil
}

// writeFileAtomic writes to path+".tmp" and renames it into place once the
// data is synced.
func writeFileAtomic(path string, write func(io.Writer) error, logger *slog.Logger) error {
	start := time.Now()
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	logger.Info("index file written", "path", path, "bytes", size, "duration", time.Since(start))
	return nil
}
