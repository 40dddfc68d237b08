package serialize

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
)

// Segment layout, little endian:
//
//	header  64 bytes: magic "BSEG", version, term count, doc count,
//	        created (unix), postings offset+size, dictionary offset+size
//	postings one JSON posting list per term, back to back
//	dict    JSON directory: sorted document ids and dictEntry sorted by term
//	footer  8 bytes: CRC32 (IEEE) of postings+dict, magic again
const (
	segmentMagic   = "BSEG"
	segmentVersion = 2
	headerSize     = 64
	footerSize     = 8
)

type segmentHeader struct {
	Version    uint32
	TermCount  uint32
	DocCount   uint32
	CreatedAt  int64
	PostOffset int64
	PostSize   int64
	DictOffset int64
	DictSize   int64
}

func (h segmentHeader) marshal() []byte {
	b := make([]byte, headerSize)
	copy(b[0:4], segmentMagic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(b[12:16], h.DocCount)
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.PostOffset))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.PostSize))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.DictOffset))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.DictSize))
	return b
}

func unmarshalHeader(b []byte) (segmentHeader, error) {
	if string(b[0:4]) != segmentMagic {
		return segmentHeader{}, fmt.Errorf("%w: bad magic %q", apperrors.ErrCorruptIndex, b[0:4])
	}
	h := segmentHeader{
		Version:    binary.LittleEndian.Uint32(b[4:8]),
		TermCount:  binary.LittleEndian.Uint32(b[8:12]),
		DocCount:   binary.LittleEndian.Uint32(b[12:16]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(b[16:24])),
		PostOffset: int64(binary.LittleEndian.Uint64(b[24:32])),
		PostSize:   int64(binary.LittleEndian.Uint64(b[32:40])),
		DictOffset: int64(binary.LittleEndian.Uint64(b[40:48])),
		DictSize:   int64(binary.LittleEndian.Uint64(b[48:56])),
	}
	if h.Version != segmentVersion {
		return segmentHeader{}, fmt.Errorf("%w: unsupported segment version %d", apperrors.ErrCorruptIndex, h.Version)
	}
	return h, nil
}

type directory struct {
	Docs  []string    `json:"docs"`
	Terms []dictEntry `json:"terms"`
}

type dictEntry struct {
	Term       string `json:"t"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	DocFreq    int    `json:"d"`
}

// WriteSegment encodes ix into the segment layout.
func WriteSegment(w io.Writer, ix *index.InvertedIndex) error {
	entries := ix.Snapshot()
	var postings bytes.Buffer
	dict := make([]dictEntry, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entry.Postings)
		if err != nil {
			return fmt.Errorf("marshaling postings for term %q: %w", entry.Term, err)
		}
		dict = append(dict, dictEntry{
			Term:       entry.Term,
			PostOffset: int64(postings.Len()),
			PostLen:    len(data),
			DocFreq:    len(entry.Postings),
		})
		postings.Write(data)
	}
	dictData, err := json.Marshal(directory{Docs: ix.AllDocumentIDs().Sorted(), Terms: dict})
	if err != nil {
		return fmt.Errorf("marshaling dictionary: %w", err)
	}

	h := segmentHeader{
		Version:    segmentVersion,
		TermCount:  uint32(len(entries)),
		DocCount:   uint32(ix.DocumentCount()),
		CreatedAt:  time.Now().Unix(),
		PostOffset: headerSize,
		PostSize:   int64(postings.Len()),
		DictOffset: headerSize + int64(postings.Len()),
		DictSize:   int64(len(dictData)),
	}
	crc := crc32.NewIEEE()
	crc.Write(postings.Bytes())
	crc.Write(dictData)
	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc.Sum32())
	copy(footer[4:8], segmentMagic)

	for _, part := range [][]byte{h.marshal(), postings.Bytes(), dictData, footer} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("writing segment: %w", err)
		}
	}
	return nil
}

// SegmentReader serves posting lists from a segment file without loading
// the whole index. The checksum is verified on open. It is an index.Accessor
// and safe for concurrent queries until Close.
type SegmentReader struct {
	file   *os.File
	header segmentHeader
	dict   []dictEntry
	docs   []string
	// filter answers most misses without touching the dictionary.
	filter *bloom.BloomFilter
	logger *slog.Logger
}

var _ index.Accessor = (*SegmentReader)(nil)

func OpenSegment(path string) (*SegmentReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	r, err := newSegmentReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening segment %s: %w", filepath.Base(path), err)
	}
	return r, nil
}

func newSegmentReader(f *os.File) (*SegmentReader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size < headerSize+footerSize {
		return nil, fmt.Errorf("%w: file too short (%d bytes)", apperrors.ErrCorruptIndex, size)
	}
	hb := make([]byte, headerSize)
	if _, err := f.ReadAt(hb, 0); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	h, err := unmarshalHeader(hb)
	if err != nil {
		return nil, err
	}
	if h.PostOffset != headerSize || h.PostSize < 0 || h.DictSize < 0 ||
		h.DictOffset != h.PostOffset+h.PostSize ||
		h.DictOffset+h.DictSize+footerSize != size {
		return nil, fmt.Errorf("%w: inconsistent section offsets", apperrors.ErrCorruptIndex)
	}

	body := make([]byte, h.PostSize+h.DictSize)
	if _, err := f.ReadAt(body, h.PostOffset); err != nil {
		return nil, fmt.Errorf("reading segment body: %w", err)
	}
	footer := make([]byte, footerSize)
	if _, err := f.ReadAt(footer, size-footerSize); err != nil {
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	if string(footer[4:8]) != segmentMagic {
		return nil, fmt.Errorf("%w: bad footer magic", apperrors.ErrCorruptIndex)
	}
	if want, got := binary.LittleEndian.Uint32(footer[0:4]), crc32.ChecksumIEEE(body); want != got {
		return nil, fmt.Errorf("%w: checksum mismatch (want %08x, got %08x)", apperrors.ErrCorruptIndex, want, got)
	}

	var dir directory
	if err := json.Unmarshal(body[h.PostSize:], &dir); err != nil {
		return nil, fmt.Errorf("%w: parsing dictionary: %v", apperrors.ErrCorruptIndex, err)
	}
	dict := dir.Terms
	if len(dict) != int(h.TermCount) {
		return nil, fmt.Errorf("%w: dictionary has %d terms, header says %d", apperrors.ErrCorruptIndex, len(dict), h.TermCount)
	}
	if len(dir.Docs) != int(h.DocCount) {
		return nil, fmt.Errorf("%w: directory has %d documents, header says %d", apperrors.ErrCorruptIndex, len(dir.Docs), h.DocCount)
	}
	filter := bloom.NewWithEstimates(uint(max(len(dict), 1)), 0.01)
	for _, e := range dict {
		filter.AddString(e.Term)
	}
	return &SegmentReader{
		file:   f,
		header: h,
		dict:   dict,
		docs:   dir.Docs,
		filter: filter,
		logger: slog.Default().With("component", "segment"),
	}, nil
}

// MayContain is false only when term is certainly absent.
func (r *SegmentReader) MayContain(term string) bool {
	return r.filter.TestString(strings.ToLower(term))
}

// Lookup returns the postings for term, or nil when the segment does not
// contain it.
func (r *SegmentReader) Lookup(term string) (index.PostingList, error) {
	term = strings.ToLower(term)
	if !r.filter.TestString(term) {
		return nil, nil
	}
	i := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= term
	})
	if i >= len(r.dict) || r.dict[i].Term != term {
		return nil, nil
	}
	return r.postings(r.dict[i])
}

// DocumentsForTerm reads the posting list for term from disk. A read
// failure is logged and answered with an empty set.
func (r *SegmentReader) DocumentsForTerm(term string) index.DocSet {
	pl, err := r.Lookup(term)
	if err != nil {
		r.logger.Error("segment lookup failed", "term", term, "error", err)
		return index.NewDocSet()
	}
	set := make(index.DocSet, len(pl))
	for _, p := range pl {
		set.Add(p.DocID)
	}
	return set
}

func (r *SegmentReader) AllDocumentIDs() index.DocSet {
	return index.NewDocSet(r.docs...)
}

func (r *SegmentReader) postings(e dictEntry) (index.PostingList, error) {
	if e.PostOffset < 0 || e.PostLen < 0 || e.PostOffset+int64(e.PostLen) > r.header.PostSize {
		return nil, fmt.Errorf("%w: postings for %q out of range", apperrors.ErrCorruptIndex, e.Term)
	}
	buf := make([]byte, e.PostLen)
	if _, err := r.file.ReadAt(buf, r.header.PostOffset+e.PostOffset); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	var pl index.PostingList
	if err := json.Unmarshal(buf, &pl); err != nil {
		return nil, fmt.Errorf("%w: parsing postings for %q: %v", apperrors.ErrCorruptIndex, e.Term, err)
	}
	return pl, nil
}

// Load materializes the whole segment as an inverted index.
func (r *SegmentReader) Load() (*index.InvertedIndex, error) {
	ix := index.NewInvertedIndex()
	for _, e := range r.dict {
		pl, err := r.postings(e)
		if err != nil {
			return nil, err
		}
		for _, p := range pl {
			ix.AddCount(e.Term, p.DocID, p.Frequency)
		}
	}
	return ix, nil
}

func (r *SegmentReader) TermCount() int {
	return len(r.dict)
}

func (r *SegmentReader) DocCount() uint32 {
	return r.header.DocCount
}

func (r *SegmentReader) CreatedAt() time.Time {
	return time.Unix(r.header.CreatedAt, 0)
}

func (r *SegmentReader) Close() error {
	return r.file.Close()
}
