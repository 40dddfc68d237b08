package index

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
)

func TestInvertedIndexAdd(t *testing.T) {
	ix := NewInvertedIndex()
	ix.Add("cat", "d1.txt")
	ix.Add("dog", "d1.txt")
	ix.Add("dog", "d2.txt")
	ix.Add("dog", "d2.txt")

	assert.True(t, ix.DocumentsForTerm("dog").Equal(NewDocSet("d1.txt", "d2.txt")))
	assert.True(t, ix.DocumentsForTerm("cat").Equal(NewDocSet("d1.txt")))
	assert.Equal(t, uint32(2), ix.Frequency("dog", "d2.txt"))
	assert.Equal(t, uint32(0), ix.Frequency("cat", "d2.txt"))
	assert.Equal(t, 2, ix.VocabularySize())
	assert.Equal(t, 2, ix.DocumentCount())
	assert.Equal(t, uint64(4), ix.TotalTokenCount())
	assert.Equal(t, 3, ix.PostingCount())
	assert.Equal(t, []string{"cat", "dog"}, ix.Terms())
}

func TestUnknownTermIsEmptySet(t *testing.T) {
	stores := map[string]Accessor{
		"inverted": NewInvertedIndex(),
		"matrix":   NewTermDocumentMatrix(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			got := store.DocumentsForTerm("missing")
			require.NotNil(t, got)
			assert.Equal(t, 0, got.Len())
		})
	}
}

func TestCaseInsensitiveLookup(t *testing.T) {
	ix := NewInvertedIndex()
	ix.Add("Dog", "Doc.TXT")
	ix.Add("dog", "doc.txt")

	assert.True(t, ix.DocumentsForTerm("DOG").Equal(NewDocSet("Doc.TXT")))
	assert.Equal(t, uint32(2), ix.Frequency("dog", "DOC.txt"))
	assert.Equal(t, 1, ix.DocumentCount())

	m := NewTermDocumentMatrix()
	require.NoError(t, m.Add("Bird", "A.txt"))
	require.NoError(t, m.Add("bird", "a.TXT"))
	assert.True(t, m.DocumentsForTerm("BIRD").Equal(NewDocSet("A.txt")))
}

func TestDocumentRegisteredImmediately(t *testing.T) {
	ix := NewInvertedIndex()
	m := NewTermDocumentMatrix()
	for i := 0; i < 20; i++ {
		doc := fmt.Sprintf("doc-%d", i)
		ix.Add("term", doc)
		require.NoError(t, m.Add("term", doc))
		assert.True(t, ix.AllDocumentIDs().Contains(doc))
		assert.True(t, m.AllDocumentIDs().Contains(doc))
	}
}

func TestMatrixIdempotentAdd(t *testing.T) {
	m := NewTermDocumentMatrix()
	require.NoError(t, m.Add("cat", "d1"))
	first := m.DocumentsForTerm("cat")
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Add("cat", "d1"))
	}
	assert.True(t, first.Equal(m.DocumentsForTerm("cat")))
	assert.Equal(t, int64(1), m.NonZeroEntries())
}

func TestInvertedRepeatedAddCountsExactly(t *testing.T) {
	ix := NewInvertedIndex()
	const n = 37
	for i := 0; i < n; i++ {
		ix.Add("cat", "d1")
	}
	assert.Equal(t, uint32(n), ix.Frequency("cat", "d1"))
}

func TestMatrixRejectsBlankArguments(t *testing.T) {
	m := NewTermDocumentMatrix()
	tests := []struct {
		name, term, doc string
	}{
		{"empty term", "", "d1"},
		{"blank term", "  \t", "d1"},
		{"empty doc", "cat", ""},
		{"blank doc", "cat", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Add(tt.term, tt.doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
		})
	}
	assert.Equal(t, 0, m.VocabularySize())
	assert.Equal(t, 0, m.DocumentCount())
}

func TestReturnedSetsAreOwnedByCaller(t *testing.T) {
	ix := NewInvertedIndex()
	ix.Add("cat", "d1")
	got := ix.DocumentsForTerm("cat")
	got.Add("intruder")
	all := ix.AllDocumentIDs()
	all.Add("intruder")

	assert.False(t, ix.DocumentsForTerm("cat").Contains("intruder"))
	assert.False(t, ix.AllDocumentIDs().Contains("intruder"))
}

func TestConcurrentSamePairNoLostUpdates(t *testing.T) {
	for _, workers := range []int{1, 8, 64} {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			ix := NewInvertedIndex()
			m := NewTermDocumentMatrix()
			const perWorker = 2000
			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						ix.Add("hot", "same.txt")
						ix.Add(fmt.Sprintf("t%d", i%50), "same.txt")
						_ = m.Add("hot", "same.txt")
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, uint32(workers*perWorker), ix.Frequency("hot", "same.txt"))
			assert.Equal(t, uint64(2*workers*perWorker), ix.TotalTokenCount())
			assert.Equal(t, 51, ix.VocabularySize())
			assert.Equal(t, int64(1), m.NonZeroEntries())
		})
	}
}

func TestConcurrentReadersSeeDocumentInUniverse(t *testing.T) {
	ix := NewInvertedIndex()
	var wg sync.WaitGroup
	stop := make(chan struct{})
	violations := make(chan string, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			docs := ix.DocumentsForTerm("shared")
			all := ix.AllDocumentIDs()
			for d := range docs {
				if !all.Contains(d) {
					select {
					case violations <- d:
					default:
					}
				}
			}
		}
	}()
	for i := 0; i < 500; i++ {
		ix.Add("shared", fmt.Sprintf("doc-%d", i))
	}
	close(stop)
	wg.Wait()

	select {
	case d := <-violations:
		t.Fatalf("document %s visible in postings but missing from universe", d)
	default:
	}
}

func TestSnapshotSorted(t *testing.T) {
	ix := NewInvertedIndex()
	ix.Add("b", "d2")
	ix.Add("a", "d2")
	ix.Add("a", "d1")
	ix.AddCount("a", "d1", 4)

	snap := ix.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Term)
	assert.Equal(t, PostingList{{DocID: "d1", Frequency: 5}, {DocID: "d2", Frequency: 1}}, snap[0].Postings)

	m := NewTermDocumentMatrix()
	require.NoError(t, m.Add("z", "d2"))
	require.NoError(t, m.Add("z", "d1"))
	assert.Equal(t, []MatrixEntry{{Term: "z", Docs: []string{"d1", "d2"}}}, m.Snapshot())
}

func TestDocSetAlgebra(t *testing.T) {
	a := NewDocSet("1", "2", "3")
	b := NewDocSet("3", "4")

	assert.True(t, a.Union(b).Equal(NewDocSet("1", "2", "3", "4")))
	assert.True(t, a.Intersect(b).Equal(NewDocSet("3")))
	assert.True(t, a.Difference(b).Equal(NewDocSet("1", "2")))
	// operands untouched
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []string{"a", "B", "c"}, NewDocSet("c", "B", "a").Sorted())
}

func BenchmarkInvertedIndexAddParallel(b *testing.B) {
	ix := NewInvertedIndex()
	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query"}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			ix.Add(terms[i%len(terms)], fmt.Sprintf("doc-%d", i%100))
			i++
		}
	})
}
