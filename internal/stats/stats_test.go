package stats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/logger"
)

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, bytes.Repeat([]byte("x"), 1024), 0o644))
	gone := filepath.Join(dir, "gone.txt")

	ix := index.NewInvertedIndex()
	ix.Add("cat", "a.txt")
	ix.Add("cat", "a.txt")
	ix.Add("dog", "b.txt")
	m := index.NewTermDocumentMatrix()
	require.NoError(t, m.Add("cat", "a.txt"))

	r := Collect([]string{a, gone}, ix, m, logger.Discard())
	assert.Equal(t, 2, r.Files)
	assert.Equal(t, int64(1024), r.CollectionBytes)
	assert.Equal(t, &InvertedStats{Tokens: 3, Vocabulary: 2, Documents: 2, Postings: 2}, r.Inverted)
	assert.Equal(t, &MatrixStats{Vocabulary: 1, Documents: 1, NonZeroEntries: 1}, r.Matrix)
	assert.False(t, r.Empty())

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	out := buf.String()
	assert.Contains(t, out, "in 2 files")
	assert.Contains(t, out, "postings:   2")
	assert.Contains(t, out, "non-zero:   1")
}

func TestEmptyAndMissingStores(t *testing.T) {
	r := Collect(nil, index.NewInvertedIndex(), nil, logger.Discard())
	assert.True(t, r.Empty())
	assert.Nil(t, r.Matrix)

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.Equal(t, 1, strings.Count(buf.String(), "not built"))
}
