package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/serialize"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/logger"
)

func writeTexts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestCollectFiles(t *testing.T) {
	dir := writeTexts(t, map[string]string{
		"big.txt":   strings.Repeat("a ", 1024),
		"small.txt": "tiny",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deep.txt"), []byte(strings.Repeat("b ", 1024)), 0o644))

	c, err := CollectFiles(dir, 1, 10, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "big.txt")}, c.Paths)
	assert.Equal(t, int64(2048), c.TotalBytes)

	c, err = CollectFiles(dir, 0, 0, logger.Discard())
	require.NoError(t, err)
	assert.Len(t, c.Paths, 2)
}

func TestCollectFilesMissingDir(t *testing.T) {
	_, err := CollectFiles(filepath.Join(t.TempDir(), "nope"), 0, 0, logger.Discard())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type recordingPublisher struct {
	events []kafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e kafka.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func buildConfig(texts, out string) config.BuildConfig {
	return config.BuildConfig{
		TextsDir:      texts,
		OutputDir:     out,
		CSVTextColumn: 1,
		Parallelism:   2,
		Formats:       []string{"text", "json", "segment"},
	}
}

func TestRun(t *testing.T) {
	texts := writeTexts(t, map[string]string{
		"d1.txt": "cat dog",
		"d2.txt": "dog bird",
		"x.bin":  "ignored",
	})
	out := filepath.Join(t.TempDir(), "out")
	pub := &recordingPublisher{}
	var printed bytes.Buffer

	res, err := Run(context.Background(), buildConfig(texts, out), Deps{
		Publisher: pub,
		Out:       &printed,
		Logger:    logger.Discard(),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Build.Report.FilesIndexed)
	assert.Equal(t, 1, res.Build.Report.FilesSkipped)
	assert.Equal(t, 3, res.Stats.Files)
	assert.Len(t, res.Written, 5)
	assert.Contains(t, printed.String(), "vocabulary: 3")

	names := make([]string, 0, len(res.Trace.Children()))
	for _, c := range res.Trace.Children() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"collect", "build", "statistics", "serialize", "publish"}, names)

	loaded, err := serialize.LoadInverted(out, serialize.FormatJSON, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"d1.txt", "d2.txt"}, loaded.DocumentsForTerm("dog").Sorted())

	require.Len(t, pub.events, 1)
	assert.Equal(t, out, pub.events[0].Key)
	raw, err := json.Marshal(pub.events[0].Value)
	require.NoError(t, err)
	var ev IndexCompleteEvent
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, 2, ev.FilesIndexed)
	assert.Equal(t, 3, ev.Vocabulary)
	assert.Equal(t, 2, ev.Documents)
}

func TestRunPublishFailureIsNotFatal(t *testing.T) {
	texts := writeTexts(t, map[string]string{"d1.txt": "cat"})
	pub := &recordingPublisher{err: errors.New("broker down")}

	_, err := Run(context.Background(), buildConfig(texts, t.TempDir()), Deps{
		Publisher: pub,
		Logger:    logger.Discard(),
	})
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}

func TestRunEmptyCollection(t *testing.T) {
	out := t.TempDir()
	res, err := Run(context.Background(), buildConfig(t.TempDir(), out), Deps{Logger: logger.Discard()})
	require.NoError(t, err)
	assert.True(t, res.Stats.Empty())
	_, err = os.Stat(filepath.Join(out, serialize.InvertedJSONFile))
	assert.NoError(t, err)
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	cfg := buildConfig(t.TempDir(), t.TempDir())
	cfg.Formats = []string{"xml"}
	_, err := Run(context.Background(), cfg, Deps{Logger: logger.Discard()})
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

func TestRunCancelled(t *testing.T) {
	texts := writeTexts(t, map[string]string{"d1.txt": "cat"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, buildConfig(texts, t.TempDir()), Deps{Logger: logger.Discard()})
	assert.ErrorIs(t, err, apperrors.ErrCancelled)
}

func newTestREPL() *REPL {
	ix := index.NewInvertedIndex()
	m := index.NewTermDocumentMatrix()
	for _, p := range [][2]string{{"cat", "b.txt"}, {"cat", "A.txt"}, {"dog", "b.txt"}} {
		ix.Add(p[0], p[1])
		_ = m.Add(p[0], p[1])
	}
	return NewREPL(query.NewParser(textproc.BasicNormalizer{}),
		Store{Name: "inverted index", Accessor: ix},
		Store{Name: "term-document matrix", Accessor: m},
	)
}

func TestREPL(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("cat\ncat AND NOT dog\na AND\nEXIT\ndog\n")

	require.NoError(t, newTestREPL().Run(context.Background(), in, &out))
	s := out.String()

	assert.Contains(t, s, "Parsed: TERM(cat)")
	assert.Contains(t, s, "[inverted index] 2 document(s)")
	assert.Contains(t, s, "[term-document matrix] 2 document(s)")
	assert.Less(t, strings.Index(s, "  A.txt"), strings.Index(s, "  b.txt"))
	assert.Contains(t, s, "Parsed: (TERM(cat) AND NOT(TERM(dog)))")
	assert.Contains(t, s, "[inverted index] 1 document(s)")
	assert.Contains(t, s, "Parse error: syntax error")
	assert.NotContains(t, s, "Parsed: TERM(dog)")
}

func TestREPLReportsUnbuiltStore(t *testing.T) {
	ix := index.NewInvertedIndex()
	ix.Add("cat", "a.txt")
	var unbuilt *index.TermDocumentMatrix
	repl := NewREPL(query.NewParser(textproc.BasicNormalizer{}),
		Store{Name: "inverted index", Accessor: ix},
		Store{Name: "term-document matrix", Accessor: unbuilt},
	)

	var out bytes.Buffer
	require.NoError(t, repl.Run(context.Background(), strings.NewReader("cat\n"), &out))
	assert.Contains(t, out.String(), "[inverted index] 1 document(s)")
	assert.Contains(t, out.String(), "[term-document matrix] error: ")
}

func TestREPLStopsOnBlankLineAndEOF(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newTestREPL().Run(context.Background(), strings.NewReader("\ncat\n"), &out))
	assert.NotContains(t, out.String(), "Parsed:")

	out.Reset()
	require.NoError(t, newTestREPL().Run(context.Background(), strings.NewReader("cat"), &out))
	assert.Contains(t, out.String(), "Parsed: TERM(cat)")
}

func TestREPLCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestREPL().Run(ctx, strings.NewReader("cat\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
