// Package builder populates the posting stores from a list of files using a
// bounded pool of workers.
package builder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/reader"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/textproc"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/metrics"
)

// ReaderResolver finds the reader for a file, or nil when the format is not
// supported.
type ReaderResolver interface {
	Resolve(path string) reader.Reader
}

// Target selects which stores a build fills.
type Target uint8

const (
	TargetInverted Target = 1 << iota
	TargetMatrix

	TargetAll = TargetInverted | TargetMatrix
)

type Options struct {
	// Parallelism caps the number of files indexed at once. 1 processes
	// files one after another in input order; 0 or less uses every CPU.
	Parallelism int
	// Targets defaults to TargetAll.
	Targets Target
}

// Result holds the stores a build filled. A store not requested in
// Options.Targets is nil.
type Result struct {
	Inverted *index.InvertedIndex
	Matrix   *index.TermDocumentMatrix
	Report   Report
}

type Builder struct {
	resolver   ReaderResolver
	normalizer textproc.Normalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Builder)

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

func New(resolver ReaderResolver, normalizer textproc.Normalizer, opts ...Option) *Builder {
	b := &Builder{
		resolver:   resolver,
		normalizer: normalizer,
		logger:     slog.Default().With("component", "builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type fileOutcome int

const (
	outcomeIndexed fileOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// Build indexes paths into the stores selected by opts.Targets. A file that
// fails is recorded in the report and does not stop the build. When ctx ends
// Build returns a nil result and an error matching both
// apperrors.ErrCancelled and the context error.
func (b *Builder) Build(ctx context.Context, paths []string, opts Options) (*Result, error) {
	targets := opts.Targets
	if targets == 0 {
		targets = TargetAll
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	res := &Result{Report: Report{FilesTotal: len(paths)}}
	if targets&TargetInverted != 0 {
		res.Inverted = index.NewInvertedIndex()
	}
	if targets&TargetMatrix != 0 {
		res.Matrix = index.NewTermDocumentMatrix()
	}

	start := time.Now()
	b.logger.Info("build started", "files", len(paths), "parallelism", parallelism)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, tokens, err := b.indexFile(gctx, path, res)
			if isContextErr(err) {
				return err
			}

			mu.Lock()
			res.Report.Tokens += tokens
			switch outcome {
			case outcomeIndexed:
				res.Report.FilesIndexed++
			case outcomeSkipped:
				res.Report.FilesSkipped++
			case outcomeFailed:
				res.Report.FilesFailed++
				res.Report.Failures = append(res.Report.Failures, FileFailure{Path: path, Err: err})
			}
			mu.Unlock()
			b.metrics.TokensAdded(int(tokens))
			return nil
		})
	}
	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		b.logger.Warn("build cancelled", "error", err)
		return nil, apperrors.Cancelled(err)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("building index: %w", waitErr)
	}

	res.Report.Duration = time.Since(start)
	res.Report.sortFailures()
	b.metrics.BuildFinished(res.Report.Duration.Seconds())
	b.logger.Info("build finished",
		"indexed", res.Report.FilesIndexed,
		"skipped", res.Report.FilesSkipped,
		"failed", res.Report.FilesFailed,
		"tokens", res.Report.Tokens,
		"duration", res.Report.Duration,
	)
	return res, nil
}

// BuildInverted is Build restricted to the inverted index.
func (b *Builder) BuildInverted(ctx context.Context, paths []string, parallelism int) (*index.InvertedIndex, Report, error) {
	res, err := b.Build(ctx, paths, Options{Parallelism: parallelism, Targets: TargetInverted})
	if err != nil {
		return nil, Report{}, err
	}
	return res.Inverted, res.Report, nil
}

func (b *Builder) indexFile(ctx context.Context, path string, res *Result) (fileOutcome, int64, error) {
	rd := b.resolver.Resolve(path)
	if rd == nil {
		b.logger.Debug("skipping unsupported file", "path", path)
		b.metrics.FileSkipped()
		return outcomeSkipped, 0, nil
	}

	tokens, err := b.readFile(ctx, path, rd, res)
	if err != nil {
		if isContextErr(err) {
			return outcomeFailed, tokens, err
		}
		b.logger.Error("indexing file failed", "path", path, "error", err)
		b.metrics.FileFailed()
		return outcomeFailed, tokens, err
	}
	b.logger.Debug("file indexed", "path", path, "tokens", tokens)
	b.metrics.FileIndexed()
	return outcomeIndexed, tokens, nil
}

func (b *Builder) readFile(ctx context.Context, path string, rd reader.Reader, res *Result) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	docID := filepath.Base(path)
	var tokens int64
	for raw, err := range rd.ReadWords(bufio.NewReader(f)) {
		if cerr := ctx.Err(); cerr != nil {
			return tokens, cerr
		}
		if err != nil {
			return tokens, fmt.Errorf("reading %s: %w", path, err)
		}
		term := b.normalizer.Normalize(raw)
		if strings.TrimSpace(term) == "" {
			continue
		}
		if res.Inverted != nil {
			res.Inverted.Add(term, docID)
		}
		if res.Matrix != nil {
			if err := res.Matrix.Add(term, docID); err != nil {
				return tokens, fmt.Errorf("indexing %s: %w", path, err)
			}
		}
		tokens++
	}
	return tokens, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
