package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/builder"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/reader"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/serialize"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/tracing"
)

// Publisher receives the index-complete notification. *kafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// IndexCompleteEvent is published once the stores are on disk.
type IndexCompleteEvent struct {
	OutputDir    string    `json:"outputDir"`
	Files        []string  `json:"files"`
	FilesIndexed int       `json:"filesIndexed"`
	FilesFailed  int       `json:"filesFailed"`
	Documents    int       `json:"documents"`
	Vocabulary   int       `json:"vocabulary"`
	DurationMs   int64     `json:"durationMs"`
	CompletedAt  time.Time `json:"completedAt"`
}

type Deps struct {
	// Builder defaults to the standard readers and BasicNormalizer.
	Builder *builder.Builder
	// Publisher is optional.
	Publisher Publisher
	// Out receives the printed statistics report; nil skips printing.
	Out    io.Writer
	Logger *slog.Logger
}

type Outcome struct {
	Build   *builder.Result
	Stats   stats.Report
	Written []string
	Trace   *tracing.Span
}

// Run executes collect, build, statistics and serialize in order, then
// publishes the completion event when a publisher is set. A failed publish
// is logged and does not fail the run.
func Run(ctx context.Context, cfg config.BuildConfig, deps Deps) (*Outcome, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "workflow")
	}
	b := deps.Builder
	if b == nil {
		b = builder.New(reader.DefaultResolver(cfg.CSVTextColumn), textproc.BasicNormalizer{},
			builder.WithLogger(logger))
	}
	formats, err := serialize.ParseFormats(cfg.Formats)
	if err != nil {
		return nil, err
	}

	ctx, root := tracing.Start(ctx, "index-workflow")
	defer func() {
		root.End()
		root.Log(logger)
	}()
	out := &Outcome{Trace: root}

	_, span := tracing.Start(ctx, "collect")
	coll, err := CollectFiles(cfg.TextsDir, cfg.MinFileSizeKB, cfg.MinFileCount, logger)
	span.SetAttr("files", len(coll.Paths))
	span.End()
	if err != nil {
		return nil, err
	}

	buildCtx, span := tracing.Start(ctx, "build")
	res, err := b.Build(buildCtx, coll.Paths, builder.Options{Parallelism: cfg.EffectiveParallelism()})
	span.End()
	if err != nil {
		return nil, err
	}
	out.Build = res
	span.SetAttr("indexed", res.Report.FilesIndexed)
	span.SetAttr("failed", res.Report.FilesFailed)

	_, span = tracing.Start(ctx, "statistics")
	out.Stats = stats.Collect(coll.Paths, res.Inverted, res.Matrix, logger)
	out.Stats.Log(logger)
	if deps.Out != nil {
		if err := out.Stats.Write(deps.Out); err != nil {
			logger.Warn("printing statistics failed", "error", err)
		}
	}
	span.End()
	if out.Stats.Empty() {
		logger.Warn("no terms were indexed; check the texts directory and minimum file size")
	}

	_, span = tracing.Start(ctx, "serialize")
	out.Written, err = serialize.SaveAll(cfg.OutputDir, res.Inverted, res.Matrix, formats, logger)
	span.SetAttr("files", len(out.Written))
	span.End()
	if err != nil {
		return nil, fmt.Errorf("saving indexes: %w", err)
	}

	if deps.Publisher != nil {
		pubCtx, span := tracing.Start(ctx, "publish")
		event := kafka.Event{Key: cfg.OutputDir, Value: newIndexCompleteEvent(cfg.OutputDir, out)}
		if err := deps.Publisher.Publish(pubCtx, event); err != nil {
			logger.Error("index-complete notification failed", "error", err)
		}
		span.End()
	}
	return out, nil
}

func newIndexCompleteEvent(dir string, out *Outcome) IndexCompleteEvent {
	ev := IndexCompleteEvent{
		OutputDir:    dir,
		Files:        out.Written,
		FilesIndexed: out.Build.Report.FilesIndexed,
		FilesFailed:  out.Build.Report.FilesFailed,
		DurationMs:   out.Build.Report.Duration.Milliseconds(),
		CompletedAt:  time.Now().UTC(),
	}
	if inv := out.Stats.Inverted; inv != nil {
		ev.Documents = inv.Documents
		ev.Vocabulary = inv.Vocabulary
	}
	return ev
}
