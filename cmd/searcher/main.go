package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/builder"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/query"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/reader"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/search"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/search/cache"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/search/handler"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/serialize"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/internal/workflow"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/redis"
)

type stores struct {
	inverted *index.InvertedIndex
	matrix   *index.TermDocumentMatrix
	// segment is set when the load directory holds a segment file.
	segment *serialize.SegmentReader
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	loadDir := flag.String("load", "", "load JSON indexes (and the segment, if present) from this directory instead of building")
	serveHTTP := flag.Bool("http", false, "serve the HTTP API instead of the interactive prompt")
	watch := flag.Bool("watch", false, "with -http and -load, reload the indexes when their files change")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if *serveHTTP || cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	st, err := openStores(ctx, cfg, *loadDir, m)
	if err != nil {
		slog.Error("failed to prepare indexes", "error", err)
		stop()
		os.Exit(1)
	}
	defer st.close()
	slog.Info("indexes ready",
		"documents", st.inverted.DocumentCount(),
		"vocabulary", st.inverted.VocabularySize(),
	)

	parser := query.NewParser(textproc.BasicNormalizer{})
	if !*serveHTTP {
		prompts := []workflow.Store{
			{Name: "inverted index", Accessor: st.inverted},
			{Name: "term-document matrix", Accessor: st.matrix},
		}
		if st.segment != nil {
			prompts = append(prompts, workflow.Store{Name: "segment", Accessor: st.segment})
		}
		repl := workflow.NewREPL(parser, prompts...)
		if err := repl.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("prompt error", "error", err)
		}
		return
	}

	watchDir := ""
	if *watch {
		if *loadDir == "" {
			slog.Warn("-watch needs -load; index files will not be watched")
		}
		watchDir = *loadDir
	}
	if err := serve(ctx, cfg, parser, st, m, watchDir); err != nil {
		slog.Error("server error", "error", err)
		stop()
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

// openStores loads both stores from dir, or builds them from the texts
// directory when dir is empty.
func openStores(ctx context.Context, cfg *config.Config, dir string, m *metrics.Metrics) (*stores, error) {
	if dir != "" {
		return loadStores(dir)
	}

	coll, err := workflow.CollectFiles(cfg.Build.TextsDir, cfg.Build.MinFileSizeKB, cfg.Build.MinFileCount, nil)
	if err != nil {
		return nil, err
	}
	b := builder.New(reader.DefaultResolver(cfg.Build.CSVTextColumn), textproc.BasicNormalizer{}, builder.WithMetrics(m))
	res, err := b.Build(ctx, coll.Paths, builder.Options{Parallelism: cfg.Build.EffectiveParallelism()})
	if err != nil {
		return nil, err
	}
	return &stores{inverted: res.Inverted, matrix: res.Matrix}, nil
}

func loadStores(dir string) (*stores, error) {
	inv, err := serialize.LoadInverted(dir, serialize.FormatJSON, nil)
	if err != nil {
		return nil, err
	}
	mat, err := serialize.LoadMatrix(dir, serialize.FormatJSON, nil)
	if err != nil {
		return nil, err
	}
	st := &stores{inverted: inv, matrix: mat}
	segPath := filepath.Join(dir, serialize.InvertedSegmentFile)
	if _, err := os.Stat(segPath); err == nil {
		seg, err := serialize.OpenSegment(segPath)
		if err != nil {
			return nil, err
		}
		st.segment = seg
	}
	slog.Info("indexes loaded", "dir", dir, "documents", inv.DocumentCount(), "segment", st.segment != nil)
	return st, nil
}

func (st *stores) accessors() map[string]index.Accessor {
	acc := map[string]index.Accessor{"inverted": st.inverted, "matrix": st.matrix}
	if st.segment != nil {
		acc["segment"] = st.segment
	}
	return acc
}

func (st *stores) close() {
	if st.segment == nil {
		return
	}
	if err := st.segment.Close(); err != nil {
		slog.Warn("closing segment failed", "error", err)
	}
}

func serve(ctx context.Context, cfg *config.Config, parser *query.Parser, st *stores, m *metrics.Metrics, watchDir string) error {
	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			redisClient = client
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			// Cached results may belong to a previous build of the indexes.
			if err := queryCache.Invalidate(ctx); err != nil {
				slog.Warn("clearing stale cache entries failed", "error", err)
			}
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	searcher := search.NewSearcher(parser, st.accessors(),
		search.WithCache(queryCache),
		search.WithMetrics(m),
		search.WithMaxResults(cfg.Search.MaxResults),
	)
	var current atomic.Pointer[stores]
	current.Store(st)
	defer func() {
		if last := current.Load(); last != st {
			last.close()
		}
	}()
	if watchDir != "" {
		go func() {
			names := []string{serialize.InvertedJSONFile, serialize.MatrixJSONFile, serialize.InvertedSegmentFile}
			err := workflow.Watch(ctx, watchDir, names, 500*time.Millisecond, func() error {
				fresh, err := loadStores(watchDir)
				if err != nil {
					return err
				}
				prev := current.Swap(fresh)
				searcher.Swap(fresh.accessors())
				// Queries on the old segment are bounded by the write timeout.
				if prev != st {
					time.AfterFunc(cfg.Server.WriteTimeout, prev.close)
				}
				return nil
			}, nil)
			if err != nil {
				slog.Error("index watcher stopped", "error", err)
			}
		}()
	}

	checker := health.NewChecker()
	checker.Register("indexes", func(ctx context.Context) health.ComponentHealth {
		if n := current.Load().inverted.DocumentCount(); n > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", n)}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "no documents indexed"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	mux := http.NewServeMux()
	handler.New(searcher, queryCache, cfg.Search.DefaultIndex).Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", m.Handler())

	var limiter *middleware.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
		limiter.StartSweeper(ctx, 5*time.Minute)
	}

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.CORS(cfg.Server.CORSOrigins),
			middleware.Metrics(m),
			middleware.RateLimit(limiter),
			middleware.Timeout(cfg.Server.WriteTimeout),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
