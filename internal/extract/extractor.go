// Package extract implements the commit history extraction pipeline: a
// single-threaded reference scan that attributes every commit to its
// branches and tags, followed by parallel diff workers that classify file
// changes and deliver complete records to a sink.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/githarvest/githarvest/internal/observability"
	"github.com/githarvest/githarvest/internal/sink"
	"github.com/githarvest/githarvest/pkg/gitlib"
	"github.com/githarvest/githarvest/pkg/safeconv"
)

// DefaultSimilarityThreshold is the default rename and copy detection
// threshold in percent, matching git's own default.
const DefaultSimilarityThreshold = 50

// Config configures an extraction run.
type Config struct {
	// RepoPath is any path inside the repository to extract.
	RepoPath string

	// Workers is the number of parallel diff workers. Zero selects the
	// number of CPUs.
	Workers int

	// SimilarityThreshold is the rename and copy detection threshold in
	// percent. Zero selects DefaultSimilarityThreshold.
	SimilarityThreshold int

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.PipelineMetrics
}

// Stats summarizes a completed extraction run.
type Stats struct {
	Commits  int
	Duration time.Duration
}

// Extractor drives one extraction run over a repository.
type Extractor struct {
	cfg  Config
	repo *gitlib.Repository
}

// New discovers the repository at cfg.RepoPath and prepares an extractor.
// Zero-value config fields are filled with defaults.
func New(cfg Config) (*Extractor, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("githarvest")
	}

	repo, err := gitlib.Discover(cfg.RepoPath)
	if err != nil {
		return nil, err
	}

	return &Extractor{cfg: cfg, repo: repo}, nil
}

// Repository returns the discovered repository.
func (e *Extractor) Repository() *gitlib.Repository {
	return e.repo
}

// Close releases the repository handle.
func (e *Extractor) Close() {
	e.repo.Free()
}

// Run executes the pipeline: scan references, enqueue every discovered
// commit plus one shutdown signal per worker, then process the queue with
// the worker pool, delivering records to out. The run aborts on the first
// worker error.
func (e *Extractor) Run(ctx context.Context, out sink.Sink) (Stats, error) {
	ctx, span := e.cfg.Tracer.Start(ctx, "extract.run",
		trace.WithAttributes(attribute.String("repo.path", e.repo.Path())))
	defer span.End()

	start := time.Now()

	tasks, err := e.scan(ctx)
	if err != nil {
		return Stats{}, err
	}

	queue := NewQueue(len(tasks) + e.cfg.Workers)

	for _, task := range tasks {
		queue.Push(task)
	}

	for range e.cfg.Workers {
		queue.Push(nil)
	}

	e.cfg.Logger.Info("processing commits", "commits", len(tasks), "workers", e.cfg.Workers)

	pool := NewPool(PoolConfig{
		RepoPath:            e.repo.Path(),
		Workers:             e.cfg.Workers,
		SimilarityThreshold: uint16(safeconv.MustIntToUint(e.cfg.SimilarityThreshold)),
		Queue:               queue,
		Sink:                out,
		Logger:              e.cfg.Logger,
		Metrics:             e.cfg.Metrics,
	})

	if err := pool.Run(ctx); err != nil {
		return Stats{}, fmt.Errorf("process commits: %w", err)
	}

	queue.Join()

	stats := Stats{Commits: len(tasks), Duration: time.Since(start)}

	e.cfg.Logger.Info("extraction complete", "commits", stats.Commits, "duration", stats.Duration)

	return stats, nil
}

func (e *Extractor) scan(ctx context.Context) ([]*Task, error) {
	ctx, span := e.cfg.Tracer.Start(ctx, "extract.scan")
	defer span.End()

	scanner := NewScanner(e.repo, e.cfg.Logger)

	if err := scanner.Scan(ctx); err != nil {
		return nil, err
	}

	tasks, err := scanner.Tasks()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("commits", len(tasks)))

	return tasks, nil
}
