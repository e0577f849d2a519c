package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/githarvest/githarvest/internal/observability"
	"github.com/githarvest/githarvest/internal/sink"
	"github.com/githarvest/githarvest/pkg/gitlib"
	"github.com/githarvest/githarvest/pkg/model"
)

// PoolConfig configures the worker pool.
type PoolConfig struct {
	// RepoPath is the repository path each worker opens its own handle to.
	// libgit2 handles are not safe for concurrent use.
	RepoPath string

	// Workers is the number of parallel diff workers.
	Workers int

	// SimilarityThreshold is the rename and copy detection threshold.
	SimilarityThreshold uint16

	// Queue supplies the tasks, one shutdown signal per worker at the end.
	Queue *Queue

	// Sink receives the assembled records. Delivery is serialized.
	Sink sink.Sink

	Logger  *slog.Logger
	Metrics *observability.PipelineMetrics
}

// Pool runs a fixed set of workers over the task queue. The first worker
// error cancels the shared context and aborts the run; remaining workers
// observe the cancellation and exit.
type Pool struct {
	cfg PoolConfig

	sinkMu  sync.Mutex
	errOnce sync.Once
	runErr  error
}

// NewPool creates a worker pool.
func NewPool(cfg PoolConfig) *Pool {
	return &Pool{cfg: cfg}
}

// Run starts the workers and blocks until all of them exit. Returns the
// first error any worker hit, or nil when every task was processed.
func (p *Pool) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	for i := range p.cfg.Workers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			p.runWorker(ctx, cancel, i)
		}()
	}

	wg.Wait()

	return p.runErr
}

func (p *Pool) fail(cancel context.CancelFunc, err error) {
	p.errOnce.Do(func() {
		p.runErr = err
		cancel()
	})
}

func (p *Pool) runWorker(ctx context.Context, cancel context.CancelFunc, id int) {
	repo, err := gitlib.OpenRepository(p.cfg.RepoPath)
	if err != nil {
		p.fail(cancel, fmt.Errorf("worker %d: open repository: %w", id, err))

		return
	}
	defer repo.Free()

	classifier := NewClassifier(repo, p.cfg.SimilarityThreshold)

	for {
		task, err := p.cfg.Queue.Pop(ctx)
		if err != nil {
			p.fail(cancel, err)

			return
		}

		if task == nil {
			p.cfg.Queue.Done()

			return
		}

		err = p.process(ctx, repo, classifier, task)
		p.cfg.Queue.Done()

		if err != nil {
			p.cfg.Logger.Error("worker failed", "worker", id, "commit", task.Hash, "error", err)
			p.fail(cancel, err)

			return
		}
	}
}

// process assembles the record for one commit and delivers it to the sink.
func (p *Pool) process(ctx context.Context, repo *gitlib.Repository, classifier *Classifier, task *Task) error {
	commit, err := repo.LookupCommit(task.Hash)
	if err != nil {
		return fmt.Errorf("lookup commit %s: %w", task.Hash, err)
	}
	defer commit.Free()

	var changes []model.FileChange

	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return fmt.Errorf("parent of %s: %w", task.Hash, err)
		}
		defer parent.Free()

		changes, err = classifier.Changes(commit, parent)
		if err != nil {
			return err
		}
	} else {
		changes, err = classifier.InitialChanges(commit)
		if err != nil {
			return err
		}
	}

	record := buildRecord(commit, task, changes)

	start := time.Now()

	p.sinkMu.Lock()
	err = p.cfg.Sink.AddCommit(ctx, record)
	p.sinkMu.Unlock()

	if err != nil {
		return fmt.Errorf("deliver commit %s: %w", task.Hash, err)
	}

	p.cfg.Metrics.ObserveCommit(ctx, len(changes), time.Since(start))

	return nil
}

// buildRecord merges the commit data with the scan metadata carried by the
// task. The record is complete and immutable from here on.
func buildRecord(commit *gitlib.Commit, task *Task, changes []model.FileChange) *model.CommitRecord {
	author := commit.Author()
	committer := commit.Committer()

	parents := commit.ParentHashes()
	parentHashes := make([]string, len(parents))

	for i, parent := range parents {
		parentHashes[i] = parent.String()
	}

	return &model.CommitRecord{
		Hash:            task.Hash.String(),
		Branches:        task.Branches,
		Tags:            task.Tags,
		Parents:         parentHashes,
		Author:          model.Person{Name: author.Name, Email: author.Email},
		Committer:       model.Person{Name: committer.Name, Email: committer.Email},
		Message:         commit.Message(),
		Changes:         changes,
		AuthoredAt:      author.When,
		AuthorOffset:    author.OffsetMinutes(),
		CommittedAt:     committer.When,
		CommitterOffset: committer.OffsetMinutes(),
	}
}
