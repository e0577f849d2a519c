package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/githarvest/githarvest/pkg/gitlib"
	"github.com/githarvest/githarvest/pkg/model"
)

// ErrScanConsumed is returned when Tasks is called twice on the same scanner.
var ErrScanConsumed = errors.New("scan results already consumed")

// pendingMeta accumulates branch and tag attribution for one commit while
// the reference scan runs.
type pendingMeta struct {
	branches []string
	tags     []model.Tag
}

// Scanner walks every reference of a repository and builds the commit index:
// for each reachable commit, the set of branches it belongs to and the tags
// attached to it. Scanning is single-threaded; the index is handed over to
// the queue as immutable tasks once the scan completes.
type Scanner struct {
	repo   *gitlib.Repository
	logger *slog.Logger

	index map[gitlib.Hash]*pendingMeta
	// order records each commit hash at first discovery, fixing task order.
	order    []gitlib.Hash
	consumed bool
}

// NewScanner creates a scanner over the repository.
func NewScanner(repo *gitlib.Repository, logger *slog.Logger) *Scanner {
	return &Scanner{
		repo:   repo,
		logger: logger,
		index:  make(map[gitlib.Hash]*pendingMeta),
	}
}

// Scan walks all branches first, then attributes tags. Tags are processed
// after branches so that a tag pointing at a commit unreachable from any
// branch can be detected and dropped.
func (s *Scanner) Scan(ctx context.Context) error {
	refs, err := s.repo.ListReferences()
	if err != nil {
		return fmt.Errorf("scan references: %w", err)
	}

	var branches, tags []string

	for _, name := range refs {
		if gitlib.IsTagReference(name) {
			tags = append(tags, name)
		} else {
			branches = append(branches, name)
		}
	}

	for _, name := range branches {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.logger.Info("scanning branch", "branch", name)

		if err := s.scanBranch(name); err != nil {
			return err
		}
	}

	for _, name := range tags {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.scanTag(name); err != nil {
			return err
		}
	}

	s.logger.Info("reference scan complete",
		"branches", len(branches), "tags", len(tags), "commits", len(s.order))

	return nil
}

// scanBranch walks the full ancestry of the branch head and records branch
// membership for every reachable commit. An unresolvable reference is logged
// and skipped; the rest of the scan proceeds.
func (s *Scanner) scanBranch(name string) error {
	head, err := s.repo.ResolveReferenceCommit(name)
	if err != nil {
		s.logger.Warn("skipping unresolvable reference", "reference", name, "error", err)

		return nil
	}

	walk, err := s.repo.Walk(head)
	if err != nil {
		return fmt.Errorf("walk branch %s: %w", name, err)
	}
	defer walk.Free()

	for {
		hash, err := walk.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("walk branch %s: %w", name, err)
		}

		meta, ok := s.index[hash]
		if !ok {
			meta = &pendingMeta{}
			s.index[hash] = meta
			s.order = append(s.order, hash)
		}

		meta.branches = append(meta.branches, name)
	}

	return nil
}

// scanTag attributes one tag to the commit it points at. Tags on commits
// that no branch walk discovered are dropped: such commits only exist when
// history was rewritten underneath a tag.
func (s *Scanner) scanTag(name string) error {
	target, err := s.repo.ResolveReferenceCommit(name)
	if err != nil {
		s.logger.Warn("skipping unresolvable reference", "reference", name, "error", err)

		return nil
	}

	meta, ok := s.index[target]
	if !ok {
		s.logger.Debug("dropping tag on unreachable commit", "tag", name, "commit", target)

		return nil
	}

	tag := model.Tag{Name: name[strings.LastIndex(name, "/")+1:]}

	annotation, err := s.repo.LookupTagAnnotation(name)
	if err != nil {
		return fmt.Errorf("read tag %s: %w", name, err)
	}

	if annotation != nil {
		tag.Message = annotation.Message
		tag.Tagger = &model.Person{
			Name:  annotation.Tagger.Name,
			Email: annotation.Tagger.Email,
		}
		tag.TaggedAt = annotation.Tagger.When
		tag.Offset = annotation.Tagger.OffsetMinutes()
	}

	meta.tags = append(meta.tags, tag)

	return nil
}

// CommitCount returns the number of distinct commits discovered.
func (s *Scanner) CommitCount() int {
	return len(s.order)
}

// Tasks converts the index into queue tasks in first-discovery order. The
// index is consumed: metadata ownership moves to the tasks and a second call
// fails.
func (s *Scanner) Tasks() ([]*Task, error) {
	if s.consumed {
		return nil, ErrScanConsumed
	}

	s.consumed = true

	tasks := make([]*Task, 0, len(s.order))

	for _, hash := range s.order {
		meta := s.index[hash]
		tasks = append(tasks, &Task{
			Hash:     hash,
			Branches: meta.branches,
			Tags:     meta.tags,
		})

		delete(s.index, hash)
	}

	return tasks, nil
}
