package extract_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/pkg/gitlib"
	"github.com/githarvest/githarvest/pkg/model"
)

// testRepo wraps a test repository for pipeline integration testing.
type testRepo struct {
	t      *testing.T
	path   string
	native *git2go.Repository
}

// newTestRepo creates a new test repository.
func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &testRepo{t: t, path: dir, native: repo}
}

// createFile creates a file in the working directory.
func (tr *testRepo) createFile(name, content string) {
	tr.t.Helper()

	path := filepath.Join(tr.path, name)
	dir := filepath.Dir(path)

	if dir != tr.path {
		err := os.MkdirAll(dir, 0o755)
		require.NoError(tr.t, err)
	}

	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(tr.t, err)
}

// deleteFile removes a file from the working directory.
func (tr *testRepo) deleteFile(name string) {
	tr.t.Helper()

	err := os.Remove(filepath.Join(tr.path, name))
	require.NoError(tr.t, err)
}

// commit stages all files and creates a commit on HEAD.
func (tr *testRepo) commit(message string) gitlib.Hash {
	tr.t.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	err = index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil)
	require.NoError(tr.t, err)

	err = index.Write()
	require.NoError(tr.t, err)

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Now(),
	}

	var parents []*git2go.Commit

	head, err := tr.native.Head()
	if err == nil {
		headCommit, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.t, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return gitlib.HashFromOid(oid)
}

// createBranch creates a branch pointing at the given commit.
func (tr *testRepo) createBranch(name string, target gitlib.Hash) {
	tr.t.Helper()

	commit, err := tr.native.LookupCommit(target.ToOid())
	require.NoError(tr.t, err)

	defer commit.Free()

	branch, err := tr.native.CreateBranch(name, commit, false)
	require.NoError(tr.t, err)

	branch.Free()
}

// switchBranch moves HEAD to the given branch without touching the worktree.
func (tr *testRepo) switchBranch(name string) {
	tr.t.Helper()

	err := tr.native.SetHead("refs/heads/" + name)
	require.NoError(tr.t, err)
}

// deleteBranch removes a branch reference.
func (tr *testRepo) deleteBranch(name string) {
	tr.t.Helper()

	ref, err := tr.native.References.Lookup("refs/heads/" + name)
	require.NoError(tr.t, err)

	defer ref.Free()

	err = ref.Delete()
	require.NoError(tr.t, err)
}

// headBranch returns the reference name HEAD points at.
func (tr *testRepo) headBranch() string {
	tr.t.Helper()

	head, err := tr.native.Head()
	require.NoError(tr.t, err)

	defer head.Free()

	return head.Name()
}

// createLightweightTag creates a lightweight tag on the given commit.
func (tr *testRepo) createLightweightTag(name string, target gitlib.Hash) {
	tr.t.Helper()

	commit, err := tr.native.LookupCommit(target.ToOid())
	require.NoError(tr.t, err)

	defer commit.Free()

	_, err = tr.native.Tags.CreateLightweight(name, commit, false)
	require.NoError(tr.t, err)
}

// createAnnotatedTag creates an annotated tag on the given commit.
func (tr *testRepo) createAnnotatedTag(name, message string, target gitlib.Hash) {
	tr.t.Helper()

	commit, err := tr.native.LookupCommit(target.ToOid())
	require.NoError(tr.t, err)

	defer commit.Free()

	tagger := &git2go.Signature{
		Name:  "Tagger",
		Email: "tagger@example.com",
		When:  time.Now(),
	}

	_, err = tr.native.Tags.Create(name, commit, tagger, message)
	require.NoError(tr.t, err)
}

// open wraps the native repository in a gitlib handle.
func (tr *testRepo) open() *gitlib.Repository {
	tr.t.Helper()

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(tr.t, err)

	tr.t.Cleanup(repo.Free)

	return repo
}

// lookupCommit returns the gitlib commit for the given hash.
func lookupCommit(t *testing.T, repo *gitlib.Repository, hash gitlib.Hash) *gitlib.Commit {
	t.Helper()

	commit, err := repo.LookupCommit(hash)
	require.NoError(t, err)

	t.Cleanup(commit.Free)

	return commit
}

// testLogger returns a logger that discards all output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memSink collects delivered records in memory. failAfter, when positive,
// makes AddCommit fail once that many records were accepted.
type memSink struct {
	mu        sync.Mutex
	records   []*model.CommitRecord
	failAfter int
	failErr   error
}

func (s *memSink) Name() string {
	return "mem"
}

func (s *memSink) AddCommit(_ context.Context, record *model.CommitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAfter > 0 && len(s.records) >= s.failAfter {
		return s.failErr
	}

	s.records = append(s.records, record)

	return nil
}

func (s *memSink) Close() error {
	return nil
}

// cancellingSink cancels the run context when the first record arrives.
type cancellingSink struct {
	memSink
	cancel context.CancelFunc
	once   sync.Once
}

func (s *cancellingSink) AddCommit(ctx context.Context, record *model.CommitRecord) error {
	s.once.Do(s.cancel)

	return s.memSink.AddCommit(ctx, record)
}

func (s *memSink) byHash() map[string]*model.CommitRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*model.CommitRecord, len(s.records))
	for _, record := range s.records {
		out[record.Hash] = record
	}

	return out
}
