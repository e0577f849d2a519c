package commands_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/cmd/githarvest/commands"
	"github.com/githarvest/githarvest/internal/config"
	"github.com/githarvest/githarvest/pkg/model"
)

// initTestRepo creates a repository with two commits and returns its path.
func initTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	commit := func(name, content, message string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

		index, idxErr := repo.Index()
		require.NoError(t, idxErr)

		defer index.Free()

		require.NoError(t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
		require.NoError(t, index.Write())

		treeID, treeErr := index.WriteTree()
		require.NoError(t, treeErr)

		tree, lookupErr := repo.LookupTree(treeID)
		require.NoError(t, lookupErr)

		defer tree.Free()

		sig := &git2go.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}

		var parents []*git2go.Commit

		head, headErr := repo.Head()
		if headErr == nil {
			parent, parentErr := repo.LookupCommit(head.Target())
			require.NoError(t, parentErr)

			parents = append(parents, parent)

			head.Free()
		}

		_, commitErr := repo.CreateCommit("HEAD", sig, sig, message, tree, parents...)
		require.NoError(t, commitErr)

		for _, parent := range parents {
			parent.Free()
		}
	}

	commit("a.txt", "a\n", "first")
	commit("b.txt", "b\n", "second")

	return dir
}

func TestExtractCommandEndToEnd(t *testing.T) {
	repoPath := initTestRepo(t)
	output := filepath.Join(t.TempDir(), "commits.json")

	cmd := commands.NewExtractCommand()
	cmd.SetArgs([]string{repoPath, "--output", output, "--workers", "2"})

	require.NoError(t, cmd.Execute())

	file, err := os.Open(output)
	require.NoError(t, err)

	defer file.Close()

	var records []model.CommitRecord

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.CommitRecord

		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))

		records = append(records, record)
	}

	require.NoError(t, scanner.Err())
	require.Len(t, records, 2)

	for _, record := range records {
		assert.NotEmpty(t, record.Hash)
		assert.NotEmpty(t, record.Branches)
		assert.Equal(t, "Test User", record.Author.Name)
		assert.Len(t, record.Changes, 1)
	}
}

func TestExtractCommandRejectsUnknownBackend(t *testing.T) {
	cmd := commands.NewExtractCommand()
	cmd.SetArgs([]string{t.TempDir(), "--sink", "tape"})

	err := cmd.Execute()
	require.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestExtractCommandRejectsBadThreshold(t *testing.T) {
	cmd := commands.NewExtractCommand()
	cmd.SetArgs([]string{t.TempDir(), "--similarity-threshold", "250"})

	err := cmd.Execute()
	require.ErrorIs(t, err, config.ErrInvalidSimilarityThreshold)
}

func TestExtractCommandNotARepository(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.json")

	cmd := commands.NewExtractCommand()
	cmd.SetArgs([]string{t.TempDir(), "--output", output})

	require.Error(t, cmd.Execute())
}

func TestSinksCommandListsBackends(t *testing.T) {
	var buf bytes.Buffer

	cmd := commands.NewSinksCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "file")
	assert.Contains(t, out, "redis")
	assert.Contains(t, out, "badger")
}
