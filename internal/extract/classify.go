package extract

import (
	"fmt"
	"strings"

	"github.com/githarvest/githarvest/pkg/gitlib"
	"github.com/githarvest/githarvest/pkg/model"
)

// Classifier turns the raw diff of a commit into classified file changes
// with rename and copy detection and unified-format hunks.
type Classifier struct {
	repo *gitlib.Repository

	// similarityThreshold is the percentage of content overlap above which
	// a delete+add pair is reclassified as a rename or copy.
	similarityThreshold uint16
}

// NewClassifier creates a classifier bound to the repository.
func NewClassifier(repo *gitlib.Repository, similarityThreshold uint16) *Classifier {
	return &Classifier{repo: repo, similarityThreshold: similarityThreshold}
}

// Changes computes the classified file changes of a non-initial commit
// against its first parent. Rename and copy detection runs with the same
// threshold for both.
func (c *Classifier) Changes(commit, parent *gitlib.Commit) ([]model.FileChange, error) {
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("parent tree of %s: %w", commit.Hash(), err)
	}
	defer parentTree.Free()

	commitTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", commit.Hash(), err)
	}
	defer commitTree.Free()

	diff, err := c.repo.DiffTreeToTree(parentTree, commitTree)
	if err != nil {
		return nil, fmt.Errorf("diff commit %s: %w", commit.Hash(), err)
	}
	defer diff.Free()

	if err := diff.FindSimilar(c.similarityThreshold, c.similarityThreshold); err != nil {
		return nil, fmt.Errorf("detect renames in %s: %w", commit.Hash(), err)
	}

	patches, err := diff.Patches()
	if err != nil {
		return nil, fmt.Errorf("read patches of %s: %w", commit.Hash(), err)
	}

	return ChangesFromPatches(patches), nil
}

// ChangesFromPatches maps classified patches to file changes. When rename and
// copy detection leaves several patches targeting the same new path, the
// first one wins and the rest are dropped, keeping each file unique within
// the commit.
func ChangesFromPatches(patches []*gitlib.Patch) []model.FileChange {
	var changes []model.FileChange

	seen := make(map[string]struct{}, len(patches))

	for _, patch := range patches {
		path := patch.NewFile.Path
		if _, dup := seen[path]; dup {
			continue
		}

		seen[path] = struct{}{}

		added, removed := countLineStats(patch)
		kind := kindForStatus(patch.Status)

		change := model.FileChange{
			Path:         path,
			Size:         patch.NewFile.Size,
			LinesAdded:   added,
			LinesRemoved: removed,
			IsBinary:     patch.Binary,
			Kind:         kind,
			Hunks:        buildHunks(patch, false),
		}

		if kind == model.KindRenamed || kind == model.KindCopied {
			change.PreviousPath = patch.OldFile.Path
		}

		changes = append(changes, change)
	}

	return changes
}

// InitialChanges computes the file changes of a root commit. The commit tree
// is diffed against the empty tree with the tree on the old side, so every
// file surfaces as a deletion; the counts are swapped back and each change is
// reported as an addition.
func (c *Classifier) InitialChanges(commit *gitlib.Commit) ([]model.FileChange, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", commit.Hash(), err)
	}
	defer tree.Free()

	diff, err := c.repo.DiffTreeToEmpty(tree)
	if err != nil {
		return nil, fmt.Errorf("diff initial commit %s: %w", commit.Hash(), err)
	}
	defer diff.Free()

	patches, err := diff.Patches()
	if err != nil {
		return nil, fmt.Errorf("read patches of %s: %w", commit.Hash(), err)
	}

	changes := make([]model.FileChange, 0, len(patches))

	for _, patch := range patches {
		added, removed := countLineStats(patch)

		changes = append(changes, model.FileChange{
			Path:     patch.OldFile.Path,
			Size:     patch.OldFile.Size,
			IsBinary: patch.Binary,
			Kind:     model.KindAdded,
			// The file content sits on the deletion side of the diff.
			LinesAdded:   removed,
			LinesRemoved: added,
			Hunks:        buildHunks(patch, true),
		})
	}

	return changes, nil
}

// countLineStats counts insertion and deletion lines across all hunks.
func countLineStats(patch *gitlib.Patch) (added, removed int) {
	for _, hunk := range patch.Hunks {
		for _, line := range hunk.Lines {
			switch line.Origin {
			case gitlib.LineAddition:
				added++
			case gitlib.LineDeletion:
				removed++
			}
		}
	}

	return added, removed
}

// buildHunks renders each hunk in unified format. Regular commits store the
// ranges inverted (old fields carry the diff's new coordinates) to describe
// the change from the child's point of view. Initial commits keep the ranges
// as-is and force the addition marker on every line, since their content
// arrives on the deletion side.
func buildHunks(patch *gitlib.Patch, initial bool) []model.Hunk {
	if len(patch.Hunks) == 0 {
		return nil
	}

	hunks := make([]model.Hunk, 0, len(patch.Hunks))

	for _, h := range patch.Hunks {
		var content strings.Builder

		if initial {
			for _, line := range h.Lines {
				content.WriteByte(gitlib.LineAddition)
				content.WriteString(line.Content)
			}

			hunks = append(hunks, model.Hunk{
				OldStart: h.OldStart,
				OldLines: h.OldLines,
				NewStart: h.NewStart,
				NewLines: h.NewLines,
				Content:  content.String(),
			})

			continue
		}

		for _, line := range h.Lines {
			content.WriteByte(line.Origin)
			content.WriteString(line.Content)
		}

		hunks = append(hunks, model.Hunk{
			OldStart: h.NewStart,
			OldLines: h.NewLines,
			NewStart: h.OldStart,
			NewLines: h.OldLines,
			Content:  content.String(),
		})
	}

	return hunks
}

// kindForStatus maps a diff delta status to the letter-coded change kind.
func kindForStatus(status gitlib.DeltaStatus) model.ChangeKind {
	switch status {
	case gitlib.DeltaAdded:
		return model.KindAdded
	case gitlib.DeltaDeleted:
		return model.KindDeleted
	case gitlib.DeltaModified:
		return model.KindModified
	case gitlib.DeltaRenamed:
		return model.KindRenamed
	case gitlib.DeltaCopied:
		return model.KindCopied
	case gitlib.DeltaIgnored:
		return model.KindIgnored
	case gitlib.DeltaUntracked:
		return model.KindUntracked
	case gitlib.DeltaTypeChange:
		return model.KindTypeChanged
	default:
		return model.KindUnknown
	}
}
