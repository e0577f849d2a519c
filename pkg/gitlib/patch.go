package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// DeltaStatus mirrors the per-file status reported by the diff backend.
type DeltaStatus int

// Delta statuses. Statuses outside this set reach callers as DeltaUnknown.
const (
	DeltaUnmodified DeltaStatus = iota
	DeltaAdded
	DeltaDeleted
	DeltaModified
	DeltaRenamed
	DeltaCopied
	DeltaIgnored
	DeltaUntracked
	DeltaTypeChange
	DeltaUnknown
)

// Line origin markers as reported by the backend.
const (
	LineContext  byte = ' '
	LineAddition byte = '+'
	LineDeletion byte = '-'
)

// PatchFile identifies one side of a file-level change.
type PatchFile struct {
	Path string
	Size int64
}

// PatchLine is a single changed line with its origin marker.
type PatchLine struct {
	Origin  byte
	Content string
}

// PatchHunk is one contiguous diff region with its lines.
type PatchHunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []PatchLine
}

// Patch describes the full change of a single file: status, both sides,
// binary flag and hunks with line content.
type Patch struct {
	Status  DeltaStatus
	OldFile PatchFile
	NewFile PatchFile
	Binary  bool
	Hunks   []PatchHunk
}

// Diff wraps a libgit2 diff.
type Diff struct {
	diff *git2go.Diff
}

// FindSimilar runs rename and copy detection over the diff, reclassifying
// delete+add pairs whose content overlap meets the thresholds (percentages).
func (d *Diff) FindSimilar(renameThreshold, copyThreshold uint16) error {
	opts, err := git2go.DefaultDiffFindOptions()
	if err != nil {
		return fmt.Errorf("get find options: %w", err)
	}

	opts.Flags = git2go.DiffFindRenames | git2go.DiffFindCopies
	opts.RenameThreshold = renameThreshold
	opts.CopyThreshold = copyThreshold

	err = d.diff.FindSimilar(&opts)
	if err != nil {
		return fmt.Errorf("find similar: %w", err)
	}

	return nil
}

// Patches collects every file-level change in the diff, including hunk and
// line detail, preserving backend order.
func (d *Diff) Patches() ([]*Patch, error) {
	var patches []*Patch

	err := d.diff.ForEach(func(delta git2go.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		patch := &Patch{
			Status:  deltaStatus(delta.Status),
			OldFile: PatchFile{Path: delta.OldFile.Path, Size: int64(delta.OldFile.Size)},
			NewFile: PatchFile{Path: delta.NewFile.Path, Size: int64(delta.NewFile.Size)},
			Binary:  delta.Flags&git2go.DiffFlagBinary != 0,
		}

		patches = append(patches, patch)

		return func(hunk git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			patch.Hunks = append(patch.Hunks, PatchHunk{
				OldStart: hunk.OldStart,
				OldLines: hunk.OldLines,
				NewStart: hunk.NewStart,
				NewLines: hunk.NewLines,
			})

			hunkIdx := len(patch.Hunks) - 1

			return func(line git2go.DiffLine) error {
				patch.Hunks[hunkIdx].Lines = append(patch.Hunks[hunkIdx].Lines, PatchLine{
					Origin:  byte(line.Origin),
					Content: line.Content,
				})

				return nil
			}, nil
		}, nil
	}, git2go.DiffDetailLines)
	if err != nil {
		return nil, fmt.Errorf("collect patches: %w", err)
	}

	return patches, nil
}

// Free releases the diff resources.
func (d *Diff) Free() {
	if d.diff == nil {
		return
	}

	_ = d.diff.Free()
	d.diff = nil
}

func deltaStatus(status git2go.Delta) DeltaStatus {
	switch status {
	case git2go.DeltaUnmodified:
		return DeltaUnmodified
	case git2go.DeltaAdded:
		return DeltaAdded
	case git2go.DeltaDeleted:
		return DeltaDeleted
	case git2go.DeltaModified:
		return DeltaModified
	case git2go.DeltaRenamed:
		return DeltaRenamed
	case git2go.DeltaCopied:
		return DeltaCopied
	case git2go.DeltaIgnored:
		return DeltaIgnored
	case git2go.DeltaUntracked:
		return DeltaUntracked
	case git2go.DeltaTypeChange:
		return DeltaTypeChange
	case git2go.DeltaUnreadable, git2go.DeltaConflicted:
		return DeltaUnknown
	default:
		return DeltaUnknown
	}
}
