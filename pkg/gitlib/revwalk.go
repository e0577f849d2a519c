package gitlib

import (
	"fmt"
	"io"

	git2go "github.com/libgit2/git2go/v34"
)

// RevWalk iterates over the ancestors of a commit. The walk is finite and
// one-shot: once Next returns io.EOF the walker is exhausted.
type RevWalk struct {
	walk *git2go.RevWalk
}

// Next returns the next commit hash in the walk, or io.EOF when the
// ancestry is exhausted.
func (w *RevWalk) Next() (Hash, error) {
	oid := new(git2go.Oid)

	err := w.walk.Next(oid)
	if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
		return Hash{}, io.EOF
	}

	if err != nil {
		return Hash{}, fmt.Errorf("advance walk: %w", err)
	}

	return HashFromOid(oid), nil
}

// Free releases the walker resources.
func (w *RevWalk) Free() {
	if w.walk != nil {
		w.walk.Free()
		w.walk = nil
	}
}
