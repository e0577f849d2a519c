package gitlib

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	git2go "github.com/libgit2/git2go/v34"
)

// ErrNotARepository is returned by Discover when the path does not contain a
// git repository.
var ErrNotARepository = errors.New("not a git repository")

// TagNamespace is the reference-name prefix shared by all tags.
const TagNamespace = "refs/tags/"

// Zero context lines and one interhunk line match the diff shape the
// extraction pipeline expects: no surrounding context, adjacent hunks merged.
const (
	diffContextLines   = 0
	diffInterhunkLines = 1
)

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// Discover locates the repository containing path and opens it. Returns
// ErrNotARepository when no repository is found; the caller decides what to
// do next.
func Discover(path string) (*Repository, error) {
	repoPath, err := git2go.Discover(path, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
	}

	return OpenRepository(repoPath)
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// ProjectURL returns the URL of the origin remote, or a local placeholder
// when the repository has no origin.
func (r *Repository) ProjectURL() string {
	remote, err := r.repo.Remotes.Lookup("origin")
	if err != nil {
		return "local/" + uuid.NewString()
	}
	defer remote.Free()

	return remote.Url()
}

// ProjectName derives the project name from the origin URL.
func (r *Repository) ProjectName() string {
	url := r.ProjectURL()
	name := url[strings.LastIndex(url, "/")+1:]

	return strings.TrimSuffix(name, ".git")
}

// ListReferences returns the names of all references in the repository,
// branches and tags alike.
func (r *Repository) ListReferences() ([]string, error) {
	iter, err := r.repo.NewReferenceNameIterator()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Free()

	var names []string

	for {
		name, iterErr := iter.Next()
		if iterErr != nil {
			if git2go.IsErrorCode(iterErr, git2go.ErrorCodeIterOver) {
				break
			}

			return nil, fmt.Errorf("iterate references: %w", iterErr)
		}

		names = append(names, name)
	}

	return names, nil
}

// IsTagReference reports whether the reference name lives in the tag
// namespace.
func IsTagReference(name string) bool {
	return strings.HasPrefix(name, TagNamespace)
}

// ResolveReferenceCommit peels a reference to the commit it ultimately
// points at and returns that commit's hash.
func (r *Repository) ResolveReferenceCommit(name string) (Hash, error) {
	ref, err := r.repo.References.Lookup(name)
	if err != nil {
		return Hash{}, fmt.Errorf("lookup reference %s: %w", name, err)
	}
	defer ref.Free()

	obj, err := ref.Peel(git2go.ObjectCommit)
	if err != nil {
		return Hash{}, fmt.Errorf("peel reference %s: %w", name, err)
	}
	defer obj.Free()

	return HashFromOid(obj.Id()), nil
}

// TagAnnotation holds the details carried by an annotated tag object.
type TagAnnotation struct {
	Message string
	Tagger  Signature
}

// LookupTagAnnotation returns the annotation of the tag reference, or nil
// when the reference is a lightweight tag pointing directly at a commit.
func (r *Repository) LookupTagAnnotation(name string) (*TagAnnotation, error) {
	ref, err := r.repo.References.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("lookup reference %s: %w", name, err)
	}
	defer ref.Free()

	obj, err := r.repo.Lookup(ref.Target())
	if err != nil {
		return nil, fmt.Errorf("lookup tag target %s: %w", name, err)
	}
	defer obj.Free()

	if obj.Type() != git2go.ObjectTag {
		return nil, nil
	}

	tag, err := obj.AsTag()
	if err != nil {
		return nil, fmt.Errorf("read tag object %s: %w", name, err)
	}

	annotation := &TagAnnotation{Message: tag.Message()}

	if tagger := tag.Tagger(); tagger != nil {
		annotation.Tagger = Signature{
			Name:  tagger.Name,
			Email: tagger.Email,
			When:  tagger.When,
		}
	}

	return annotation, nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// Walk creates a revision walker over the ancestors of the given commit,
// visiting commits in combined time and topological order.
func (r *Repository) Walk(from Hash) (*RevWalk, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	walk.Sorting(git2go.SortTime | git2go.SortTopological)

	err = walk.Push(from.ToOid())
	if err != nil {
		walk.Free()

		return nil, fmt.Errorf("push to revwalk: %w", err)
	}

	return &RevWalk{walk: walk}, nil
}

// DiffTreeToTree computes the diff between two trees with zero context
// lines. Passing nil for either side diffs against the empty tree.
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree) (*Diff, error) {
	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	opts.ContextLines = diffContextLines
	opts.InterhunkLines = diffInterhunkLines

	var oldT, newT *git2go.Tree

	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	return &Diff{diff: diff}, nil
}

// DiffTreeToEmpty diffs the tree against the empty tree. The tree sits on
// the old side of the diff, so its content is reported as deletions.
func (r *Repository) DiffTreeToEmpty(tree *Tree) (*Diff, error) {
	return r.DiffTreeToTree(tree, nil)
}

// Native returns the underlying libgit2 repository for advanced operations.
func (r *Repository) Native() *git2go.Repository {
	return r.repo
}
