// Package model defines the structured records produced by history
// extraction: commits, people, tags, per-file changes and diff hunks.
package model

import "time"

// ChangeKind classifies how a file changed within a commit. The letter codes
// follow the classic git status letters.
type ChangeKind string

// Recognized change kinds.
const (
	KindAdded       ChangeKind = "A"
	KindDeleted     ChangeKind = "D"
	KindModified    ChangeKind = "M"
	KindRenamed     ChangeKind = "R"
	KindCopied      ChangeKind = "C"
	KindIgnored     ChangeKind = "I"
	KindUntracked   ChangeKind = "U"
	KindTypeChanged ChangeKind = "T"
	KindUnknown     ChangeKind = "X"
)

// Person identifies an author, committer or tagger by name and email.
type Person struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Tag describes a tag attached to a commit. Lightweight tags carry only a
// name; annotated tags additionally carry the tagger, message and timestamp.
type Tag struct {
	Name     string    `json:"name" yaml:"name"`
	Message  string    `json:"message,omitempty" yaml:"message,omitempty"`
	Tagger   *Person   `json:"tagger,omitempty" yaml:"tagger,omitempty"`
	TaggedAt time.Time `json:"tagged_at,omitempty" yaml:"tagged_at,omitempty"`
	// Offset is the tagger's UTC offset in minutes.
	Offset int `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Hunk is one contiguous diff region of a file, rendered in unified format.
type Hunk struct {
	OldStart int    `json:"old_start" yaml:"old_start"`
	OldLines int    `json:"old_lines" yaml:"old_lines"`
	NewStart int    `json:"new_start" yaml:"new_start"`
	NewLines int    `json:"new_lines" yaml:"new_lines"`
	Content  string `json:"content" yaml:"content"`
}

// FileChange records how a single file changed in one commit. A file appears
// at most once per commit. PreviousPath is set only for renames and copies.
type FileChange struct {
	Path         string     `json:"path" yaml:"path"`
	PreviousPath string     `json:"previous_path,omitempty" yaml:"previous_path,omitempty"`
	Size         int64      `json:"size" yaml:"size"`
	LinesAdded   int        `json:"lines_added" yaml:"lines_added"`
	LinesRemoved int        `json:"lines_removed" yaml:"lines_removed"`
	IsBinary     bool       `json:"is_binary" yaml:"is_binary"`
	Kind         ChangeKind `json:"kind" yaml:"kind"`
	Hunks        []Hunk     `json:"hunks,omitempty" yaml:"hunks,omitempty"`
}

// CommitRecord is the terminal artifact handed to a sink. It is immutable
// once assembled by a worker. Branches is the full set of branches the
// commit is reachable from; no delivery order is implied by any field.
type CommitRecord struct {
	Hash      string       `json:"hash" yaml:"hash"`
	Branches  []string     `json:"branches" yaml:"branches"`
	Tags      []Tag        `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parents   []string     `json:"parents" yaml:"parents"`
	Author    Person       `json:"author" yaml:"author"`
	Committer Person       `json:"committer" yaml:"committer"`
	Message   string       `json:"message" yaml:"message"`
	Changes   []FileChange `json:"changes" yaml:"changes"`

	AuthoredAt time.Time `json:"authored_at" yaml:"authored_at"`
	// AuthorOffset is the author's UTC offset in minutes.
	AuthorOffset int       `json:"author_offset" yaml:"author_offset"`
	CommittedAt  time.Time `json:"committed_at" yaml:"committed_at"`
	// CommitterOffset is the committer's UTC offset in minutes.
	CommitterOffset int `json:"committer_offset" yaml:"committer_offset"`
}
