package gitlib

import "time"

// Signature represents a git signature (author, committer or tagger).
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// OffsetMinutes returns the signature's UTC offset in minutes.
func (s Signature) OffsetMinutes() int {
	_, seconds := s.When.Zone()

	return seconds / 60
}
