// Package article picks the headline appended to each post, avoiding any
// link used in the recent history window.
package article

import (
	"slices"
	"unicode/utf8"
)

// DefaultHistoryLimit is how many previously posted links are remembered.
const DefaultHistoryLimit = 20

// Candidate is a headline and the page it links to.
type Candidate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TitleLen is the title length in characters, the unit the post budget uses.
func (c Candidate) TitleLen() int {
	return utf8.RuneCountInString(c.Title)
}

// History is the ordered window of used links, oldest first.
type History []Candidate

// Contains reports whether c was already used. Title and URL must both match.
func (h History) Contains(c Candidate) bool {
	return slices.Contains(h, c)
}

// Record returns a new history with c appended and the oldest entries
// dropped until at most limit remain. h is left untouched.
func (h History) Record(c Candidate, limit int) History {
	next := make(History, 0, len(h)+1)
	next = append(next, h...)
	next = append(next, c)
	if limit > 0 && len(next) > limit {
		next = next[len(next)-limit:]
	}
	return next
}
