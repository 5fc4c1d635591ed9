// Package post joins the air quality report and the chosen headline into the
// text that gets published.
package post

import (
	"unicode/utf8"

	"github.com/deusflow/aqibot/internal/article"
)

// MaxLength is the platform's post limit in characters.
const MaxLength = 300

const separator = "\n\n"

// Facet marks the byte range of the headline so it renders as a link.
type Facet struct {
	ByteStart int
	ByteEnd   int
	URI       string
}

// Post is ready-to-publish text with its link facet.
type Post struct {
	Text  string
	Facet Facet
}

// Length is the post length in characters.
func (p Post) Length() int {
	return utf8.RuneCountInString(p.Text)
}

// Budget is the room left for a headline once the report is in place. It
// must be computed before an article is chosen.
func Budget(report string) int {
	return MaxLength - utf8.RuneCountInString(report)
}

// Assemble appends the headline below the report. The length limit is not
// enforced here.
func Assemble(report string, c article.Candidate) Post {
	start := len(report) + len(separator)
	return Post{
		Text: report + separator + c.Title,
		Facet: Facet{
			ByteStart: start,
			ByteEnd:   start + len(c.Title),
			URI:       c.URL,
		},
	}
}
