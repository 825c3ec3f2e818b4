package document

import (
	"regexp"
	"strings"
)

var (
	slugApostrophes = strings.NewReplacer("'", "", "’", "")
	slugNonAlnum    = regexp.MustCompile(`[^a-z0-9]+`)
	slugRuns        = regexp.MustCompile(`[\s-]+`)
)

// Slug converts a display name into a lowercase token safe for use as a
// filename component: apostrophes are stripped, every run of other
// non-alphanumeric characters collapses to a single hyphen, and leading
// or trailing separators are trimmed.
//
//	Slug("Tasha's Hideous Laughter") == "tashas-hideous-laughter"
//
// Distinct names can slug identically; callers that care detect the
// collision themselves.
func Slug(name string) string {
	s := strings.ToLower(name)
	s = slugApostrophes.Replace(s)
	s = slugNonAlnum.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return slugRuns.ReplaceAllString(s, "-")
}
