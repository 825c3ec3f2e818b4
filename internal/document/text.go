package document

import "strings"

// canonicalText rewrites the characters rich-text editors habitually
// smuggle into pasted content: zero-width no-break spaces (the word
// joiner and the legacy ZWNBSP) are removed, smart quotes become their
// plain ASCII forms.
var canonicalText = strings.NewReplacer(
	"⁠", "",
	"﻿", "",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
)

// CanonicalText returns s with zero-width no-break characters removed
// and smart single/double quotes replaced by straight quotes. Pure and
// total; input without those characters is returned unchanged.
func CanonicalText(s string) string {
	return canonicalText.Replace(s)
}
