package service

import "regexp"

// phonePattern is a loose international phone heuristic: optional "+",
// a digit, at least seven digits/spaces/hyphens, a digit.
var phonePattern = regexp.MustCompile(`\+?\d[\d\s\-]{7,}\d`)

// ExtractPhone returns the first phone-shaped substring of text.
func ExtractPhone(text string) (string, bool) {
	m := phonePattern.FindString(text)
	return m, m != ""
}
