package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// ContainsFold reports whether substr occurs in s, ignoring case
// and surrounding whitespace.
func ContainsFold(s, substr string) bool {
	return strings.Contains(NormalizeName(s), NormalizeName(substr))
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CollapseSpace trims a string and squashes runs of inner whitespace
// into single spaces.
func CollapseSpace(s string) string {
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}
