package recipe

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinCompleteLength is the length a recipe body must exceed to count as
// finished.
const MinCompleteLength = 200

var (
	titleHeading = regexp.MustCompile(`(?m)^#[ \t]+\S`)
	numberedStep = regexp.MustCompile(`(?m)^[ \t]*[1-5]\.`)
)

// IsComplete guesses whether a generated recipe finished generating. It
// needs a top-level title, an ingredients section, an instructions section,
// at least one numbered step and a body longer than MinCompleteLength.
func IsComplete(r Recipe) bool {
	content := r.MarkdownContent
	if utf8.RuneCountInString(content) <= MinCompleteLength {
		return false
	}

	lower := strings.ToLower(content)
	return titleHeading.MatchString(content) &&
		strings.Contains(lower, "## ingredients") &&
		strings.Contains(lower, "## instructions") &&
		numberedStep.MatchString(content)
}

// AnyComplete reports whether at least one recipe looks finished.
func AnyComplete(recipes []Recipe) bool {
	for _, r := range recipes {
		if IsComplete(r) {
			return true
		}
	}
	return false
}

// Incomplete returns the indexes of recipes that do not look finished.
func Incomplete(recipes []Recipe) []int {
	var idx []int
	for i, r := range recipes {
		if !IsComplete(r) {
			idx = append(idx, i)
		}
	}
	return idx
}
