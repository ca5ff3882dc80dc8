package recipe

import (
	"regexp"
	"strings"
)

var (
	bulletPrefix   = regexp.MustCompile(`^([-*+•]|\d+[.)])\s+`)
	checkboxPrefix = regexp.MustCompile(`^\[[ xX]\]\s*`)
)

// ExtractIngredients returns the list items under the "## Ingredients"
// heading, in order, with list markers and bold markup removed. Sub-headings
// inside the section (for example "### For the sauce") are skipped; any other
// heading of level two or above ends the section.
func ExtractIngredients(markdown string) []string {
	var (
		out       []string
		inSection bool
	)

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			title := strings.ToLower(strings.TrimSpace(trimmed[level:]))
			switch {
			case level == 2 && strings.HasPrefix(title, "ingredients"):
				inSection = true
			case level <= 2:
				inSection = false
			}
			continue
		}

		if !inSection || trimmed == "" {
			continue
		}

		loc := bulletPrefix.FindStringIndex(trimmed)
		if loc == nil {
			continue
		}
		item := checkboxPrefix.ReplaceAllString(trimmed[loc[1]:], "")
		item = strings.TrimSpace(strings.ReplaceAll(item, "**", ""))
		if item != "" {
			out = append(out, item)
		}
	}

	return out
}
