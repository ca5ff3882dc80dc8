// Package lookup holds the ephemeral results of the ingredient validation
// and autocomplete services. Nothing here is ever persisted.
package lookup

import "strings"

// ValidationResult is the verdict of the validation service for one input.
// A nil IsValid means the verdict is unknown: the lookup failed or has not
// run yet.
type ValidationResult struct {
	Original    string   `json:"original"`
	IsValid     *bool    `json:"is_valid"`
	Corrected   *string  `json:"corrected"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
	Source      string   `json:"source,omitempty"`
}

// Unknown returns the result used when validation could not be performed.
func Unknown(original string) ValidationResult {
	return ValidationResult{Original: original}
}

// Known reports whether the service returned a verdict.
func (v ValidationResult) Known() bool {
	return v.IsValid != nil
}

// Valid reports whether the service positively accepted the input.
func (v ValidationResult) Valid() bool {
	return v.IsValid != nil && *v.IsValid
}

// Correction returns the corrected spelling when the service offered a
// non-empty one.
func (v ValidationResult) Correction() (string, bool) {
	if v.Corrected == nil {
		return "", false
	}
	c := strings.TrimSpace(*v.Corrected)
	return c, c != ""
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Name     string  `json:"name"`
	Category *string `json:"category"`
}

// CategoryOr returns the category or fallback when it is missing.
func (s Suggestion) CategoryOr(fallback string) string {
	if s.Category == nil || *s.Category == "" {
		return fallback
	}
	return *s.Category
}
