// Package user models the signed-in account as the auth service reports it.
package user

import "strings"

// User is the safe profile view returned by the auth service.
type User struct {
	ID                 int64    `json:"id"`
	Username           string   `json:"username"`
	Email              string   `json:"email"`
	DietaryPreferences []string `json:"dietary_preferences"`
	Allergies          []string `json:"allergies"`
	FavoriteCuisines   []string `json:"favorite_cuisines"`
}

// DietarySummary joins dietary preferences and allergies into the free-text
// form the recipe request expects.
func (u User) DietarySummary() string {
	parts := make([]string, 0, len(u.DietaryPreferences)+len(u.Allergies))
	for _, p := range u.DietaryPreferences {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	for _, a := range u.Allergies {
		if a = strings.TrimSpace(a); a != "" {
			parts = append(parts, "no "+a)
		}
	}
	return strings.Join(parts, ", ")
}

// ProfileUpdate carries the fields the profile endpoint accepts.
type ProfileUpdate struct {
	DietaryPreferences []string `json:"dietary_preferences,omitempty"`
	Allergies          []string `json:"allergies,omitempty"`
	FavoriteCuisines   []string `json:"favorite_cuisines,omitempty"`
}

// Empty reports whether the update would change nothing.
func (p ProfileUpdate) Empty() bool {
	return p.DietaryPreferences == nil && p.Allergies == nil && p.FavoriteCuisines == nil
}
