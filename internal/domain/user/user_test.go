package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDietarySummary(t *testing.T) {
	u := User{
		DietaryPreferences: []string{"vegetarian", " "},
		Allergies:          []string{"peanuts"},
	}
	assert.Equal(t, "vegetarian, no peanuts", u.DietarySummary())
	assert.Empty(t, User{}.DietarySummary())
}

func TestProfileUpdate_Empty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())
	assert.False(t, ProfileUpdate{Allergies: []string{}}.Empty())
}
