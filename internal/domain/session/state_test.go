package session

import (
	"testing"

	"github.com/snackhack/client/internal/domain/ingredient"
	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
)

func TestStorageKey(t *testing.T) {
	keys := make([]string, 0, len(AllFields))
	for _, f := range AllFields {
		keys = append(keys, f.StorageKey("app_"))
	}
	assert.Equal(t, []string{
		"app_ingredients",
		"app_recipes",
		"app_mode",
		"app_dietary_preferences",
		"app_serving_size",
		"app_random_ingredients",
	}, keys)
	assert.Equal(t, "mode", FieldMode.StorageKey(""))
}

func TestChanged_EveryField(t *testing.T) {
	before := addingState("egg")

	t.Run("nothing", func(t *testing.T) {
		assert.Empty(t, Changed(before, before.Clone()))
	})

	t.Run("nil and empty sets are equal", func(t *testing.T) {
		a, b := NewState(), NewState()
		a.Ingredients = nil
		assert.Empty(t, Changed(a, b))
	})

	t.Run("each field", func(t *testing.T) {
		after := before.Clone()
		after.Ingredients = ingredient.NewSet("egg", "ham")
		after.Recipes = []recipe.Recipe{{ID: "1"}}
		after.Mode = ModeAfterRecipe
		after.DietaryPreferences = "vegan"
		after.ServingSize = 3
		after.RandomIngredients = []string{"fig"}

		assert.Equal(t, AllFields, Changed(before, after))
	})
}
