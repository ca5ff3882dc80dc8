package session

import (
	"encoding/json"
	"testing"

	"github.com/snackhack/client/internal/domain/ingredient"
	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addingState(names ...string) State {
	s := NewState()
	s.Mode = ModeAdding
	s.Ingredients = ingredient.NewSet(names...)
	return s
}

func TestStartNewRecipe_ResetsEverything(t *testing.T) {
	s := NewState()
	s.Mode = ModeAfterRecipe
	s.Ingredients = ingredient.NewSet("egg", "milk")
	s.Recipes = []recipe.Recipe{{Title: "Omelette"}}
	s.DietaryPreferences = "vegetarian"
	s.ServingSize = 4
	s.RandomIngredients = []string{"kale"}

	next, err := Transition(s, StartNewRecipe{})
	require.NoError(t, err)

	assert.Equal(t, ModeAdding, next.Mode)
	assert.Zero(t, next.Ingredients.Len())
	assert.Empty(t, next.Recipes)
	assert.Empty(t, next.DietaryPreferences)
	assert.Equal(t, 1, next.ServingSize)
	assert.Empty(t, next.RandomIngredients)

	// input untouched
	assert.Equal(t, 2, s.Ingredients.Len())
	assert.Equal(t, ModeAfterRecipe, s.Mode)
}

func TestRecipesFetched_AdvancesFromAdding(t *testing.T) {
	s := addingState("egg", "milk", "flour", "sugar")

	next, err := Transition(s, RecipesFetched{Recipes: []recipe.Recipe{{Title: "Crepes"}}})
	require.NoError(t, err)

	assert.Equal(t, ModeAfterRecipe, next.Mode)
	assert.Len(t, next.Recipes, 1)
	assert.True(t, next.Ingredients.Equal(s.Ingredients))
}

func TestAddMoreIngredients_KeepsData(t *testing.T) {
	s := addingState("egg")
	s.Mode = ModeAfterRecipe
	s.Recipes = []recipe.Recipe{{Title: "Boiled egg"}}

	next, err := Transition(s, AddMoreIngredients{})
	require.NoError(t, err)

	assert.Equal(t, ModeAdding, next.Mode)
	assert.Equal(t, []string{"egg"}, next.Ingredients.Items())
	assert.Len(t, next.Recipes, 1)
}

func TestGoHome(t *testing.T) {
	for _, from := range []Mode{ModeInitial, ModeAfterRecipe} {
		s := addingState("egg")
		s.Mode = from

		next, err := Transition(s, GoHome{})
		require.NoError(t, err)
		assert.Equal(t, ModeInitial, next.Mode)
		assert.Equal(t, []string{"egg"}, next.Ingredients.Items())
	}
}

func TestTransition_RejectsEventsOutsideTheirMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		event Event
	}{
		{"StartNewWhileAdding", ModeAdding, StartNewRecipe{}},
		{"FetchedFromInitial", ModeInitial, RecipesFetched{}},
		{"AddMoreFromAdding", ModeAdding, AddMoreIngredients{}},
		{"GoHomeWhileAdding", ModeAdding, GoHome{}},
		{"AddIngredientOnLanding", ModeInitial, AddIngredient{Raw: "egg"}},
		{"ClearOnResults", ModeAfterRecipe, ClearIngredients{}},
		{"PreferencesOnLanding", ModeInitial, SetDietaryPreferences{Value: "vegan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := addingState("egg")
			s.Mode = tt.mode

			next, err := Transition(s, tt.event)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.mode, next.Mode)
			assert.Empty(t, Changed(s, next))
		})
	}
}

func TestIngredientEvents(t *testing.T) {
	s := addingState()

	s, err := Transition(s, AddIngredient{Raw: "  Tomato "})
	require.NoError(t, err)
	s, err = Transition(s, AddIngredient{Raw: "tomato"})
	require.NoError(t, err)
	s, err = Transition(s, AddIngredients{Raw: []string{"Cheese", "bread", "TOMATO"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"tomato", "cheese", "bread"}, s.Ingredients.Items())

	s, err = Transition(s, RemoveIngredient{Name: "cheese"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tomato", "bread"}, s.Ingredients.Items())

	s.Recipes = []recipe.Recipe{{Title: "Bruschetta"}}
	s, err = Transition(s, ClearIngredients{})
	require.NoError(t, err)
	assert.Zero(t, s.Ingredients.Len())
	assert.Empty(t, s.Recipes)
}

func TestSetServingSize_Bounds(t *testing.T) {
	s := addingState()

	next, err := Transition(s, SetServingSize{Value: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, next.ServingSize)

	for _, bad := range []int{0, -1, 11} {
		_, err := Transition(s, SetServingSize{Value: bad})
		assert.ErrorIs(t, err, ErrInvalidServingSize)
	}
}

func TestSetRandomIngredients_AnyMode(t *testing.T) {
	next, err := Transition(NewState(), SetRandomIngredients{Names: []string{"leek"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"leek"}, next.RandomIngredients)
}

func TestTransition_UnknownEvent(t *testing.T) {
	_, err := Transition(NewState(), nil)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestChanged(t *testing.T) {
	before := addingState("egg")
	after := before.Clone()
	assert.Empty(t, Changed(before, after))

	after.Ingredients.Add("milk")
	after.ServingSize = 3
	after.Mode = ModeAfterRecipe
	assert.Equal(t, []Field{FieldIngredients, FieldMode, FieldServingSize}, Changed(before, after))
}

func TestMode_TextRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeInitial, ModeAdding, ModeAfterRecipe} {
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var back Mode
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, m, back)
	}

	var m Mode
	assert.Error(t, json.Unmarshal([]byte(`"sideways"`), &m))
	_, err := json.Marshal(Mode(7))
	assert.Error(t, err)
}
