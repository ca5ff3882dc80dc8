package session

import (
	"fmt"

	"github.com/snackhack/client/internal/domain/recipe"
)

// Event is an input to Transition.
type Event interface {
	eventName() string
}

// StartNewRecipe begins a fresh ingredient list.
type StartNewRecipe struct{}

// RecipesFetched carries the result of a successful recipe request.
type RecipesFetched struct {
	Recipes []recipe.Recipe
}

// AddMoreIngredients returns from the results to ingredient entry.
type AddMoreIngredients struct{}

// GoHome returns to the landing view without touching data.
type GoHome struct{}

// AddIngredient adds a raw, not yet normalized, ingredient name.
type AddIngredient struct {
	Raw string
}

// AddIngredients adds several names, for example from photo detection.
type AddIngredients struct {
	Raw []string
}

// RemoveIngredient removes a normalized ingredient name.
type RemoveIngredient struct {
	Name string
}

// ClearIngredients empties the ingredient list and the previous results.
type ClearIngredients struct{}

// SetDietaryPreferences replaces the free-text dietary preferences.
type SetDietaryPreferences struct {
	Value string
}

// SetServingSize changes the number of servings requested.
type SetServingSize struct {
	Value int
}

// SetRandomIngredients replaces the random ingredient suggestions.
type SetRandomIngredients struct {
	Names []string
}

func (StartNewRecipe) eventName() string        { return "start_new_recipe" }
func (RecipesFetched) eventName() string        { return "recipes_fetched" }
func (AddMoreIngredients) eventName() string    { return "add_more_ingredients" }
func (GoHome) eventName() string                { return "go_home" }
func (AddIngredient) eventName() string         { return "add_ingredient" }
func (AddIngredients) eventName() string        { return "add_ingredients" }
func (RemoveIngredient) eventName() string      { return "remove_ingredient" }
func (ClearIngredients) eventName() string      { return "clear_ingredients" }
func (SetDietaryPreferences) eventName() string { return "set_dietary_preferences" }
func (SetServingSize) eventName() string        { return "set_serving_size" }
func (SetRandomIngredients) eventName() string  { return "set_random_ingredients" }

// EventName returns a stable name for logging.
func EventName(e Event) string {
	if e == nil {
		return "nil"
	}
	return e.eventName()
}

// Transition applies event to state and returns the next state. The input
// state is never modified. On error the returned state equals the input.
func Transition(state State, event Event) (State, error) {
	next := state.Clone()

	switch e := event.(type) {
	case StartNewRecipe:
		if state.Mode == ModeAdding {
			return state, invalid(state, event)
		}
		next = NewState()
		next.Mode = ModeAdding

	case RecipesFetched:
		if state.Mode != ModeAdding {
			return state, invalid(state, event)
		}
		next.Recipes = append([]recipe.Recipe{}, e.Recipes...)
		next.Mode = ModeAfterRecipe

	case AddMoreIngredients:
		if state.Mode != ModeAfterRecipe {
			return state, invalid(state, event)
		}
		next.Mode = ModeAdding

	case GoHome:
		if state.Mode == ModeAdding {
			return state, invalid(state, event)
		}
		next.Mode = ModeInitial

	case AddIngredient:
		if state.Mode != ModeAdding {
			return state, invalid(state, event)
		}
		next.Ingredients.Add(e.Raw)

	case AddIngredients:
		if state.Mode != ModeAdding {
			return state, invalid(state, event)
		}
		for _, raw := range e.Raw {
			next.Ingredients.Add(raw)
		}

	case RemoveIngredient:
		if state.Mode != ModeAdding {
			return state, invalid(state, event)
		}
		next.Ingredients.Remove(e.Name)

	case ClearIngredients:
		if state.Mode != ModeAdding {
			return state, invalid(state, event)
		}
		next.Ingredients.Clear()
		next.Recipes = nil

	case SetDietaryPreferences:
		if state.Mode != ModeAdding {
			return state, invalid(state, event)
		}
		next.DietaryPreferences = e.Value

	case SetServingSize:
		if state.Mode != ModeAdding {
			return state, invalid(state, event)
		}
		if !ValidServingSize(e.Value) {
			return state, fmt.Errorf("%w: got %d", ErrInvalidServingSize, e.Value)
		}
		next.ServingSize = e.Value

	case SetRandomIngredients:
		next.RandomIngredients = append([]string(nil), e.Names...)

	default:
		return state, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}

	return next, nil
}

func invalid(state State, event Event) error {
	return fmt.Errorf("%w: %s in mode %s", ErrInvalidTransition, EventName(event), state.Mode)
}
