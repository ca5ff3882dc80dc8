package session

import (
	"github.com/snackhack/client/internal/domain/ingredient"
	"github.com/snackhack/client/internal/domain/recipe"
)

// Serving size bounds offered by the preference form.
const (
	MinServingSize     = 1
	MaxServingSize     = 10
	DefaultServingSize = MinServingSize
)

// State is the single unit of persistence for the session.
type State struct {
	Ingredients        *ingredient.Set
	Recipes            []recipe.Recipe
	Mode               Mode
	DietaryPreferences string
	ServingSize        int
	RandomIngredients  []string
}

// NewState returns the state of a session that has never been used.
func NewState() State {
	return State{
		Ingredients: ingredient.NewSet(),
		Mode:        ModeInitial,
		ServingSize: DefaultServingSize,
	}
}

// Clone returns a deep copy so transitions never alias the caller's state.
func (s State) Clone() State {
	out := s
	if s.Ingredients != nil {
		out.Ingredients = s.Ingredients.Clone()
	} else {
		out.Ingredients = ingredient.NewSet()
	}
	if s.Recipes != nil {
		out.Recipes = append([]recipe.Recipe(nil), s.Recipes...)
	}
	if s.RandomIngredients != nil {
		out.RandomIngredients = append([]string(nil), s.RandomIngredients...)
	}
	return out
}

// ValidServingSize reports whether n is inside the offered range.
func ValidServingSize(n int) bool {
	return n >= MinServingSize && n <= MaxServingSize
}

// Field names one independently persisted part of State.
type Field int

const (
	FieldIngredients Field = iota
	FieldRecipes
	FieldMode
	FieldDietaryPreferences
	FieldServingSize
	FieldRandomIngredients
)

// AllFields lists every persisted field in storage order.
var AllFields = []Field{
	FieldIngredients,
	FieldRecipes,
	FieldMode,
	FieldDietaryPreferences,
	FieldServingSize,
	FieldRandomIngredients,
}

// Key returns the un-namespaced storage key of the field.
func (f Field) Key() string {
	switch f {
	case FieldIngredients:
		return "ingredients"
	case FieldRecipes:
		return "recipes"
	case FieldMode:
		return "mode"
	case FieldDietaryPreferences:
		return "dietary_preferences"
	case FieldServingSize:
		return "serving_size"
	case FieldRandomIngredients:
		return "random_ingredients"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer.
func (f Field) String() string {
	return f.Key()
}

// Changed lists the fields that differ between before and after.
func Changed(before, after State) []Field {
	var fields []Field
	if !sameSet(before.Ingredients, after.Ingredients) {
		fields = append(fields, FieldIngredients)
	}
	if !sameRecipes(before.Recipes, after.Recipes) {
		fields = append(fields, FieldRecipes)
	}
	if before.Mode != after.Mode {
		fields = append(fields, FieldMode)
	}
	if before.DietaryPreferences != after.DietaryPreferences {
		fields = append(fields, FieldDietaryPreferences)
	}
	if before.ServingSize != after.ServingSize {
		fields = append(fields, FieldServingSize)
	}
	if !sameStrings(before.RandomIngredients, after.RandomIngredients) {
		fields = append(fields, FieldRandomIngredients)
	}
	return fields
}

func sameSet(a, b *ingredient.Set) bool {
	if a == nil || b == nil {
		return (a == nil || a.Len() == 0) && (b == nil || b.Len() == 0)
	}
	return a.Equal(b)
}

func sameRecipes(a, b []recipe.Recipe) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Title != b[i].Title ||
			a[i].MarkdownContent != b[i].MarkdownContent || a[i].IsSaved != b[i].IsSaved {
			return false
		}
	}
	return true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// StorageKey returns the namespaced key the field is persisted under.
func (f Field) StorageKey(namespace string) string {
	return namespace + f.Key()
}
