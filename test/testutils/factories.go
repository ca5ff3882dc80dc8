// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/snackhack/client/internal/domain/recipe"
)

// IngredientFactory produces ingredient names, clean or deliberately messy
type IngredientFactory struct {
	faker *gofakeit.Faker
}

// NewIngredientFactory creates a new ingredient factory with seeded faker
func NewIngredientFactory(seed int64) *IngredientFactory {
	return &IngredientFactory{
		faker: gofakeit.New(seed),
	}
}

// Name returns a random fruit or vegetable name
func (f *IngredientFactory) Name() string {
	if f.faker.Bool() {
		return f.faker.Fruit()
	}
	return f.faker.Vegetable()
}

// Names returns n distinct normalized names
func (f *IngredientFactory) Names(n int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for attempts := 0; len(out) < n && attempts < n*50; attempts++ {
		name := strings.ToLower(strings.TrimSpace(f.Name()))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	for i := len(out); i < n; i++ {
		out = append(out, fmt.Sprintf("ingredient %d", i))
	}
	return out
}

// MessyNames returns n raw inputs: random casing, padding, blanks and repeats
func (f *IngredientFactory) MessyNames(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		switch f.faker.Number(0, 9) {
		case 0:
			out = append(out, strings.Repeat(" ", f.faker.Number(0, 3)))
		case 1, 2:
			if len(out) > 0 {
				out = append(out, strings.ToUpper(out[f.faker.Number(0, len(out)-1)]))
				continue
			}
			fallthrough
		default:
			name := f.Name()
			if f.faker.Bool() {
				name = strings.ToUpper(name)
			}
			pad := strings.Repeat(" ", f.faker.Number(0, 2))
			out = append(out, pad+name+pad+"\t")
		}
	}
	return out
}

// RecipeFactory builds recipes whose markdown is complete or truncated
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Complete returns a recipe that passes the completeness heuristic
func (f *RecipeFactory) Complete(ingredients ...string) recipe.Recipe {
	if len(ingredients) == 0 {
		ingredients = NewIngredientFactory(f.faker.Int64()).Names(4)
	}

	var b strings.Builder
	title := strings.TrimSuffix(f.faker.Sentence(3), ".")
	fmt.Fprintf(&b, "# %s\n\n%s\n\n## Ingredients\n", title, f.faker.Sentence(12))
	for _, ing := range ingredients {
		fmt.Fprintf(&b, "- %d %s\n", f.faker.Number(1, 4), ing)
	}
	b.WriteString("\n## Instructions\n")
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, "%d. %s\n", i, f.faker.Sentence(10))
	}

	return recipe.Recipe{Title: title, MarkdownContent: b.String()}
}

// Truncated returns a recipe cut off before the instructions
func (f *RecipeFactory) Truncated() recipe.Recipe {
	r := f.Complete()
	cut := strings.Index(r.MarkdownContent, "## Instructions")
	r.MarkdownContent = r.MarkdownContent[:cut]
	return r
}
