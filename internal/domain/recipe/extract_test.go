package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIngredients(t *testing.T) {
	assert.Equal(t,
		[]string{"200g spaghetti", "3 ripe tomatoes", "a handful of basil", "2 cloves garlic"},
		ExtractIngredients(fullRecipe),
	)
}

func TestExtractIngredients_Subsections(t *testing.T) {
	md := `# Curry
## Ingredients
### For the paste
* **2** chillies
* [x] ginger
### For the curry
1. coconut milk
## Instructions
1. Blend the paste.
`
	assert.Equal(t, []string{"2 chillies", "ginger", "coconut milk"}, ExtractIngredients(md))
}

func TestExtractIngredients_NoSection(t *testing.T) {
	assert.Empty(t, ExtractIngredients("# Toast\nJust toast it.\n1. Toast."))
}
