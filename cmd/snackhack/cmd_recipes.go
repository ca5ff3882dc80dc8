package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/ports/inbound"
	apperrors "github.com/snackhack/client/pkg/errors"
)

func (c *cli) recipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Ask for recipes using the current ingredients",
		Long: `Sends the ingredient list, dietary preferences and serving size to the
recipe backend. Needs at least the configured minimum number of
ingredients, and is refused while a request is running or during the
cool-down after the previous one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printf("Generating recipes...\n")
			result, err := c.app.Session.RequestRecipes(cmd.Context())
			if err != nil {
				return err
			}
			c.printFetch(result)
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the recipes from the last request",
			RunE: func(cmd *cobra.Command, args []string) error {
				recipes := c.app.Session.State().Recipes
				if len(recipes) == 0 {
					c.printf("No recipes yet.\n")
					return nil
				}
				c.printRecipeList(recipes)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <number>",
			Short: "Print one recipe",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				r, err := c.recipeAt(args[0])
				if err != nil {
					return err
				}
				c.printf("%s\n", strings.TrimSpace(r.MarkdownContent))
				if !recipe.IsComplete(r) {
					c.printf("\n(this recipe looks unfinished)\n")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "use <number>",
			Short: "Add a recipe's ingredients to the list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				i, err := recipeIndex(args[0])
				if err != nil {
					return err
				}
				added, err := c.app.Session.AddIngredientsFromRecipe(cmd.Context(), i)
				if err != nil {
					return err
				}
				c.printf("Added %d ingredients from recipe %d.\n", len(added), i+1)
				return c.printIngredients()
			},
		},
	)
	return cmd
}

func (c *cli) printFetch(result *inbound.FetchResult) {
	if result.Incomplete {
		c.printf("Warning: the recipes may be incomplete. Try again for better results.\n")
	}
	c.printRecipeList(result.Recipes)
	c.printf("(%s)\n", result.Duration.Round(1e6))
}

func (c *cli) printRecipeList(recipes []recipe.Recipe) {
	for i, r := range recipes {
		title := r.Title
		if title == "" {
			title = "Untitled recipe"
		}
		var marks []string
		if r.IsSaved {
			marks = append(marks, "saved")
		}
		if r.ID != "" {
			marks = append(marks, "id "+string(r.ID))
		}
		if !recipe.IsComplete(r) {
			marks = append(marks, "incomplete")
		}
		line := strconv.Itoa(i+1) + ". " + title
		if len(marks) > 0 {
			line += " [" + strings.Join(marks, ", ") + "]"
		}
		c.printf("%s\n", line)
	}
}

func (c *cli) recipeAt(arg string) (recipe.Recipe, error) {
	i, err := recipeIndex(arg)
	if err != nil {
		return recipe.Recipe{}, err
	}
	recipes := c.app.Session.State().Recipes
	if i >= len(recipes) {
		return recipe.Recipe{}, apperrors.NewNotFoundError("Recipe")
	}
	return recipes[i], nil
}

// recipeIndex converts a 1-based number from the command line
func recipeIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, apperrors.NewValidationError("recipe number must be 1 or more")
	}
	return n - 1, nil
}
