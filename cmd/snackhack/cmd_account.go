package main

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/domain/user"
	apperrors "github.com/snackhack/client/pkg/errors"
)

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email-or-username>",
		Short: "Sign in",
		Long:  `Sign in with an email address or username. Without --password the password is read from standard input.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := c.password(password)
			if err != nil {
				return err
			}
			u, err := c.app.Account.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			c.printf("Signed in as %s.\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := c.password(password)
			if err != nil {
				return err
			}
			u, err := c.app.Account.Register(cmd.Context(), args[0], args[1], pw)
			if err != nil {
				return err
			}
			c.printf("Welcome, %s.\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password (at least 8 characters)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Account.Logout(cmd.Context()); err != nil {
				return err
			}
			c.printf("Signed out.\n")
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var diets, allergies, cuisines []string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var update user.ProfileUpdate
			if cmd.Flags().Changed("diet") {
				update.DietaryPreferences = diets
			}
			if cmd.Flags().Changed("allergy") {
				update.Allergies = allergies
			}
			if cmd.Flags().Changed("cuisine") {
				update.FavoriteCuisines = cuisines
			}

			var (
				u   *user.User
				err error
			)
			if update.Empty() {
				u, err = c.app.Account.Profile(ctx)
			} else {
				u, err = c.app.Account.UpdatePreferences(ctx, update)
			}
			if err != nil {
				return err
			}

			c.printf("Username: %s\n", u.Username)
			c.printf("Email: %s\n", u.Email)
			c.printf("Dietary preferences: %s\n", orNone(strings.Join(u.DietaryPreferences, ", ")))
			c.printf("Allergies: %s\n", orNone(strings.Join(u.Allergies, ", ")))
			c.printf("Favourite cuisines: %s\n", orNone(strings.Join(u.FavoriteCuisines, ", ")))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&diets, "diet", nil, "dietary preferences")
	cmd.Flags().StringSliceVar(&allergies, "allergy", nil, "allergies")
	cmd.Flags().StringSliceVar(&cuisines, "cuisine", nil, "favourite cuisines")
	return cmd
}

func (c *cli) favouritesCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "favourites",
		Aliases: []string{"favorites", "saved"},
		Short:   "List favourite recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				recipes []recipe.Recipe
				err     error
			)
			if all {
				recipes, err = c.app.Account.MyRecipes(cmd.Context())
			} else {
				recipes, err = c.app.Account.FavouriteRecipes(cmd.Context())
			}
			if err != nil {
				return err
			}
			if len(recipes) == 0 {
				c.printf("Nothing saved yet.\n")
				return nil
			}
			c.printRecipeList(recipes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every saved recipe, not just favourites")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "toggle <recipe-id>",
			Short: "Mark or unmark a saved recipe as favourite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fav, err := c.app.Account.ToggleFavourite(cmd.Context(), recipe.ID(args[0]))
				if err != nil {
					if apperrors.Is(err, apperrors.CodeQuotaExceeded) {
						c.printf("You have reached the favourite limit.\n")
					}
					return err
				}
				if fav {
					c.printf("Added to favourites.\n")
				} else {
					c.printf("Removed from favourites.\n")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <recipe-id>",
			Short: "Delete a saved recipe",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.app.Account.DeleteSavedRecipe(cmd.Context(), recipe.ID(args[0])); err != nil {
					return err
				}
				c.printf("Deleted.\n")
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) nutritionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nutrition [ingredient]...",
		Short: "Show nutrition facts for the listed ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := c.app.Session.State()
			ingredients := args
			if len(ingredients) == 0 {
				ingredients = st.Ingredients.Items()
			}
			data, err := c.app.Account.NutritionFacts(cmd.Context(), ingredients, st.ServingSize)
			if err != nil {
				return err
			}

			var total float64
			c.printf("Nutrition for %d serving(s):\n", data.ServingSize)
			for _, item := range data.Items {
				total += item.Calories
				c.printf("  %-20s %7.1f kcal  protein %5.1fg  fat %5.1fg  carbs %5.1fg\n",
					item.Name, item.Calories, item.Protein, item.Fat, item.Carbs)
			}
			c.printf("  %-20s %7.1f kcal\n", "total", total)
			return nil
		},
	}
}

// password returns the flag value or the first line of standard input
func (c *cli) password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	scanner := bufio.NewScanner(c.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", apperrors.NewValidationError("password is required")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}
