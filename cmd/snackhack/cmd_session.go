package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snackhack/client/internal/domain/session"
	"github.com/snackhack/client/internal/ports/outbound"
	apperrors "github.com/snackhack/client/pkg/errors"
)

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printStatus(cmd.Context())
		},
	}
}

func (c *cli) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new recipe, discarding ingredients and results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.StartNewRecipe(cmd.Context()); err != nil {
				return err
			}
			return c.printStatus(cmd.Context())
		},
	}
}

func (c *cli) moreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "more",
		Short: "Go back from the results to add more ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.AddMoreIngredients(cmd.Context()); err != nil {
				return err
			}
			return c.printStatus(cmd.Context())
		},
	}
}

func (c *cli) homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Return to the landing view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Session.GoHome(cmd.Context())
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <ingredient>...",
		Short: "Add ingredients to the list",
		Long: `Add one or more ingredients. Names are trimmed and lower-cased, and
duplicates are ignored. Quote names that contain spaces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				if err := c.app.Session.AddIngredient(cmd.Context(), raw); err != nil {
					return err
				}
			}
			return c.printIngredients()
		},
	}
}

func (c *cli) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <ingredient>",
		Aliases: []string{"rm"},
		Short:   "Remove an ingredient from the list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.RemoveIngredient(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.printIngredients()
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every ingredient",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.ClearIngredients(cmd.Context()); err != nil {
				return err
			}
			return c.printIngredients()
		},
	}
}

func (c *cli) prefsCmd() *cobra.Command {
	var (
		diet        string
		servings    int
		fromProfile bool
	)
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Set dietary preferences and serving size",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if fromProfile {
				u, err := c.app.Account.Profile(ctx)
				if err != nil {
					return err
				}
				diet = u.DietarySummary()
			}
			if fromProfile || cmd.Flags().Changed("diet") {
				if err := c.app.Session.SetDietaryPreferences(ctx, diet); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("servings") {
				if err := c.app.Session.SetServingSize(ctx, servings); err != nil {
					return err
				}
			}
			st := c.app.Session.State()
			c.printf("Dietary preferences: %s\n", orNone(st.DietaryPreferences))
			c.printf("Servings: %d\n", st.ServingSize)
			return nil
		},
	}
	cmd.Flags().StringVar(&diet, "diet", "", "free-text dietary preferences")
	cmd.Flags().IntVar(&servings, "servings", session.DefaultServingSize,
		fmt.Sprintf("servings (%d-%d)", session.MinServingSize, session.MaxServingSize))
	cmd.Flags().BoolVar(&fromProfile, "from-profile", false, "copy preferences and allergies from the signed-in profile")
	return cmd
}

func (c *cli) randomCmd() *cobra.Command {
	var add bool
	cmd := &cobra.Command{
		Use:   "random [count]",
		Short: "Suggest pantry staples that are not listed yet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 3
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return apperrors.NewValidationError("count must be a number")
				}
				n = v
			}
			picked, err := c.app.Session.SuggestRandom(cmd.Context(), n)
			if err != nil {
				return err
			}
			if len(picked) == 0 {
				c.printf("No suggestions left.\n")
				return nil
			}
			c.printf("Try: %s\n", strings.Join(picked, ", "))
			if !add {
				return nil
			}
			for _, name := range picked {
				if err := c.app.Session.AddIngredient(cmd.Context(), name); err != nil {
					return err
				}
			}
			return c.printIngredients()
		},
	}
	cmd.Flags().BoolVar(&add, "add", false, "add the suggestions to the list")
	return cmd
}

func (c *cli) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <image>",
		Short: "Add the ingredients found in a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			found, err := c.app.Session.DetectIngredients(cmd.Context(), outbound.Image{
				Filename: filepath.Base(args[0]),
				Data:     f,
			})
			if err != nil {
				return err
			}
			c.printf("Detected: %s\n", strings.Join(found, ", "))
			return c.printIngredients()
		},
	}
}

func (c *cli) printStatus(ctx context.Context) error {
	view := c.app.Session.View()
	st := view.State

	c.printf("Mode: %s\n", st.Mode)
	if c.app.Account.SignedIn(ctx) {
		c.printf("Account: signed in\n")
	}
	c.printf("Dietary preferences: %s\n", orNone(st.DietaryPreferences))
	c.printf("Servings: %d\n", st.ServingSize)
	if len(st.RandomIngredients) > 0 {
		c.printf("Suggested: %s\n", strings.Join(st.RandomIngredients, ", "))
	}
	if err := c.printIngredients(); err != nil {
		return err
	}
	if len(st.Recipes) > 0 {
		c.printf("Recipes: %d (see 'snackhack recipes list')\n", len(st.Recipes))
	}
	if view.RequestBlocker != nil {
		c.printf("Get recipes: unavailable (%s)\n", describe(view.RequestBlocker))
	} else {
		c.printf("Get recipes: ready\n")
	}
	return nil
}

func (c *cli) printIngredients() error {
	items := c.app.Session.State().Ingredients.Items()
	if len(items) == 0 {
		c.printf("Ingredients: none\n")
		return nil
	}
	c.printf("Ingredients (%d):\n", len(items))
	for _, name := range items {
		c.printf("  - %s\n", name)
	}
	return nil
}

// report prints a failed command. Guard rejections only mean the action is
// unavailable right now, so they are shown as a notice.
func (c *cli) report(err error) {
	if !blocking(err) {
		c.printf("Not now: %s\n", describe(err))
		return
	}
	c.printf("Error: %s\n", describe(err))
	if c.verbose {
		c.printf("  code: %s\n", apperrors.GetCode(err))
	}
}

// blocking reports whether err deserves a blocking notice. Errors from
// outside the application, such as bad flags, always do.
func blocking(err error) bool {
	var appErr *apperrors.AppError
	return !errors.As(err, &appErr) || appErr.Blocking()
}

// exitStatus is 2 for guard rejections and 1 for every other failure
func exitStatus(err error) int {
	switch {
	case err == nil:
		return 0
	case !blocking(err):
		return 2
	default:
		return 1
	}
}

// describe renders an error for humans, preferring AppError details
func describe(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Details != "" {
		return appErr.Details
	}
	return appErr.Message
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
