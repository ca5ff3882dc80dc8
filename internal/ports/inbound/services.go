// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the CLI and any other UI
package inbound

import (
	"context"
	"time"

	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/domain/session"
	"github.com/snackhack/client/internal/domain/user"
	"github.com/snackhack/client/internal/ports/outbound"
)

// SessionService defines the ingredient-entry session use cases
type SessionService interface {
	// Mode changes
	StartNewRecipe(ctx context.Context) error
	AddMoreIngredients(ctx context.Context) error
	GoHome(ctx context.Context) error
	Reset(ctx context.Context) error

	// Ingredient list
	AddIngredient(ctx context.Context, raw string) error
	ConfirmInput(ctx context.Context) (string, error)
	RemoveIngredient(ctx context.Context, name string) error
	ClearIngredients(ctx context.Context) error
	DetectIngredients(ctx context.Context, image outbound.Image) ([]string, error)
	AddIngredientsFromRecipe(ctx context.Context, index int) ([]string, error)

	// Preferences and suggestions
	SetDietaryPreferences(ctx context.Context, value string) error
	SetServingSize(ctx context.Context, n int) error
	SuggestRandom(ctx context.Context, n int) ([]string, error)

	// Recipes
	CanRequestRecipes() error
	RequestRecipes(ctx context.Context) (*FetchResult, error)

	// Queries
	View() SessionView
}

// FetchResult is the outcome of a successful recipe request
type FetchResult struct {
	Recipes []recipe.Recipe
	// Incomplete is set when no returned recipe passed the completeness
	// check. It drives a warning banner, not an error.
	Incomplete bool
	// IncompleteIndexes lists the individual recipes that failed the check.
	IncompleteIndexes []int
	Duration          time.Duration
}

// SessionView is the render-ready projection of the session
type SessionView struct {
	State             session.State
	RequestInFlight   bool
	CooldownRemaining time.Duration
	// RequestBlocker is nil when recipes can be requested right now.
	RequestBlocker   error
	IncompleteBanner bool
}

// AccountService defines the account, favourite and nutrition use cases
type AccountService interface {
	Login(ctx context.Context, emailOrUsername, password string) (*user.User, error)
	Register(ctx context.Context, username, email, password string) (*user.User, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*user.User, error)
	UpdatePreferences(ctx context.Context, update user.ProfileUpdate) (*user.User, error)
	SignedIn(ctx context.Context) bool

	MyRecipes(ctx context.Context) ([]recipe.Recipe, error)
	FavouriteRecipes(ctx context.Context) ([]recipe.Recipe, error)
	ToggleFavourite(ctx context.Context, id recipe.ID) (bool, error)
	DeleteSavedRecipe(ctx context.Context, id recipe.ID) error

	NutritionFacts(ctx context.Context, ingredients []string, servingSize int) (*outbound.NutritionData, error)
}
