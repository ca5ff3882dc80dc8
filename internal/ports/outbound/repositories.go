// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces the session engine uses to reach local storage and
// the remote recipe, lookup and account services.
package outbound

import (
	"context"
	"io"

	"github.com/snackhack/client/internal/domain/lookup"
	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/domain/user"
)

// PersistedStore is durable key/value storage local to the device.
// Load reports ok=false for keys that were never saved or were cleared.
type PersistedStore interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Clear(ctx context.Context, keys ...string) error
}

// LookupService validates and autocompletes ingredient names while typing
type LookupService interface {
	ValidateIngredient(ctx context.Context, ingredient string) (lookup.ValidationResult, error)
	Autocomplete(ctx context.Context, query string, limit int) ([]lookup.Suggestion, error)
}

// RecipeRequest is the payload of a recipe generation request
type RecipeRequest struct {
	Ingredients        []string `json:"ingredients" validate:"min=1,dive,required"`
	DietaryPreferences string   `json:"dietary_preferences"`
	ServingSize        int      `json:"serving_size" validate:"min=1,max=10"`
}

// RecipeService generates recipes for an ingredient list
type RecipeService interface {
	GetRecipes(ctx context.Context, req RecipeRequest) ([]recipe.Recipe, error)
}

// Image is an uploaded photo of a fridge or pantry
type Image struct {
	Filename string
	Data     io.Reader
}

// IngredientDetector finds ingredient names in a photo
type IngredientDetector interface {
	DetectIngredients(ctx context.Context, image Image) ([]string, error)
}

// AuthHeaderProvider supplies the Authorization header value for requests
// that may be authenticated. An empty string means send no header.
type AuthHeaderProvider interface {
	AuthHeader(ctx context.Context) (string, error)
}

// TokenPair is what the auth service issues on login or registration
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         user.User `json:"user"`
}

// AuthService issues and refreshes tokens and serves the profile
type AuthService interface {
	Login(ctx context.Context, emailOrUsername, password string) (*TokenPair, error)
	Register(ctx context.Context, username, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	Profile(ctx context.Context, accessToken string) (*user.User, error)
	UpdateProfile(ctx context.Context, accessToken string, update user.ProfileUpdate) (*user.User, error)
}

// FavouriteService manages the signed-in user's saved recipes
type FavouriteService interface {
	MyRecipes(ctx context.Context) ([]recipe.Recipe, error)
	FavouriteRecipes(ctx context.Context) ([]recipe.Recipe, error)
	ToggleFavourite(ctx context.Context, id recipe.ID) (isFavourite bool, err error)
	DeleteSavedRecipe(ctx context.Context, id recipe.ID) error
}

// NutritionItem is the nutrition breakdown of one ingredient
type NutritionItem struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein_g"`
	Fat      float64 `json:"fat_total_g"`
	Carbs    float64 `json:"carbohydrates_total_g"`
	Fiber    float64 `json:"fiber_g"`
	Sugar    float64 `json:"sugar_g"`
	Sodium   float64 `json:"sodium_mg"`
}

// NutritionData is the nutrition summary for an ingredient list
type NutritionData struct {
	Items       []NutritionItem `json:"items"`
	ServingSize int             `json:"serving_size"`
}

// NutritionService computes nutrition facts
type NutritionService interface {
	NutritionFacts(ctx context.Context, ingredients []string, servingSize int) (*NutritionData, error)
}
