// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"

	"github.com/snackhack/client/internal/domain/lookup"
	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/domain/user"
	"github.com/snackhack/client/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockLookupService provides a mock implementation of LookupService
type MockLookupService struct {
	mock.Mock
}

// ValidateIngredient validates an ingredient name
func (m *MockLookupService) ValidateIngredient(ctx context.Context, ingredient string) (lookup.ValidationResult, error) {
	args := m.Called(ctx, ingredient)
	return args.Get(0).(lookup.ValidationResult), args.Error(1)
}

// Autocomplete returns suggestions for a partial name
func (m *MockLookupService) Autocomplete(ctx context.Context, query string, limit int) ([]lookup.Suggestion, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lookup.Suggestion), args.Error(1)
}

// MockRecipeService provides a mock implementation of RecipeService
type MockRecipeService struct {
	mock.Mock
}

// GetRecipes generates recipes
func (m *MockRecipeService) GetRecipes(ctx context.Context, req outbound.RecipeRequest) ([]recipe.Recipe, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

// MockIngredientDetector provides a mock implementation of IngredientDetector
type MockIngredientDetector struct {
	mock.Mock
}

// DetectIngredients detects ingredients in an image
func (m *MockIngredientDetector) DetectIngredients(ctx context.Context, image outbound.Image) ([]string, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAuthService provides a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, emailOrUsername, password string) (*outbound.TokenPair, error) {
	args := m.Called(ctx, emailOrUsername, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.TokenPair), args.Error(1)
}

// Register creates an account
func (m *MockAuthService) Register(ctx context.Context, username, email, password string) (*outbound.TokenPair, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.TokenPair), args.Error(1)
}

// Refresh exchanges a refresh token for an access token
func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

// Profile fetches the signed-in user
func (m *MockAuthService) Profile(ctx context.Context, accessToken string) (*user.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

// UpdateProfile updates the signed-in user
func (m *MockAuthService) UpdateProfile(ctx context.Context, accessToken string, update user.ProfileUpdate) (*user.User, error) {
	args := m.Called(ctx, accessToken, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

// MockFavouriteService provides a mock implementation of FavouriteService
type MockFavouriteService struct {
	mock.Mock
}

// MyRecipes lists recipes the user generated
func (m *MockFavouriteService) MyRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

// FavouriteRecipes lists favourited recipes
func (m *MockFavouriteService) FavouriteRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

// ToggleFavourite flips the favourite flag of a recipe
func (m *MockFavouriteService) ToggleFavourite(ctx context.Context, id recipe.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// DeleteSavedRecipe removes a saved recipe
func (m *MockFavouriteService) DeleteSavedRecipe(ctx context.Context, id recipe.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNutritionService provides a mock implementation of NutritionService
type MockNutritionService struct {
	mock.Mock
}

// NutritionFacts computes nutrition for an ingredient list
func (m *MockNutritionService) NutritionFacts(ctx context.Context, ingredients []string, servingSize int) (*outbound.NutritionData, error) {
	args := m.Called(ctx, ingredients, servingSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbound.NutritionData), args.Error(1)
}

// LookupCall records one call made to a ScriptedLookup
type LookupCall struct {
	Kind  string
	Query string
}

// ScriptedLookup is a LookupService whose answers are computed by functions
// and whose calls can be held until the test releases them.
type ScriptedLookup struct {
	ValidateFn     func(query string) (lookup.ValidationResult, error)
	AutocompleteFn func(query string) ([]lookup.Suggestion, error)

	mu    sync.Mutex
	calls []LookupCall
	gates map[string]chan struct{}
}

// NewScriptedLookup creates a lookup that echoes the query as a valid
// ingredient and suggests the query itself
func NewScriptedLookup() *ScriptedLookup {
	return &ScriptedLookup{
		ValidateFn: func(q string) (lookup.ValidationResult, error) {
			valid := true
			return lookup.ValidationResult{Original: q, IsValid: &valid, Source: "scripted"}, nil
		},
		AutocompleteFn: func(q string) ([]lookup.Suggestion, error) {
			return []lookup.Suggestion{{Name: q}}, nil
		},
		gates: make(map[string]chan struct{}),
	}
}

// Hold makes calls for query block until Release is called
func (s *ScriptedLookup) Hold(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gates[query] = make(chan struct{})
}

// Release unblocks calls held for query
func (s *ScriptedLookup) Release(query string) {
	s.mu.Lock()
	gate, ok := s.gates[query]
	delete(s.gates, query)
	s.mu.Unlock()
	if ok {
		close(gate)
	}
}

// Calls returns the calls recorded so far
func (s *ScriptedLookup) Calls() []LookupCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LookupCall(nil), s.calls...)
}

func (s *ScriptedLookup) enter(ctx context.Context, kind, query string) error {
	s.mu.Lock()
	s.calls = append(s.calls, LookupCall{Kind: kind, Query: query})
	gate := s.gates[query]
	s.mu.Unlock()

	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ValidateIngredient implements outbound.LookupService
func (s *ScriptedLookup) ValidateIngredient(ctx context.Context, ingredient string) (lookup.ValidationResult, error) {
	if err := s.enter(ctx, "validate", ingredient); err != nil {
		return lookup.ValidationResult{}, err
	}
	return s.ValidateFn(ingredient)
}

// Autocomplete implements outbound.LookupService
func (s *ScriptedLookup) Autocomplete(ctx context.Context, query string, limit int) ([]lookup.Suggestion, error) {
	if err := s.enter(ctx, "autocomplete", query); err != nil {
		return nil, err
	}
	return s.AutocompleteFn(query)
}
