// Package account provides the application layer for sign-in, the user's
// saved and favourite recipes, and nutrition facts.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/domain/user"
	"github.com/snackhack/client/internal/ports/inbound"
	"github.com/snackhack/client/internal/ports/outbound"
	apperrors "github.com/snackhack/client/pkg/errors"
	"go.uber.org/zap"
)

// Service implements the account use cases
type Service struct {
	auth       outbound.AuthService
	favourites outbound.FavouriteService
	nutrition  outbound.NutritionService
	tokens     *TokenStore
	sessions   SessionResetter
	validate   *validator.Validate
	logger     *zap.Logger
}

var _ inbound.AccountService = (*Service)(nil)

// SessionResetter starts the ingredient session over. Logout goes through
// it so the live session and the store never disagree.
type SessionResetter interface {
	Reset(ctx context.Context) error
}

type credentials struct {
	Login    string `validate:"required"`
	Password string `validate:"required"`
}

type registration struct {
	Username string `validate:"required,min=3,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type nutritionQuery struct {
	Ingredients []string `validate:"min=1,dive,required"`
	ServingSize int      `validate:"min=1,max=10"`
}

// NewService creates a new account service
func NewService(
	auth outbound.AuthService,
	favourites outbound.FavouriteService,
	nutrition outbound.NutritionService,
	tokens *TokenStore,
	sessions SessionResetter,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		auth:       auth,
		favourites: favourites,
		nutrition:  nutrition,
		tokens:     tokens,
		sessions:   sessions,
		validate:   validator.New(),
		logger:     logger.Named("account"),
	}
}

// Login signs in with an email address or username
func (s *Service) Login(ctx context.Context, emailOrUsername, password string) (*user.User, error) {
	if err := s.validate.Struct(credentials{Login: strings.TrimSpace(emailOrUsername), Password: password}); err != nil {
		return nil, apperrors.NewValidationError("email or username and password are required")
	}

	pair, err := s.auth.Login(ctx, strings.TrimSpace(emailOrUsername), password)
	if err != nil {
		s.logger.Info("Login failed", zap.String("login", emailOrUsername), zap.Error(err))
		return nil, err
	}
	if err := s.tokens.Set(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, apperrors.NewStorageError("store tokens", err)
	}

	s.logger.Info("Signed in", zap.Int64("user_id", pair.User.ID), zap.String("username", pair.User.Username))
	return &pair.User, nil
}

// Register creates an account and signs in
func (s *Service) Register(ctx context.Context, username, email, password string) (*user.User, error) {
	input := registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	pair, err := s.auth.Register(ctx, input.Username, input.Email, password)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Set(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, apperrors.NewStorageError("store tokens", err)
	}

	s.logger.Info("Registered", zap.Int64("user_id", pair.User.ID), zap.String("username", pair.User.Username))
	return &pair.User, nil
}

// Logout forgets the tokens and the whole ingredient session
func (s *Service) Logout(ctx context.Context) error {
	if err := s.tokens.Clear(ctx); err != nil {
		return apperrors.NewStorageError("clear tokens", err)
	}
	if err := s.sessions.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info("Signed out")
	return nil
}

// SignedIn reports whether a usable access token is available
func (s *Service) SignedIn(ctx context.Context) bool {
	token, err := s.tokens.Access(ctx)
	return err == nil && token != ""
}

// Profile fetches the signed-in user
func (s *Service) Profile(ctx context.Context) (*user.User, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.auth.Profile(ctx, token)
}

// UpdatePreferences updates the dietary profile of the signed-in user
func (s *Service) UpdatePreferences(ctx context.Context, update user.ProfileUpdate) (*user.User, error) {
	if update.Empty() {
		return nil, apperrors.NewValidationError("nothing to update")
	}
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.auth.UpdateProfile(ctx, token, update)
}

// MyRecipes lists the recipes generated while signed in
func (s *Service) MyRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	if _, err := s.accessToken(ctx); err != nil {
		return nil, err
	}
	return s.favourites.MyRecipes(ctx)
}

// FavouriteRecipes lists the favourited recipes
func (s *Service) FavouriteRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	if _, err := s.accessToken(ctx); err != nil {
		return nil, err
	}
	return s.favourites.FavouriteRecipes(ctx)
}

// ToggleFavourite flips the favourite flag. The server may refuse with a
// QUOTA_EXCEEDED error carrying the favourite limit.
func (s *Service) ToggleFavourite(ctx context.Context, id recipe.ID) (bool, error) {
	if id == "" {
		return false, apperrors.NewValidationError("recipe id is required")
	}
	if _, err := s.accessToken(ctx); err != nil {
		return false, err
	}

	favourite, err := s.favourites.ToggleFavourite(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeQuotaExceeded) {
			s.logger.Info("Favourite limit reached", zap.String("recipe_id", string(id)))
		}
		return false, err
	}
	return favourite, nil
}

// DeleteSavedRecipe removes a saved recipe
func (s *Service) DeleteSavedRecipe(ctx context.Context, id recipe.ID) error {
	if id == "" {
		return apperrors.NewValidationError("recipe id is required")
	}
	if _, err := s.accessToken(ctx); err != nil {
		return err
	}
	return s.favourites.DeleteSavedRecipe(ctx, id)
}

// NutritionFacts computes nutrition for an ingredient list
func (s *Service) NutritionFacts(ctx context.Context, ingredients []string, servingSize int) (*outbound.NutritionData, error) {
	if err := s.validate.Struct(nutritionQuery{Ingredients: ingredients, ServingSize: servingSize}); err != nil {
		return nil, validationError(err)
	}

	data, err := s.nutrition.NutritionFacts(ctx, ingredients, servingSize)
	if err != nil {
		return nil, err
	}
	if data == nil || len(data.Items) == 0 {
		return nil, apperrors.NewNotFoundError("Nutrition data")
	}
	return data, nil
}

func (s *Service) accessToken(ctx context.Context) (string, error) {
	token, err := s.tokens.Access(ctx)
	if err != nil {
		return "", apperrors.NewStorageError("load tokens", err)
	}
	if token == "" {
		return "", apperrors.NewUnauthorizedError("Please sign in first")
	}
	return token, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		value := fe.Value()
		if fe.Field() == "Password" {
			value = nil
		}
		out = append(out, apperrors.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Value:   value,
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	default:
		return field + " is invalid"
	}
}
