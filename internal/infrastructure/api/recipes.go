package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/snackhack/client/internal/domain/lookup"
	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/ports/outbound"
	apperrors "github.com/snackhack/client/pkg/errors"
)

type detectResponse struct {
	Ingredients []string `json:"ingredients"`
}

type recipesResponse struct {
	Recipes []recipe.Recipe `json:"recipes"`
}

type validateRequest struct {
	Ingredient string `json:"ingredient"`
}

type validateResponse struct {
	ValidationResult lookup.ValidationResult `json:"validation_result"`
}

type autocompleteResponse struct {
	Suggestions []lookup.Suggestion `json:"suggestions"`
}

type nutritionRequest struct {
	Ingredients []string `json:"ingredients" validate:"min=1,dive,required"`
	ServingSize int      `json:"serving_size" validate:"min=1,max=10"`
}

type nutritionResponse struct {
	NutritionData outbound.NutritionData `json:"nutrition_data"`
}

type toggleRequest struct {
	RecipeID interface{} `json:"recipe_id"`
}

type toggleResponse struct {
	IsFavourite bool `json:"is_favourite"`
}

// DetectIngredients uploads a photo and returns the ingredient names found
func (c *Client) DetectIngredients(ctx context.Context, image outbound.Image) ([]string, error) {
	if image.Data == nil {
		return nil, apperrors.NewValidationError("image is required")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	name := filepath.Base(image.Filename)
	if name == "." || name == "/" {
		name = "upload"
	}
	part, err := form.CreateFormFile("image", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image.Data); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	if c.detectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.detectTimeout)
		defer cancel()
	}

	var resp detectResponse
	err = c.guarded(c.detectBreaker, func() error {
		return c.do(ctx, call{
			endpoint:    EndpointDetect,
			method:      http.MethodPost,
			url:         c.recipesURL(EndpointDetect),
			body:        bytes.NewReader(buf.Bytes()),
			contentType: form.FormDataContentType(),
		}, &resp)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Ingredients detected", zap.Int("count", len(resp.Ingredients)))
	return resp.Ingredients, nil
}

// GetRecipes asks the backend to generate recipes for the ingredient list
func (c *Client) GetRecipes(ctx context.Context, req outbound.RecipeRequest) ([]recipe.Recipe, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var resp recipesResponse
	err := c.guarded(c.recipeBreaker, func() error {
		return c.postJSON(ctx, EndpointGetRecipes, c.recipesURL(EndpointGetRecipes), req, &resp, true)
	})
	if err != nil {
		return nil, err
	}
	return resp.Recipes, nil
}

// ValidateIngredient checks a single ingredient name
func (c *Client) ValidateIngredient(ctx context.Context, ingredient string) (lookup.ValidationResult, error) {
	var resp validateResponse
	if err := c.postJSON(ctx, EndpointValidate, c.recipesURL(EndpointValidate), validateRequest{Ingredient: ingredient}, &resp, false); err != nil {
		return lookup.ValidationResult{}, err
	}
	if resp.ValidationResult.Original == "" {
		resp.ValidationResult.Original = ingredient
	}
	return resp.ValidationResult, nil
}

// Autocomplete returns up to limit suggestions for a prefix
func (c *Client) Autocomplete(ctx context.Context, query string, limit int) ([]lookup.Suggestion, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var resp autocompleteResponse
	err := c.do(ctx, call{
		endpoint: EndpointAutocomplete,
		method:   http.MethodGet,
		url:      c.recipesURL(EndpointAutocomplete) + "?" + params.Encode(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// NutritionFacts fetches the nutrition summary for an ingredient list
func (c *Client) NutritionFacts(ctx context.Context, ingredients []string, servingSize int) (*outbound.NutritionData, error) {
	req := nutritionRequest{Ingredients: ingredients, ServingSize: servingSize}
	if err := c.validate.Struct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var resp nutritionResponse
	if err := c.postJSON(ctx, EndpointNutrition, c.recipesURL(EndpointNutrition), req, &resp, false); err != nil {
		return nil, err
	}
	return &resp.NutritionData, nil
}

// MyRecipes lists every recipe saved by the signed-in user
func (c *Client) MyRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	return c.listRecipes(ctx, EndpointMyRecipes)
}

// FavouriteRecipes lists the signed-in user's favourites
func (c *Client) FavouriteRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	return c.listRecipes(ctx, EndpointFavourites)
}

func (c *Client) listRecipes(ctx context.Context, endpoint string) ([]recipe.Recipe, error) {
	var resp recipesResponse
	err := c.do(ctx, call{
		endpoint:      endpoint,
		method:        http.MethodGet,
		url:           c.recipesURL(endpoint),
		authenticated: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Recipes, nil
}

// ToggleFavourite flips the favourite flag of a saved recipe. The backend
// rejects the call with a QUOTA_EXCEEDED error when the limit is reached.
func (c *Client) ToggleFavourite(ctx context.Context, id recipe.ID) (bool, error) {
	var recipeID interface{} = string(id)
	if n, ok := id.Int(); ok {
		recipeID = n
	}

	var resp toggleResponse
	if err := c.postJSON(ctx, EndpointToggle, c.recipesURL(EndpointToggle), toggleRequest{RecipeID: recipeID}, &resp, true); err != nil {
		return false, err
	}
	return resp.IsFavourite, nil
}

// DeleteSavedRecipe removes a saved recipe
func (c *Client) DeleteSavedRecipe(ctx context.Context, id recipe.ID) error {
	return c.do(ctx, call{
		endpoint:      EndpointSavedRecipe,
		method:        http.MethodDelete,
		url:           c.recipesURL(EndpointSavedRecipe) + "/" + url.PathEscape(string(id)),
		authenticated: true,
	}, nil)
}
