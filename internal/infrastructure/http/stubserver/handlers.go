package stubserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/snackhack/client/internal/infrastructure/http/middleware"
	apperrors "github.com/snackhack/client/pkg/errors"
)

const maxUpload = 10 << 20

var detectedIngredients = []string{"tomato", "cheese", "bread", "lettuce"}

func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	middleware.WriteJSON(w, err.StatusCode(), apperrors.ToErrorResponse(err))
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, apperrors.NewBadRequestError("No data provided"))
		return false
	}
	return true
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	return path[strings.LastIndex(path, "/")+1:]
}

type tokenBody struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	User         account `json:"user"`
}

func (s *Server) tokenResponse(w http.ResponseWriter, status int, message string, u account) {
	access, refresh, err := s.tokens.pair(u.ID)
	if err != nil {
		s.logger.Error("Token creation failed", zap.Error(err))
		writeError(w, apperrors.NewInternalError("Token creation failed"))
		return
	}
	middleware.WriteJSON(w, status, map[string]interface{}{
		"message": message,
		"tokens":  tokenBody{AccessToken: access, RefreshToken: refresh, User: u},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, apperrors.NewBadRequestError("Email, username, and password are required"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, apperrors.NewBadRequestError("Invalid email address"))
		return
	}

	u, err := s.state.register(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, apperrors.NewBadRequestError(err.Error()))
		return
	}
	s.tokenResponse(w, http.StatusCreated, "User registered successfully", u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailOrUsername string `json:"email_or_username"`
		Password        string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.EmailOrUsername) == "" || req.Password == "" {
		writeError(w, apperrors.NewBadRequestError("Email/username and password are required"))
		return
	}

	u, err := s.state.authenticate(strings.TrimSpace(req.EmailOrUsername), req.Password)
	if err != nil {
		writeError(w, apperrors.NewUnauthorizedError(err.Error()))
		return
	}
	s.tokenResponse(w, http.StatusOK, "Login successful", u)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	u, err := s.state.user(userID)
	if err != nil {
		writeError(w, apperrors.NewUnauthorizedError(err.Error()))
		return
	}
	access, err := s.tokens.issue(userID, KindAccess)
	if err != nil {
		writeError(w, apperrors.NewInternalError("Token refresh failed"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"access_token": access, "user": u})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	u, err := s.state.user(userID)
	if err != nil {
		writeError(w, apperrors.NewNotFoundError("User"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": u})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd profileUpdate
	if !decode(w, r, &upd) {
		return
	}
	if upd.DietaryPreferences == nil && upd.Allergies == nil && upd.FavoriteCuisines == nil {
		writeError(w, apperrors.NewBadRequestError("No valid fields to update"))
		return
	}

	userID, _ := middleware.UserID(r.Context())
	u, err := s.state.updateProfile(userID, upd)
	if err != nil {
		writeError(w, apperrors.NewNotFoundError("User"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "Profile updated successfully", "user": u})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, apperrors.NewBadRequestError("No image provided"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, apperrors.NewBadRequestError("No image provided"))
		return
	}
	defer file.Close()

	s.logger.Debug("Image received", zap.String("filename", header.Filename), zap.Int64("size", header.Size))
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"ingredients": detectedIngredients})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredient string `json:"ingredient"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Ingredient) == "" {
		writeError(w, apperrors.NewBadRequestError("Ingredient is required"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"validation_result": validate(req.Ingredient)})
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": autocomplete(r.URL.Query().Get("q"), limit),
	})
}

type nutritionItem struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein_g"`
	Fat      float64 `json:"fat_total_g"`
	Carbs    float64 `json:"carbohydrates_total_g"`
	Fiber    float64 `json:"fiber_g"`
	Sugar    float64 `json:"sugar_g"`
	Sodium   float64 `json:"sodium_mg"`
}

// nutritionFor derives stable per-100g figures from the ingredient name
func nutritionFor(name string) nutritionItem {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	seed := float64(h.Sum32() % 1000)
	round := func(v float64) float64 { return math.Round(v*10) / 10 }
	return nutritionItem{
		Name:     name,
		Calories: round(20 + seed*0.3),
		Protein:  round(seed / 50),
		Fat:      round(seed / 80),
		Carbs:    round(seed / 30),
		Fiber:    round(seed / 200),
		Sugar:    round(seed / 120),
		Sodium:   round(seed / 4),
	}
}

func (s *Server) handleNutrition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []string `json:"ingredients"`
		ServingSize int      `json:"serving_size"`
	}
	if !decode(w, r, &req) {
		return
	}
	if len(req.Ingredients) == 0 {
		writeError(w, apperrors.NewBadRequestError("Ingredients are required"))
		return
	}
	if req.ServingSize <= 0 {
		req.ServingSize = 1
	}

	items := make([]nutritionItem, 0, len(req.Ingredients))
	for _, name := range req.Ingredients {
		if name = strings.TrimSpace(name); name != "" {
			items = append(items, nutritionFor(name))
		}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"nutrition_data": map[string]interface{}{"items": items, "serving_size": req.ServingSize},
	})
}

var recipeStyles = []struct {
	title string
	steps []string
}{
	{"Skillet", []string{
		"Heat a large skillet over medium heat with a splash of oil.",
		"Add the firmest ingredients first and cook for five minutes.",
		"Stir in the remaining ingredients and season to taste.",
		"Cook until everything is tender, then serve hot.",
	}},
	{"Traybake", []string{
		"Preheat the oven to 200C and line a baking tray.",
		"Chop everything into even pieces and toss with oil and salt.",
		"Spread on the tray and roast for 25 minutes, turning once.",
		"Rest for two minutes before serving.",
	}},
	{"Bowl", []string{
		"Prepare each ingredient separately so it keeps its texture.",
		"Whisk a quick dressing from oil, acid and a pinch of salt.",
		"Arrange everything in bowls and spoon over the dressing.",
		"Finish with fresh herbs and serve.",
	}},
}

func buildRecipe(style int, ingredients []string, servings int, dietary string, truncated bool) (string, string) {
	rs := recipeStyles[style%len(recipeStyles)]
	title := fmt.Sprintf("%s %s", capitalize(ingredients[0]), rs.title)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Serves %d.", servings)
	if dietary != "" {
		fmt.Fprintf(&b, " Suitable for: %s.", dietary)
	}
	b.WriteString("\n\n## Ingredients\n\n")
	for _, ing := range ingredients {
		fmt.Fprintf(&b, "- %s\n", ing)
	}
	if truncated {
		return title, b.String()
	}
	b.WriteString("\n## Instructions\n\n")
	for i, step := range rs.steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return title, b.String()
}

func (s *Server) handleGetRecipes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients        []string `json:"ingredients"`
		DietaryPreferences string   `json:"dietary_preferences"`
		ServingSize        int      `json:"serving_size"`
	}
	if !decode(w, r, &req) {
		return
	}
	ingredients := make([]string, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			ingredients = append(ingredients, ing)
		}
	}
	if len(ingredients) == 0 {
		writeError(w, apperrors.NewBadRequestError("Ingredients are required"))
		return
	}
	if req.ServingSize <= 0 {
		req.ServingSize = 2
	}

	userID, signedIn := middleware.UserID(r.Context())
	recipes := make([]map[string]interface{}, 0, len(recipeStyles))
	for i := range recipeStyles {
		title, markdown := buildRecipe(i, ingredients, req.ServingSize, req.DietaryPreferences, s.truncate)
		out := map[string]interface{}{"title": title, "markdown_content": markdown}
		if signedIn {
			saved := s.state.save(userID, title, markdown)
			out["id"] = saved.ID
			out["is_saved"] = false
		}
		recipes = append(recipes, out)
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"recipes": recipes})
}

func (s *Server) handleMyRecipes(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"recipes": s.state.list(userID, false)})
}

func (s *Server) handleFavourites(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"recipes": s.state.list(userID, true)})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipeID json.Number `json:"recipe_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	id, err := req.RecipeID.Int64()
	if err != nil {
		writeError(w, apperrors.NewBadRequestError("recipe_id is required"))
		return
	}

	userID, _ := middleware.UserID(r.Context())
	favourite, err := s.state.toggle(userID, id)
	switch {
	case errors.Is(err, errFavouriteLimit):
		writeError(w, apperrors.NewQuotaExceededError("favourite recipes", s.cfg.MaxFavourites))
	case err != nil:
		writeError(w, apperrors.NewNotFoundError("Recipe"))
	default:
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"is_favourite": favourite})
	}
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apperrors.NewBadRequestError("invalid recipe id"))
		return
	}
	userID, _ := middleware.UserID(r.Context())
	if err := s.state.remove(userID, id); err != nil {
		writeError(w, apperrors.NewNotFoundError("Recipe"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Recipe deleted successfully"})
}
