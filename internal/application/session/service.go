// Package session provides the application layer for the ingredient-entry
// session. The Machine owns the session state, mirrors every field change
// into the persisted store and guards the recipe request.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/snackhack/client/internal/domain/ingredient"
	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/domain/session"
	"github.com/snackhack/client/internal/ports/inbound"
	"github.com/snackhack/client/internal/ports/outbound"
	apperrors "github.com/snackhack/client/pkg/errors"
	"go.uber.org/zap"
)

// Config holds the session rules
type Config struct {
	MinIngredients    int
	Cooldown          time.Duration
	CompletenessDelay time.Duration
	KeyNamespace      string
}

// DefaultConfig returns the production rules
func DefaultConfig() Config {
	return Config{
		MinIngredients:    4,
		Cooldown:          5 * time.Second,
		CompletenessDelay: time.Second,
		KeyNamespace:      "app_",
	}
}

// Recorder receives recipe request events for metrics
type Recorder interface {
	RecipeRequestSettled(outcome string, elapsed time.Duration)
	RecipeGuardRejected(code string)
	IncompleteRecipes(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecipeRequestSettled(string, time.Duration) {}
func (nopRecorder) RecipeGuardRejected(string)                 {}
func (nopRecorder) IncompleteRecipes(int)                      {}

// InputField is the free-text ingredient field the machine confirms from
type InputField interface {
	Confirm() (string, bool)
	Reset()
}

// Option configures the machine
type Option func(*Machine)

// WithClock replaces the wall clock used for the cool-down
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(m *Machine) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithInput attaches the typeahead field used by ConfirmInput
func WithInput(field InputField) Option {
	return func(m *Machine) { m.input = field }
}

// WithDetector attaches the photo ingredient detector
func WithDetector(d outbound.IngredientDetector) Option {
	return func(m *Machine) { m.detector = d }
}

// WithRand sets the source for random suggestions
func WithRand(r *rand.Rand) Option {
	return func(m *Machine) { m.rng = r }
}

// Machine implements the session use cases
type Machine struct {
	cfg      Config
	store    outbound.PersistedStore
	recipes  outbound.RecipeService
	detector outbound.IngredientDetector
	input    InputField
	validate *validator.Validate
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
	rng      *rand.Rand

	mu         sync.Mutex
	state      session.State
	inFlight   bool
	settledAt  time.Time
	incomplete bool
	// resets counts Reset calls so a request that outlives one is dropped.
	resets uint64
}

var _ inbound.SessionService = (*Machine)(nil)

// NewMachine creates a session machine and restores the previous session
// from store. Missing or malformed fields fall back to their defaults.
func NewMachine(
	ctx context.Context,
	store outbound.PersistedStore,
	recipes outbound.RecipeService,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Machine {
	defaults := DefaultConfig()
	if cfg.MinIngredients <= 0 {
		cfg.MinIngredients = defaults.MinIngredients
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = defaults.Cooldown
	}
	if cfg.CompletenessDelay < 0 {
		cfg.CompletenessDelay = defaults.CompletenessDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Machine{
		cfg:      cfg,
		store:    store,
		recipes:  recipes,
		validate: validator.New(),
		logger:   logger.Named("session"),
		recorder: nopRecorder{},
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.state = m.restore(ctx)
	m.logger.Info("Session restored",
		zap.String("mode", m.state.Mode.String()),
		zap.Int("ingredients", m.state.Ingredients.Len()),
		zap.Int("recipes", len(m.state.Recipes)),
	)
	return m
}

// StartNewRecipe begins a fresh ingredient list
func (m *Machine) StartNewRecipe(ctx context.Context) error {
	m.mu.Lock()
	err := m.dispatchLocked(ctx, session.StartNewRecipe{})
	if err == nil {
		m.incomplete = false
	}
	m.mu.Unlock()

	if err == nil && m.input != nil {
		m.input.Reset()
	}
	return err
}

// Reset returns the session to its never-used state and writes every field
// through, so a reload sees the same empty session. A recipe request still
// in flight is discarded when it settles. The cool-down is kept.
func (m *Machine) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.state = session.NewState()
	m.incomplete = false
	m.resets++
	m.persistLocked(ctx, session.AllFields)
	m.mu.Unlock()

	if m.input != nil {
		m.input.Reset()
	}
	m.logger.Info("Session reset")
	return nil
}

// AddMoreIngredients returns from the results to ingredient entry
func (m *Machine) AddMoreIngredients(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.dispatchLocked(ctx, session.AddMoreIngredients{}); err != nil {
		return err
	}
	m.incomplete = false
	return nil
}

// GoHome returns to the landing view keeping all data
func (m *Machine) GoHome(ctx context.Context) error {
	return m.dispatch(ctx, session.GoHome{})
}

// AddIngredient adds one raw ingredient name
func (m *Machine) AddIngredient(ctx context.Context, raw string) error {
	return m.dispatch(ctx, session.AddIngredient{Raw: raw})
}

// ConfirmInput adds whatever the input field resolves to and clears the
// field. It returns the normalized name, or "" when the field was empty.
func (m *Machine) ConfirmInput(ctx context.Context) (string, error) {
	if m.input == nil {
		return "", apperrors.NewInternalError("no input field attached")
	}

	m.mu.Lock()
	mode := m.state.Mode
	m.mu.Unlock()
	if mode != session.ModeAdding {
		return "", apperrors.NewGuardError(apperrors.CodeInvalidMode, "ingredients can only be added while adding")
	}

	value, ok := m.input.Confirm()
	if !ok {
		return "", nil
	}
	if err := m.dispatch(ctx, session.AddIngredient{Raw: value}); err != nil {
		return "", err
	}
	return ingredient.Normalize(value), nil
}

// RemoveIngredient removes a normalized ingredient name
func (m *Machine) RemoveIngredient(ctx context.Context, name string) error {
	return m.dispatch(ctx, session.RemoveIngredient{Name: name})
}

// ClearIngredients empties the ingredient list and the previous results
func (m *Machine) ClearIngredients(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.dispatchLocked(ctx, session.ClearIngredients{}); err != nil {
		return err
	}
	m.incomplete = false
	return nil
}

// SetDietaryPreferences replaces the free-text dietary preferences
func (m *Machine) SetDietaryPreferences(ctx context.Context, value string) error {
	return m.dispatch(ctx, session.SetDietaryPreferences{Value: value})
}

// SetServingSize changes the number of servings
func (m *Machine) SetServingSize(ctx context.Context, n int) error {
	return m.dispatch(ctx, session.SetServingSize{Value: n})
}

// SuggestRandom picks n pantry staples that are not in the list yet and
// stores them as the random suggestions.
func (m *Machine) SuggestRandom(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, apperrors.NewValidationError("suggestion count must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := make([]string, 0, len(pantry))
	for _, name := range pantry {
		if !m.state.Ingredients.Contains(name) {
			candidates = append(candidates, name)
		}
	}
	m.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	picked := candidates[:n:n]

	if err := m.dispatchLocked(ctx, session.SetRandomIngredients{Names: picked}); err != nil {
		return nil, err
	}
	return picked, nil
}

// DetectIngredients sends a photo to the detector and adds every name it
// finds. On failure the session is left untouched.
func (m *Machine) DetectIngredients(ctx context.Context, image outbound.Image) ([]string, error) {
	if m.detector == nil {
		return nil, apperrors.NewInternalError("ingredient detection is not configured")
	}

	m.mu.Lock()
	mode := m.state.Mode
	m.mu.Unlock()
	if mode != session.ModeAdding {
		return nil, apperrors.NewGuardError(apperrors.CodeInvalidMode, "photos can only be added while adding ingredients")
	}

	names, err := m.detector.DetectIngredients(ctx, image)
	if err != nil {
		m.logger.Error("Ingredient detection failed", zap.String("filename", image.Filename), zap.Error(err))
		return nil, asExternal("ingredient detection", err)
	}

	detected := make([]string, 0, len(names))
	for _, name := range names {
		if n := ingredient.Normalize(name); n != "" {
			detected = append(detected, n)
		}
	}

	if err := m.dispatch(ctx, session.AddIngredients{Raw: detected}); err != nil {
		return nil, err
	}
	m.logger.Info("Ingredients detected", zap.Int("count", len(detected)))
	return detected, nil
}

// AddIngredientsFromRecipe adds the ingredient list of a displayed recipe,
// returning to ingredient entry first if results are showing.
func (m *Machine) AddIngredientsFromRecipe(ctx context.Context, index int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.state.Recipes) {
		return nil, apperrors.NewNotFoundError("Recipe")
	}
	names := recipe.ExtractIngredients(m.state.Recipes[index].MarkdownContent)

	if m.state.Mode == session.ModeAfterRecipe {
		if err := m.dispatchLocked(ctx, session.AddMoreIngredients{}); err != nil {
			return nil, err
		}
		m.incomplete = false
	}
	if err := m.dispatchLocked(ctx, session.AddIngredients{Raw: names}); err != nil {
		return nil, err
	}
	return names, nil
}

// CanRequestRecipes returns nil when a recipe request would be sent now,
// otherwise the guard error explaining why not.
func (m *Machine) CanRequestRecipes() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guardLocked(); err != nil {
		return err
	}
	return nil
}

// RequestRecipes asks the recipe service for recipes. Guards are checked
// before any network call. The mode advances only after a successful fetch
// and the cool-down starts when the request settles either way.
func (m *Machine) RequestRecipes(ctx context.Context) (*inbound.FetchResult, error) {
	m.mu.Lock()
	if err := m.guardLocked(); err != nil {
		m.mu.Unlock()
		m.recorder.RecipeGuardRejected(string(err.Code))
		m.logger.Debug("Recipe request rejected", zap.String("code", string(err.Code)), zap.String("details", err.Details))
		return nil, err
	}
	req := outbound.RecipeRequest{
		Ingredients:        m.state.Ingredients.Items(),
		DietaryPreferences: m.state.DietaryPreferences,
		ServingSize:        m.state.ServingSize,
	}
	m.inFlight = true
	m.incomplete = false
	resets := m.resets
	m.mu.Unlock()

	start := m.now()
	result, fetchErr := m.fetch(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.inFlight = false
	m.settledAt = m.now()
	elapsed := m.settledAt.Sub(start)

	if fetchErr != nil {
		m.recorder.RecipeRequestSettled("failure", elapsed)
		m.logger.Error("Recipe request failed",
			zap.Int("ingredients", len(req.Ingredients)),
			zap.Duration("elapsed", elapsed),
			zap.Error(fetchErr),
		)
		return nil, fetchErr
	}
	if m.resets != resets {
		m.recorder.RecipeRequestSettled("discarded", elapsed)
		m.logger.Info("Session reset during recipe request, dropping results",
			zap.Int("recipes", len(result.Recipes)),
		)
		return nil, apperrors.NewGuardError(apperrors.CodeInvalidMode, "the session was reset while recipes were loading")
	}

	if err := m.dispatchLocked(ctx, session.RecipesFetched{Recipes: result.Recipes}); err != nil {
		m.recorder.RecipeRequestSettled("failure", elapsed)
		return nil, err
	}
	m.incomplete = result.Incomplete
	result.Duration = elapsed

	m.recorder.RecipeRequestSettled("success", elapsed)
	m.logger.Info("Recipes fetched",
		zap.Int("recipes", len(result.Recipes)),
		zap.Bool("incomplete", result.Incomplete),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// View returns the render-ready projection of the session
func (m *Machine) View() inbound.SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := inbound.SessionView{
		State:             m.state.Clone(),
		RequestInFlight:   m.inFlight,
		CooldownRemaining: m.cooldownRemainingLocked(),
		IncompleteBanner:  m.incomplete,
	}
	if err := m.guardLocked(); err != nil {
		view.RequestBlocker = err
	}
	return view
}

// State returns a copy of the current session state
func (m *Machine) State() session.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *Machine) fetch(ctx context.Context, req outbound.RecipeRequest) (*inbound.FetchResult, error) {
	if err := m.validate.Struct(req); err != nil {
		return nil, apperrors.NewValidationError(err.Error()).WithCause(err)
	}

	recipes, err := m.recipes.GetRecipes(ctx, req)
	if err != nil {
		return nil, asExternal("recipe service", err)
	}

	result := &inbound.FetchResult{
		Recipes:           recipes,
		IncompleteIndexes: recipe.Incomplete(recipes),
	}
	if !recipe.AnyComplete(recipes) {
		result.Incomplete = true
		m.recorder.IncompleteRecipes(len(recipes))
		m.logger.Warn("No complete recipe returned, delaying presentation",
			zap.Int("recipes", len(recipes)),
			zap.Duration("delay", m.cfg.CompletenessDelay),
		)
		m.cosmeticDelay(ctx)
	}
	return result, nil
}

// cosmeticDelay waits once before incomplete results are shown. It never
// re-fetches; cancellation just ends the wait early.
func (m *Machine) cosmeticDelay(ctx context.Context) {
	if m.cfg.CompletenessDelay <= 0 {
		return
	}
	timer := time.NewTimer(m.cfg.CompletenessDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (m *Machine) guardLocked() *apperrors.AppError {
	if m.state.Mode != session.ModeAdding {
		return apperrors.NewGuardError(apperrors.CodeInvalidMode,
			fmt.Sprintf("recipes can only be requested while adding, mode is %s", m.state.Mode))
	}
	if n := m.state.Ingredients.Len(); n < m.cfg.MinIngredients {
		return apperrors.NewGuardError(apperrors.CodeGuardRejected,
			fmt.Sprintf("at least %d ingredients required, have %d", m.cfg.MinIngredients, n)).
			WithMetadata("min_ingredients", m.cfg.MinIngredients)
	}
	if m.inFlight {
		return apperrors.NewGuardError(apperrors.CodeRequestInFlight, "a recipe request is already running")
	}
	if remaining := m.cooldownRemainingLocked(); remaining > 0 {
		return apperrors.NewGuardError(apperrors.CodeCooldownActive,
			fmt.Sprintf("try again in %s", remaining.Round(100*time.Millisecond))).
			WithMetadata("retry_after", remaining)
	}
	return nil
}

func (m *Machine) cooldownRemainingLocked() time.Duration {
	if m.settledAt.IsZero() {
		return 0
	}
	remaining := m.settledAt.Add(m.cfg.Cooldown).Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Machine) dispatch(ctx context.Context, event session.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatchLocked(ctx, event)
}

// dispatchLocked applies event and writes every changed field through to
// the store before returning.
func (m *Machine) dispatchLocked(ctx context.Context, event session.Event) error {
	before := m.state
	next, err := session.Transition(before, event)
	if err != nil {
		return fromDomain(err)
	}

	m.state = next
	m.persistLocked(ctx, session.Changed(before, next))

	if before.Mode != next.Mode {
		m.logger.Info("Session mode changed",
			zap.String("event", session.EventName(event)),
			zap.String("from", before.Mode.String()),
			zap.String("to", next.Mode.String()),
		)
	}
	return nil
}

func fromDomain(err error) error {
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		return apperrors.NewGuardError(apperrors.CodeInvalidMode, err.Error()).WithCause(err)
	case errors.Is(err, session.ErrInvalidServingSize):
		return apperrors.NewValidationError(err.Error()).WithCause(err)
	default:
		return apperrors.Wrap(err, "session transition failed")
	}
}

func asExternal(service string, err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewExternalServiceError(service, err)
}
