package session

import (
	"context"
	"encoding/json"

	"github.com/snackhack/client/internal/domain/ingredient"
	"github.com/snackhack/client/internal/domain/recipe"
	"github.com/snackhack/client/internal/domain/session"
	"go.uber.org/zap"
)

// restore rebuilds the session field by field. Each field that is missing,
// unreadable or malformed keeps its default.
func (m *Machine) restore(ctx context.Context) session.State {
	state := session.NewState()

	var items []string
	if m.load(ctx, session.FieldIngredients, &items) {
		state.Ingredients = ingredient.NewSet(items...)
	}

	var recipes []recipe.Recipe
	if m.load(ctx, session.FieldRecipes, &recipes) {
		state.Recipes = recipes
	}

	var mode session.Mode
	if m.load(ctx, session.FieldMode, &mode) {
		state.Mode = mode
	}

	var prefs string
	if m.load(ctx, session.FieldDietaryPreferences, &prefs) {
		state.DietaryPreferences = prefs
	}

	var serving int
	if m.load(ctx, session.FieldServingSize, &serving) {
		if err := m.validate.Var(serving, "min=1,max=10"); err != nil {
			m.logger.Warn("Persisted serving size out of range, using default",
				zap.Int("value", serving),
				zap.Error(err),
			)
		} else {
			state.ServingSize = serving
		}
	}

	var random []string
	if m.load(ctx, session.FieldRandomIngredients, &random) {
		state.RandomIngredients = random
	}

	return state
}

func (m *Machine) load(ctx context.Context, field session.Field, target interface{}) bool {
	key := field.StorageKey(m.cfg.KeyNamespace)

	raw, ok, err := m.store.Load(ctx, key)
	if err != nil {
		m.logger.Warn("Failed to load persisted field, using default", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		m.logger.Warn("Malformed persisted field, using default", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// persistLocked saves each field synchronously. A failed save is logged and
// the in-memory state stays authoritative.
func (m *Machine) persistLocked(ctx context.Context, fields []session.Field) {
	for _, field := range fields {
		key := field.StorageKey(m.cfg.KeyNamespace)

		data, err := json.Marshal(fieldValue(m.state, field))
		if err != nil {
			m.logger.Warn("Failed to encode session field", zap.String("key", key), zap.Error(err))
			continue
		}
		if err := m.store.Save(ctx, key, data); err != nil {
			m.logger.Warn("Failed to persist session field", zap.String("key", key), zap.Error(err))
		}
	}
}

func fieldValue(s session.State, field session.Field) interface{} {
	switch field {
	case session.FieldIngredients:
		return s.Ingredients.Items()
	case session.FieldRecipes:
		if s.Recipes == nil {
			return []recipe.Recipe{}
		}
		return s.Recipes
	case session.FieldMode:
		return s.Mode
	case session.FieldDietaryPreferences:
		return s.DietaryPreferences
	case session.FieldServingSize:
		return s.ServingSize
	case session.FieldRandomIngredients:
		if s.RandomIngredients == nil {
			return []string{}
		}
		return s.RandomIngredients
	default:
		return nil
	}
}
