// Package session defines the ingredient-entry session: its persisted state,
// its workflow mode and the pure transition function between states.
package session

import "fmt"

// Mode is the coarse workflow phase of the session.
type Mode int

const (
	// ModeInitial is the landing view.
	ModeInitial Mode = iota
	// ModeAdding is ingredient entry with the preference form active.
	ModeAdding
	// ModeAfterRecipe shows generated recipes.
	ModeAfterRecipe
)

// String returns the name stored on disk.
func (m Mode) String() string {
	switch m {
	case ModeInitial:
		return "initial"
	case ModeAdding:
		return "adding"
	case ModeAfterRecipe:
		return "afterRecipe"
	default:
		return "unknown"
	}
}

// ParseMode converts a stored name back into a Mode.
func ParseMode(name string) (Mode, bool) {
	switch name {
	case "initial":
		return ModeInitial, true
	case "adding":
		return ModeAdding, true
	case "afterRecipe":
		return ModeAfterRecipe, true
	default:
		return ModeInitial, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := ParseMode(m.String()); !ok {
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, ok := ParseMode(string(text))
	if !ok {
		return fmt.Errorf("unknown mode %q", string(text))
	}
	*m = parsed
	return nil
}
