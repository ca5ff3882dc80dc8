package stubserver

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	errUserExists     = errors.New("user with this email or username already exists")
	errBadCredentials = errors.New("invalid email/username or password")
	errUnknownUser    = errors.New("user not found")
	errRecipeNotFound = errors.New("recipe not found")
	errFavouriteLimit = errors.New("favourite limit reached")
)

type account struct {
	ID                 int64    `json:"id"`
	Username           string   `json:"username"`
	Email              string   `json:"email"`
	DietaryPreferences []string `json:"dietary_preferences"`
	Allergies          []string `json:"allergies"`
	FavoriteCuisines   []string `json:"favorite_cuisines"`

	passwordHash []byte
}

type savedRecipe struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	MarkdownContent string `json:"markdown_content"`
	IsSaved         bool   `json:"is_saved"`

	owner int64
}

// state is the stub's in-memory database
type state struct {
	mu            sync.Mutex
	users         map[int64]*account
	recipes       map[int64]*savedRecipe
	nextUser      int64
	nextRecipe    int64
	maxFavourites int
	hashCost      int
}

func newState(maxFavourites, hashCost int) *state {
	return &state{
		users:         make(map[int64]*account),
		recipes:       make(map[int64]*savedRecipe),
		maxFavourites: maxFavourites,
		hashCost:      hashCost,
	}
}

func (s *state) register(username, email, password string) (account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, username) {
			return account{}, errUserExists
		}
	}
	s.nextUser++
	u := &account{
		ID:                 s.nextUser,
		Username:           username,
		Email:              email,
		DietaryPreferences: []string{},
		Allergies:          []string{},
		FavoriteCuisines:   []string{},
		passwordHash:       hash,
	}
	s.users[u.ID] = u
	return *u, nil
}

func (s *state) authenticate(emailOrUsername, password string) (account, error) {
	s.mu.Lock()
	var found *account
	for _, u := range s.users {
		if strings.EqualFold(u.Email, emailOrUsername) || strings.EqualFold(u.Username, emailOrUsername) {
			found = u
			break
		}
	}
	var snapshot account
	if found != nil {
		snapshot = *found
	}
	s.mu.Unlock()

	if found == nil {
		return account{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(snapshot.passwordHash, []byte(password)); err != nil {
		return account{}, errBadCredentials
	}
	return snapshot, nil
}

func (s *state) user(id int64) (account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return account{}, errUnknownUser
	}
	return *u, nil
}

type profileUpdate struct {
	DietaryPreferences []string `json:"dietary_preferences"`
	Allergies          []string `json:"allergies"`
	FavoriteCuisines   []string `json:"favorite_cuisines"`
}

func (s *state) updateProfile(id int64, upd profileUpdate) (account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return account{}, errUnknownUser
	}
	if upd.DietaryPreferences != nil {
		u.DietaryPreferences = upd.DietaryPreferences
	}
	if upd.Allergies != nil {
		u.Allergies = upd.Allergies
	}
	if upd.FavoriteCuisines != nil {
		u.FavoriteCuisines = upd.FavoriteCuisines
	}
	return *u, nil
}

func (s *state) save(owner int64, title, markdown string) savedRecipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRecipe++
	r := &savedRecipe{ID: s.nextRecipe, Title: title, MarkdownContent: markdown, owner: owner}
	s.recipes[r.ID] = r
	return *r
}

func (s *state) list(owner int64, favouritesOnly bool) []savedRecipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []savedRecipe{}
	for id := int64(1); id <= s.nextRecipe; id++ {
		r, ok := s.recipes[id]
		if !ok || r.owner != owner || (favouritesOnly && !r.IsSaved) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func (s *state) toggle(owner, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok || r.owner != owner {
		return false, errRecipeNotFound
	}
	if !r.IsSaved {
		count := 0
		for _, other := range s.recipes {
			if other.owner == owner && other.IsSaved {
				count++
			}
		}
		if count >= s.maxFavourites {
			return false, errFavouriteLimit
		}
	}
	r.IsSaved = !r.IsSaved
	return r.IsSaved, nil
}

func (s *state) remove(owner, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok || r.owner != owner {
		return errRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}
