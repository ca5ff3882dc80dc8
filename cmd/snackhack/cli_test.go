package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/snackhack/client/internal/domain/lookup"
	"github.com/snackhack/client/internal/infrastructure/config"
	"github.com/snackhack/client/internal/infrastructure/http/stubserver"
	apperrors "github.com/snackhack/client/pkg/errors"
)

type CLITestSuite struct {
	suite.Suite
	backend *httptest.Server
	dbPath  string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (s *CLITestSuite) SetupTest() {
	stub := stubserver.New(config.StubServerConfig{MaxFavourites: 2}, "", nil,
		stubserver.WithHashCost(bcrypt.MinCost))
	s.backend = httptest.NewServer(stub.Handler())
	s.dbPath = filepath.Join(s.T().TempDir(), "session.db")
}

func (s *CLITestSuite) TearDownTest() {
	s.backend.Close()
}

func (s *CLITestSuite) config(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.API.BaseURL = s.backend.URL
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.SQLitePath = s.dbPath
	cfg.Session.CompletenessDelay = 0
	cfg.Session.Debounce = 10 * time.Millisecond
	cfg.App.LogLevel = "error"
	return cfg, nil
}

// run executes one invocation, as a separate process would
func (s *CLITestSuite) run(stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	c := newCLI(strings.NewReader(stdin), &out)
	c.loadConfig = s.config
	err := c.execute(context.Background(), args)
	return out.String(), err
}

func (s *CLITestSuite) TestSessionSurvivesInvocations() {
	_, err := s.run("", "start")
	s.Require().NoError(err)

	out, err := s.run("", "add", "Tomato", "cheese", "  bread ", "tomato")
	s.Require().NoError(err)
	s.Contains(out, "Ingredients (3):")

	out, err = s.run("", "status")
	s.Require().NoError(err)
	s.Contains(out, "Mode: adding")
	s.Contains(out, "  - bread")
	s.Contains(out, "Get recipes: unavailable")
}

func (s *CLITestSuite) TestRecipesFlow() {
	_, err := s.run("", "start")
	s.Require().NoError(err)
	_, err = s.run("", "add", "tomato", "cheese", "bread", "lettuce")
	s.Require().NoError(err)
	_, err = s.run("", "prefs", "--diet", "vegetarian", "--servings", "2")
	s.Require().NoError(err)

	out, err := s.run("", "recipes")
	s.Require().NoError(err)
	s.Contains(out, "1. ")
	s.Contains(out, "3. ")
	s.NotContains(out, "may be incomplete")

	out, err = s.run("", "status")
	s.Require().NoError(err)
	s.Contains(out, "Mode: afterRecipe")
	s.Contains(out, "Dietary preferences: vegetarian")
	s.Contains(out, "Servings: 2")

	out, err = s.run("", "recipes", "show", "1")
	s.Require().NoError(err)
	s.Contains(out, "## Ingredients")

	_, err = s.run("", "recipes", "use", "1")
	s.Require().NoError(err)

	out, err = s.run("", "status")
	s.Require().NoError(err)
	s.Contains(out, "Mode: adding")
}

func (s *CLITestSuite) TestRecipesRefusedBelowMinimum() {
	_, err := s.run("", "start")
	s.Require().NoError(err)
	_, err = s.run("", "add", "tomato", "cheese")
	s.Require().NoError(err)

	out, err := s.run("", "recipes")
	s.Require().Error(err)
	s.Contains(out, "Not now: ")
	s.NotContains(out, "Error: ")
	s.Equal(2, exitStatus(err))
}

func (s *CLITestSuite) TestBlockingErrorIsReported() {
	out, err := s.run("", "recipes", "show", "zero")
	s.Require().Error(err)
	s.Contains(out, "Error: ")
	s.Equal(1, exitStatus(err))
}

func (s *CLITestSuite) TestLogoutResetsSession() {
	_, err := s.run("", "start")
	s.Require().NoError(err)
	_, err = s.run("", "add", "egg", "milk", "flour", "sugar")
	s.Require().NoError(err)

	_, err = s.run("", "logout")
	s.Require().NoError(err)

	out, err := s.run("", "status")
	s.Require().NoError(err)
	s.Contains(out, "Mode: initial")
	s.Contains(out, "Ingredients: none")
}

func (s *CLITestSuite) TestLookupAddsCorrection() {
	_, err := s.run("", "start")
	s.Require().NoError(err)

	out, err := s.run("", "lookup", "--add", "tomatoe")
	s.Require().NoError(err)
	s.Contains(out, "tomato")
	s.Contains(out, "Added tomato.")
}

func (s *CLITestSuite) TestShell() {
	input := strings.Join([]string{"chi", "/pick 1", "", "/status", "/quit"}, "\n") + "\n"
	out, err := s.run(input, "shell")
	s.Require().NoError(err)
	s.Contains(out, "1. chicken")
	s.Contains(out, "Added chicken")
	s.Contains(out, "Mode: adding")
}

func (s *CLITestSuite) TestAccountFlow() {
	out, err := s.run("", "register", "cook", "cook@example.com", "--password", "s3cret-pass")
	s.Require().NoError(err)
	s.Contains(out, "Welcome, cook.")

	out, err = s.run("", "profile", "--diet", "vegan", "--allergy", "peanuts")
	s.Require().NoError(err)
	s.Contains(out, "Dietary preferences: vegan")

	_, err = s.run("", "start")
	s.Require().NoError(err)
	out, err = s.run("", "prefs", "--from-profile")
	s.Require().NoError(err)
	s.Contains(out, "vegan, no peanuts")

	_, err = s.run("", "logout")
	s.Require().NoError(err)

	_, err = s.run("", "profile")
	s.Error(err)

	out, err = s.run("s3cret-pass\n", "login", "cook@example.com")
	s.Require().NoError(err)
	s.Contains(out, "Signed in as cook.")
}

func (s *CLITestSuite) TestNutrition() {
	out, err := s.run("", "nutrition", "apple", "rice")
	s.Require().NoError(err)
	s.Contains(out, "apple")
	s.Contains(out, "total")
}

func (s *CLITestSuite) TestDoctor() {
	out, err := s.run("", "doctor")
	s.Require().NoError(err)
	s.Contains(out, "Overall: healthy")
	s.Contains(out, "backend")
	s.Contains(out, "store")
}

func TestValidationLine(t *testing.T) {
	valid, invalid := true, false
	corrected := "tomato"

	assert.Equal(t, "? could not check x", validationLine(lookupResult("x", nil, nil)))
	assert.Equal(t, "ok tomato", validationLine(lookupResult("tomato", &valid, nil)))
	assert.Equal(t, "x tomatoe is not a known ingredient, did you mean tomato?",
		validationLine(lookupResult("tomatoe", &invalid, &corrected)))
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	c := newCLI(strings.NewReader(""), &out)
	c.verbose = true

	c.report(apperrors.NewGuardError(apperrors.CodeCooldownActive, "wait 3s"))
	assert.Equal(t, "Not now: wait 3s\n", out.String())

	out.Reset()
	c.report(apperrors.NewExternalServiceError("recipe service", errors.New("refused")))
	assert.Contains(t, out.String(), "Error: ")
	assert.Contains(t, out.String(), "code: EXTERNAL_SERVICE_ERROR")

	assert.Equal(t, 0, exitStatus(nil))
	assert.Equal(t, 1, exitStatus(errors.New("unknown flag")))
}

func TestRecipeIndex(t *testing.T) {
	i, err := recipeIndex("2")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = recipeIndex("0")
	assert.Error(t, err)
	_, err = recipeIndex("two")
	assert.Error(t, err)
}

func lookupResult(original string, valid *bool, corrected *string) lookup.ValidationResult {
	return lookup.ValidationResult{Original: original, IsValid: valid, Corrected: corrected}
}
