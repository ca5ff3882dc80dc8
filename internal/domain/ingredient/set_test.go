package ingredient_test

import (
	"testing"

	"github.com/snackhack/client/internal/domain/ingredient"
	"github.com/snackhack/client/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// SetTestSuite exercises the ingredient set invariants
type SetTestSuite struct {
	suite.Suite
	factory *testutils.IngredientFactory
}

func (suite *SetTestSuite) SetupTest() {
	suite.factory = testutils.NewIngredientFactory(42)
}

func (suite *SetTestSuite) TestAdd() {
	suite.Run("NormalizesAndDeduplicates", func() {
		s := ingredient.NewSet()
		s.Add("  Tomato ")
		s.Add("tomato")

		assert.Equal(suite.T(), []string{"tomato"}, s.Items())
	})

	suite.Run("EmptyInputIsNoop", func() {
		s := ingredient.NewSet("basil")
		s.Add("")
		s.Add("   \t")

		assert.Equal(suite.T(), []string{"basil"}, s.Items())
	})

	suite.Run("PreservesInsertionOrder", func() {
		s := ingredient.NewSet()
		s.Add("Onion").Add("garlic").Add("ONION").Add("Rice")

		assert.Equal(suite.T(), []string{"onion", "garlic", "rice"}, s.Items())
	})
}

func (suite *SetTestSuite) TestRemove() {
	suite.Run("RemovesExactMatch", func() {
		s := ingredient.NewSet("egg", "milk", "flour")
		s.Remove("milk")

		assert.Equal(suite.T(), []string{"egg", "flour"}, s.Items())
	})

	suite.Run("MissingNameIsNoop", func() {
		s := ingredient.NewSet("egg")
		s.Remove("bacon")

		assert.Equal(suite.T(), []string{"egg"}, s.Items())
	})

	suite.Run("DoesNotAliasReturnedItems", func() {
		s := ingredient.NewSet("a1", "b2", "c3")
		before := s.Items()
		s.Remove("a1")

		assert.Equal(suite.T(), []string{"a1", "b2", "c3"}, before)
	})
}

func (suite *SetTestSuite) TestClear() {
	s := ingredient.NewSet("egg", "milk")
	s.Clear()

	assert.Zero(suite.T(), s.Len())
	assert.Empty(suite.T(), s.Items())
}

// TestRandomSequencesStayUnique feeds messy, repeated names through Add and
// checks that no two entries collide after normalization.
func (suite *SetTestSuite) TestRandomSequencesStayUnique() {
	for round := 0; round < 50; round++ {
		s := ingredient.NewSet()
		want := []string{}
		wanted := make(map[string]bool)
		for _, raw := range suite.factory.MessyNames(40) {
			s.Add(raw)
			if name := ingredient.Normalize(raw); name != "" && !wanted[name] {
				wanted[name] = true
				want = append(want, name)
			}
		}
		require.Equal(suite.T(), want, s.Items())

		seen := make(map[string]bool)
		for _, item := range s.Items() {
			require.Equal(suite.T(), ingredient.Normalize(item), item)
			require.NotEmpty(suite.T(), item)
			require.False(suite.T(), seen[item], "duplicate %q", item)
			seen[item] = true
		}
	}
}

func (suite *SetTestSuite) TestNewSetSanitizesStoredNames() {
	s := ingredient.NewSet("Egg", "egg", "", " MILK ")

	assert.Equal(suite.T(), []string{"egg", "milk"}, s.Items())
}

func (suite *SetTestSuite) TestCloneIsIndependent() {
	s := ingredient.NewSet("egg")
	c := s.Clone()
	c.Add("milk")

	assert.Equal(suite.T(), 1, s.Len())
	assert.False(suite.T(), s.Equal(c))
	assert.True(suite.T(), s.Equal(ingredient.NewSet("egg")))
}

func TestSetTestSuite(t *testing.T) {
	suite.Run(t, new(SetTestSuite))
}
