package typeahead

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/snackhack/client/internal/domain/lookup"
	"github.com/snackhack/client/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingRecorder struct {
	mu     sync.Mutex
	issued int
	failed map[string]int
	stale  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{failed: map[string]int{}, stale: map[string]int{}}
}

func (r *countingRecorder) LookupIssued() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
}

func (r *countingRecorder) LookupFailed(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[kind]++
}

func (r *countingRecorder) StaleDiscarded(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale[kind]++
}

func (r *countingRecorder) counts() (issued, failed, stale int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.failed {
		failed += n
	}
	for _, n := range r.stale {
		stale += n
	}
	return r.issued, failed, stale
}

type EngineTestSuite struct {
	suite.Suite
	lookup   *testutils.ScriptedLookup
	recorder *countingRecorder
	engine   *Engine
}

func (suite *EngineTestSuite) SetupTest() {
	suite.lookup = testutils.NewScriptedLookup()
	suite.recorder = newCountingRecorder()
	suite.engine = NewEngine(suite.lookup, Config{
		Debounce:          40 * time.Millisecond,
		MinQueryLength:    2,
		AutocompleteLimit: 3,
	}, zaptest.NewLogger(suite.T()), WithRecorder(suite.recorder))
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.engine.Close()
}

// settled waits until the engine shows results for query and is idle
func (suite *EngineTestSuite) settled(query string) Snapshot {
	var snap Snapshot
	suite.Require().Eventually(func() bool {
		snap = suite.engine.Snapshot()
		return snap.ResultFor == query && !snap.Pending
	}, time.Second, 5*time.Millisecond, "results for %q never arrived", query)
	return snap
}

func (suite *EngineTestSuite) TestDebounceIssuesOneLookupForLastKeystroke() {
	// Arrange & Act
	suite.engine.SetInput("t")
	suite.engine.SetInput("to")
	suite.engine.SetInput("tom")

	// Assert
	snap := suite.settled("tom")
	suite.ElementsMatch([]testutils.LookupCall{
		{Kind: KindValidate, Query: "tom"},
		{Kind: KindAutocomplete, Query: "tom"},
	}, suite.lookup.Calls())
	suite.Require().NotNil(snap.Validation)
	suite.True(snap.Validation.Valid())
	suite.True(snap.ShowDropdown())

	issued, _, _ := suite.recorder.counts()
	suite.Equal(1, issued)
}

func (suite *EngineTestSuite) TestPendingWhileDebouncing() {
	suite.engine.SetInput("basil")

	snap := suite.engine.Snapshot()
	suite.True(snap.Pending)
	suite.Equal("basil", snap.Input)
	suite.Empty(snap.ResultFor)
}

func (suite *EngineTestSuite) TestShortInputClearsResults() {
	suite.engine.SetInput("tomato")
	suite.settled("tomato")

	suite.engine.SetInput("t")

	snap := suite.engine.Snapshot()
	suite.Nil(snap.Validation)
	suite.Empty(snap.Suggestions)
	suite.False(snap.Pending)
	suite.False(snap.ShowDropdown())

	// No lookup is ever issued for the short value
	time.Sleep(80 * time.Millisecond)
	suite.Len(suite.lookup.Calls(), 2)
}

func (suite *EngineTestSuite) TestWhitespaceOnlyInputCountsAsShort() {
	suite.engine.SetInput("  a  ")

	time.Sleep(80 * time.Millisecond)
	suite.Empty(suite.lookup.Calls())
	suite.False(suite.engine.Snapshot().Pending)
}

func (suite *EngineTestSuite) TestStaleResponseIsDiscarded() {
	// Arrange: the lookup for "tom" answers only after the field moved on
	release := make(chan struct{})
	suite.lookup.ValidateFn = func(q string) (lookup.ValidationResult, error) {
		if q == "tom" {
			<-release
		}
		valid := true
		return lookup.ValidationResult{Original: q, IsValid: &valid}, nil
	}
	suite.lookup.AutocompleteFn = func(q string) ([]lookup.Suggestion, error) {
		if q == "tom" {
			<-release
		}
		return []lookup.Suggestion{{Name: q + " paste"}}, nil
	}

	suite.engine.SetInput("tom")
	suite.Require().Eventually(func() bool {
		return len(suite.lookup.Calls()) == 2
	}, time.Second, 5*time.Millisecond)

	// Act
	suite.engine.SetInput("tomato")
	suite.settled("tomato")
	close(release)

	// Assert
	suite.Require().Eventually(func() bool {
		_, _, stale := suite.recorder.counts()
		return stale == 2
	}, time.Second, 5*time.Millisecond)

	snap := suite.engine.Snapshot()
	suite.Equal("tomato", snap.ResultFor)
	suite.Require().NotNil(snap.Validation)
	suite.Equal("tomato", snap.Validation.Original)
	suite.Equal([]lookup.Suggestion{{Name: "tomato paste"}}, snap.Suggestions)
}

func (suite *EngineTestSuite) TestFailuresDegradeQuietly() {
	suite.lookup.ValidateFn = func(string) (lookup.ValidationResult, error) {
		return lookup.ValidationResult{}, errors.New("service down")
	}
	suite.lookup.AutocompleteFn = func(string) ([]lookup.Suggestion, error) {
		return nil, errors.New("service down")
	}

	suite.engine.SetInput("saffron")
	snap := suite.settled("saffron")

	suite.Require().NotNil(snap.Validation)
	suite.False(snap.Validation.Known())
	suite.Empty(snap.Suggestions)

	_, failed, _ := suite.recorder.counts()
	suite.Equal(2, failed)
}

func (suite *EngineTestSuite) TestSuggestionsTruncatedToLimit() {
	suite.lookup.AutocompleteFn = func(q string) ([]lookup.Suggestion, error) {
		out := make([]lookup.Suggestion, 10)
		for i := range out {
			out[i] = lookup.Suggestion{Name: fmt.Sprintf("%s %d", q, i)}
		}
		return out, nil
	}

	suite.engine.SetInput("pepper")
	snap := suite.settled("pepper")

	suite.Len(snap.Suggestions, 3)
	suite.Equal("pepper 0", snap.Suggestions[0].Name)
}

func (suite *EngineTestSuite) TestConfirm() {
	corrected := "tomato"
	suite.lookup.ValidateFn = func(q string) (lookup.ValidationResult, error) {
		valid := false
		res := lookup.ValidationResult{Original: q, IsValid: &valid}
		if q == "tomatoe" {
			res.Corrected = &corrected
		}
		return res, nil
	}

	suite.Run("uses correction that belongs to the current input", func() {
		suite.engine.SetInput("tomatoe")
		suite.settled("tomatoe")

		value, ok := suite.engine.Confirm()

		suite.True(ok)
		suite.Equal("tomato", value)
		snap := suite.engine.Snapshot()
		suite.Empty(snap.Input)
		suite.Nil(snap.Validation)
		suite.False(snap.Pending)
	})

	suite.Run("ignores correction for an older query", func() {
		suite.engine.SetInput("tomatoe")
		suite.settled("tomatoe")
		suite.engine.SetInput("tomatoes ")

		value, ok := suite.engine.Confirm()

		suite.True(ok)
		suite.Equal("tomatoes", value)
	})

	suite.Run("nothing to add", func() {
		suite.engine.SetInput("   ")

		_, ok := suite.engine.Confirm()

		suite.False(ok)
	})
}

func (suite *EngineTestSuite) TestSelectFillsFieldWithoutNewLookup() {
	suite.engine.SetInput("cum")
	suite.settled("cum")
	calls := len(suite.lookup.Calls())

	suite.engine.Select("cumin")

	snap := suite.engine.Snapshot()
	suite.Equal("cumin", snap.Input)
	suite.Empty(snap.Suggestions)
	suite.False(snap.Pending)

	time.Sleep(80 * time.Millisecond)
	suite.Len(suite.lookup.Calls(), calls)

	value, ok := suite.engine.Confirm()
	suite.True(ok)
	suite.Equal("cumin", value)
}

func (suite *EngineTestSuite) TestResetDropsEverything() {
	suite.engine.SetInput("leek")
	suite.engine.Reset()

	time.Sleep(80 * time.Millisecond)
	snap := suite.engine.Snapshot()
	suite.Empty(snap.Input)
	suite.Empty(snap.ResultFor)
	suite.False(snap.Pending)
	suite.Empty(suite.lookup.Calls())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestEngine_OnChangeDeliversVersionsInOrder(t *testing.T) {
	var (
		mu       sync.Mutex
		versions []uint64
	)
	engine := NewEngine(testutils.NewScriptedLookup(), Config{Debounce: 10 * time.Millisecond}, nil,
		WithOnChange(func(s Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			versions = append(versions, s.Version)
		}))
	defer engine.Close()

	for _, text := range []string{"o", "on", "oni", "onio", "onion"} {
		engine.SetInput(text)
	}
	require.Eventually(t, func() bool {
		s := engine.Snapshot()
		return s.ResultFor == "onion" && !s.Pending
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
}

func TestEngine_CloseCancelsPendingWork(t *testing.T) {
	scripted := testutils.NewScriptedLookup()
	scripted.Hold("garlic")
	engine := NewEngine(scripted, Config{Debounce: 5 * time.Millisecond}, nil)

	engine.SetInput("garlic")
	require.Eventually(t, func() bool {
		return len(scripted.Calls()) > 0
	}, time.Second, 2*time.Millisecond)

	done := make(chan struct{})
	go func() {
		engine.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return while a lookup was held")
	}

	engine.SetInput("ginger")
	assert.Equal(t, "garlic", engine.Snapshot().Input)
}
