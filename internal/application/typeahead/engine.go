// Package typeahead drives live validation and autocomplete for the free-text
// ingredient field. Each keystroke bumps a generation counter; a debounced
// query carries the generation it was issued under and its results are
// dropped if the field has moved on by the time they arrive.
package typeahead

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/snackhack/client/internal/domain/lookup"
	"github.com/snackhack/client/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config holds the engine tuning knobs
type Config struct {
	Debounce          time.Duration
	MinQueryLength    int
	AutocompleteLimit int
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		Debounce:          300 * time.Millisecond,
		MinQueryLength:    2,
		AutocompleteLimit: 8,
	}
}

// Lookup kinds used in logs and metrics
const (
	KindValidate     = "validate"
	KindAutocomplete = "autocomplete"
)

// Recorder receives engine events for metrics
type Recorder interface {
	LookupIssued()
	LookupFailed(kind string)
	StaleDiscarded(kind string)
}

type nopRecorder struct{}

func (nopRecorder) LookupIssued()         {}
func (nopRecorder) LookupFailed(string)   {}
func (nopRecorder) StaleDiscarded(string) {}

// Snapshot is the render-ready view of the engine
type Snapshot struct {
	// Version increases with every published change.
	Version uint64
	Input   string
	// ResultFor is the query the displayed results belong to. It differs
	// from the trimmed Input while a newer query is debouncing or in flight.
	ResultFor   string
	Validation  *lookup.ValidationResult
	Suggestions []lookup.Suggestion
	// Pending is true while a debounce timer is armed or a query is running.
	Pending bool
}

// ShowDropdown reports whether the autocomplete list should be visible
func (s Snapshot) ShowDropdown() bool {
	return len(s.Suggestions) > 0
}

// Option configures the engine
type Option func(*Engine)

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithOnChange registers a callback that receives every new snapshot in
// order. The callback must not call back into the engine synchronously.
func WithOnChange(fn func(Snapshot)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// Engine is the debounced validation and autocomplete pipeline
type Engine struct {
	cfg      Config
	service  outbound.LookupService
	logger   *zap.Logger
	recorder Recorder
	onChange func(Snapshot)

	mu          sync.Mutex
	input       string
	generation  uint64
	version     uint64
	timer       *time.Timer
	cancelQuery context.CancelFunc
	running     bool
	resultFor   string
	validation  *lookup.ValidationResult
	suggestions []lookup.Suggestion
	closed      bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	notifyMu  sync.Mutex
	delivered uint64
}

// NewEngine creates a lookup engine
func NewEngine(service outbound.LookupService, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	defaults := DefaultConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaults.Debounce
	}
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = defaults.MinQueryLength
	}
	if cfg.AutocompleteLimit <= 0 {
		cfg.AutocompleteLimit = defaults.AutocompleteLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:        cfg,
		service:    service,
		logger:     logger.Named("lookup"),
		recorder:   nopRecorder{},
		baseCtx:    ctx,
		baseCancel: cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetInput records a keystroke. It supersedes any armed timer and any query
// in flight, then either clears the results (input too short) or arms a new
// debounce timer for the new value.
func (e *Engine) SetInput(text string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	e.input = text
	gen := e.supersedeLocked()

	if len([]rune(strings.TrimSpace(text))) < e.cfg.MinQueryLength {
		e.clearResultsLocked()
		snap := e.snapshotLocked(true)
		e.mu.Unlock()
		e.publish(snap)
		return
	}

	e.wg.Add(1)
	e.timer = time.AfterFunc(e.cfg.Debounce, func() {
		defer e.wg.Done()
		e.fire(gen)
	})
	snap := e.snapshotLocked(true)
	e.mu.Unlock()
	e.publish(snap)
}

// Select puts a chosen suggestion or correction into the field and returns
// the engine to its quiet state without issuing a new query.
func (e *Engine) Select(text string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.input = text
	e.supersedeLocked()
	e.clearResultsLocked()
	snap := e.snapshotLocked(true)
	e.mu.Unlock()
	e.publish(snap)
}

// Confirm returns the value to add to the ingredient list and resets the
// engine. The corrected spelling wins when the displayed validation belongs
// to the current input and carries a non-empty correction; otherwise the
// trimmed input is used. ok is false when there is nothing to add.
func (e *Engine) Confirm() (value string, ok bool) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", false
	}

	value = strings.TrimSpace(e.input)
	if e.validation != nil && e.resultFor == value {
		if corrected, has := e.validation.Correction(); has {
			value = corrected
		}
	}

	e.input = ""
	e.supersedeLocked()
	e.clearResultsLocked()
	snap := e.snapshotLocked(true)
	e.mu.Unlock()
	e.publish(snap)

	return value, value != ""
}

// Reset empties the field and drops all results
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.input = ""
	e.supersedeLocked()
	e.clearResultsLocked()
	snap := e.snapshotLocked(true)
	e.mu.Unlock()
	e.publish(snap)
}

// Snapshot returns the current view
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(false)
}

// Close stops timers, cancels queries and waits for background work
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.supersedeLocked()
	e.baseCancel()
	e.mu.Unlock()

	e.wg.Wait()
}

// supersedeLocked invalidates everything issued for the previous value and
// returns the new generation.
func (e *Engine) supersedeLocked() uint64 {
	e.generation++
	if e.timer != nil {
		if e.timer.Stop() {
			e.wg.Done()
		}
		e.timer = nil
	}
	if e.cancelQuery != nil {
		e.cancelQuery()
		e.cancelQuery = nil
	}
	e.running = false
	return e.generation
}

func (e *Engine) clearResultsLocked() {
	e.resultFor = ""
	e.validation = nil
	e.suggestions = nil
}

func (e *Engine) snapshotLocked(bump bool) Snapshot {
	if bump {
		e.version++
	}
	s := Snapshot{
		Version:   e.version,
		Input:     e.input,
		ResultFor: e.resultFor,
		Pending:   e.timer != nil || e.running,
	}
	if e.validation != nil {
		v := *e.validation
		s.Validation = &v
	}
	if e.suggestions != nil {
		s.Suggestions = append([]lookup.Suggestion(nil), e.suggestions...)
	}
	return s
}

// fire runs when the debounce timer for generation gen elapses
func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.running = true
	query := strings.TrimSpace(e.input)
	ctx, cancel := context.WithCancel(e.baseCtx)
	e.cancelQuery = cancel
	e.mu.Unlock()
	defer cancel()

	e.recorder.LookupIssued()
	e.logger.Debug("Lookup fired", zap.String("query", query), zap.Uint64("generation", gen))

	var g errgroup.Group
	g.Go(func() error {
		result, err := e.service.ValidateIngredient(ctx, query)
		if err != nil {
			e.recorder.LookupFailed(KindValidate)
			e.logger.Debug("Validation degraded to unknown", zap.String("query", query), zap.Error(err))
			result = lookup.Unknown(query)
		}
		e.apply(gen, query, KindValidate, func() { e.validation = &result })
		return nil
	})
	g.Go(func() error {
		suggestions, err := e.service.Autocomplete(ctx, query, e.cfg.AutocompleteLimit)
		if err != nil {
			e.recorder.LookupFailed(KindAutocomplete)
			e.logger.Debug("Autocomplete degraded to empty", zap.String("query", query), zap.Error(err))
			suggestions = nil
		}
		if len(suggestions) > e.cfg.AutocompleteLimit {
			suggestions = suggestions[:e.cfg.AutocompleteLimit]
		}
		e.apply(gen, query, KindAutocomplete, func() { e.suggestions = suggestions })
		return nil
	})
	_ = g.Wait()

	e.mu.Lock()
	if gen == e.generation && e.running {
		e.running = false
		e.cancelQuery = nil
		snap := e.snapshotLocked(true)
		e.mu.Unlock()
		e.publish(snap)
		return
	}
	e.mu.Unlock()
}

// apply commits one result if its generation is still current
func (e *Engine) apply(gen uint64, query, kind string, commit func()) {
	e.mu.Lock()
	if e.closed || gen != e.generation {
		e.mu.Unlock()
		e.recorder.StaleDiscarded(kind)
		e.logger.Debug("Discarded stale lookup result",
			zap.String("kind", kind),
			zap.String("query", query),
			zap.Uint64("generation", gen),
		)
		return
	}

	if e.resultFor != query {
		// First result for this query replaces whatever belonged to the
		// previous one, so validation and suggestions never mix queries.
		e.validation = nil
		e.suggestions = nil
		e.resultFor = query
	}
	commit()
	snap := e.snapshotLocked(true)
	e.mu.Unlock()
	e.publish(snap)
}

func (e *Engine) publish(s Snapshot) {
	if e.onChange == nil {
		return
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if s.Version <= e.delivered {
		return
	}
	e.delivered = s.Version
	e.onChange(s)
}
