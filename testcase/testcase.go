// Package testcase defines the capability contract every runnable test case
// satisfies, a reusable bookkeeping base, and the constructor registry that
// resolves catalog run specs into concrete implementations.
package testcase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ethereum-optimism/infra/op-campaign/push"
	"github.com/ethereum-optimism/infra/op-campaign/types"
)

// TestCase is the capability contract of one opaque unit of verification
// work. Run must contain its own failures and record them for IsSuccessful;
// only genuinely uncaught faults surface as errors.
type TestCase interface {
	Name() string
	Project() string
	IsEnabled() bool
	IsBlocking() bool
	Run(ctx context.Context, args map[string]any) error
	IsSuccessful() types.Outcome
	Clean()
	PushToDB(ctx context.Context) error
	Duration() time.Duration
	fmt.Stringer
}

// DefaultCriteria is the result threshold applied when a definition carries
// no numeric criteria: the case must score a full 100 to pass.
const DefaultCriteria = 100.0

// Base carries the shared runtime state of a test case: its definition, a
// numeric result scored against a criteria threshold, start/stop
// timestamps, and an optional details payload for publishing.
type Base struct {
	Def       types.TestCaseConfig
	Log       log.Logger
	Publisher *push.Client

	Criteria float64
	Result   float64
	Details  any

	start time.Time
	stop  time.Time
}

// NewBase builds the shared state for a definition. A numeric catalog
// criteria overrides the default threshold; any other criteria shape is
// opaque and left to the concrete implementation.
func NewBase(def types.TestCaseConfig, logger log.Logger, publisher *push.Client) Base {
	if logger == nil {
		logger = log.New()
	}
	criteria := DefaultCriteria
	var v float64
	if def.CriteriaValue(&v) {
		criteria = v
	}
	return Base{Def: def, Log: logger, Publisher: publisher, Criteria: criteria}
}

func (b *Base) Name() string     { return b.Def.CaseName }
func (b *Base) Project() string  { return b.Def.ProjectName }
func (b *Base) IsBlocking() bool { return b.Def.Blocking }

// IsEnabled reports whether the case applies to the current environment.
// The base is always enabled; implementations override as needed.
func (b *Base) IsEnabled() bool { return true }

// Start marks the beginning of execution.
func (b *Base) Start() {
	b.start = time.Now()
	b.stop = time.Time{}
}

// Stop marks the end of execution.
func (b *Base) Stop() {
	b.stop = time.Now()
}

// Duration returns the elapsed run time, zero before the case has both
// started and stopped.
func (b *Base) Duration() time.Duration {
	if b.start.IsZero() || b.stop.IsZero() {
		return 0
	}
	return b.stop.Sub(b.start)
}

// IsSuccessful reports the case's own verdict: a run that never completed
// is a run error; otherwise the recorded result is scored against the
// criteria threshold.
func (b *Base) IsSuccessful() types.Outcome {
	if b.start.IsZero() || b.stop.IsZero() {
		return types.OutcomeRunError
	}
	if b.Result >= b.Criteria {
		return types.OutcomeOK
	}
	return types.OutcomeTestcaseFailed
}

// Clean releases resources acquired during the run. The base holds none.
func (b *Base) Clean() {}

// PushToDB publishes the case outcome to the configured results store.
func (b *Base) PushToDB(ctx context.Context) error {
	if b.Publisher == nil {
		b.Log.Debug("No publisher configured", "case", b.Name())
		return nil
	}
	criteria := "FAIL"
	if b.IsSuccessful() == types.OutcomeOK {
		criteria = "PASS"
	}
	return b.Publisher.Push(ctx, push.Result{
		ProjectName: b.Project(),
		CaseName:    b.Name(),
		Criteria:    criteria,
		StartDate:   b.start,
		StopDate:    b.stop,
		Details:     b.Details,
	})
}

// String renders a one-row, human-readable result table.
func (b *Base) String() string {
	result := "FAIL"
	if b.IsSuccessful() == types.OutcomeOK {
		result = "PASS"
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"TEST CASE", "PROJECT", "DURATION", "RESULT"})
	t.AppendRow(table.Row{b.Name(), b.Project(), FormatDuration(b.Duration()), result})
	return t.Render()
}

// FormatDuration renders a duration as mm:ss, the form used in summaries.
func FormatDuration(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Options carries the collaborators handed to every constructed test case.
type Options struct {
	Log       log.Logger
	Publisher *push.Client
}

// Factory builds a concrete test case from its catalog definition.
type Factory func(def types.TestCaseConfig, opts Options) (TestCase, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register maps a run-spec identifier ("module.Class") to a constructor.
// Registration happens at start-up; a duplicate key panics.
func Register(key string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[key]; dup {
		panic(fmt.Sprintf("testcase: Register called twice for %q", key))
	}
	registry[key] = f
}

// ErrUnknownRunSpec reports a run spec with no registered constructor.
type ErrUnknownRunSpec struct {
	Key string
}

func (e *ErrUnknownRunSpec) Error() string {
	return fmt.Sprintf("no test case registered for run spec %q", e.Key)
}

// New instantiates the test case referenced by the run spec.
func New(spec types.RunSpec, def types.TestCaseConfig, opts Options) (TestCase, error) {
	registryMu.RLock()
	factory, ok := registry[spec.Key()]
	registryMu.RUnlock()
	if !ok {
		return nil, &ErrUnknownRunSpec{Key: spec.Key()}
	}
	return factory(def, opts)
}

// Registered returns the known run-spec identifiers, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
