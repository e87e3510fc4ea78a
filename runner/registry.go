package runner

import (
	"github.com/ethereum-optimism/infra/op-campaign/testcase"
	"github.com/ethereum-optimism/infra/op-campaign/types"
)

type registryEntry struct {
	tc     testcase.TestCase
	status types.Status
}

// ExecutedRegistry maps case names to the test-case handles actually
// attempted in one run, insertion-ordered by execution order. Tests
// filtered out by enablement or CI-loop mismatch never appear. The registry
// is owned and mutated only by the Runner; the single-threaded execution
// model needs no locking.
type ExecutedRegistry struct {
	names   []string
	entries map[string]*registryEntry
}

func NewExecutedRegistry() *ExecutedRegistry {
	return &ExecutedRegistry{entries: make(map[string]*registryEntry)}
}

// Record stores the handle under its case name, overwriting any prior entry
// for the same name within this run while keeping its original position.
func (r *ExecutedRegistry) Record(name string, tc testcase.TestCase) {
	if e, ok := r.entries[name]; ok {
		e.tc = tc
		e.status = types.StatusNotRun
		return
	}
	r.names = append(r.names, name)
	r.entries[name] = &registryEntry{tc: tc, status: types.StatusNotRun}
}

// SetStatus updates the orchestrator's bookkeeping for a recorded handle.
func (r *ExecutedRegistry) SetStatus(name string, status types.Status) {
	if e, ok := r.entries[name]; ok {
		e.status = status
	}
}

// Get returns the recorded handle for the case name.
func (r *ExecutedRegistry) Get(name string) (testcase.TestCase, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.tc, true
}

// Lookup is Get in the shape the reporter consumes.
func (r *ExecutedRegistry) Lookup(name string) (testcase.TestCase, bool) {
	return r.Get(name)
}

// Status returns the bookkeeping status for the case name, StatusNotRun
// when the case was never recorded.
func (r *ExecutedRegistry) Status(name string) types.Status {
	if e, ok := r.entries[name]; ok {
		return e.status
	}
	return types.StatusNotRun
}

// Names returns the recorded case names in execution order.
func (r *ExecutedRegistry) Names() []string {
	return r.names
}

func (r *ExecutedRegistry) Len() int {
	return len(r.names)
}
