// Package checks provides a session-scoped recorder for batches of
// fine-grained checks run inside a single test case. The orchestrator never
// touches it; a test case owns one Recorder per run.
package checks

import "errors"

// ErrSkip marks a check as skipped rather than failed. Check functions
// return it (or wrap it) when their preconditions are not met.
var ErrSkip = errors.New("check skipped")

// CheckStatus is the outcome of one fine-grained check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "PASSED"
	CheckFailed  CheckStatus = "FAILED"
	CheckSkipped CheckStatus = "SKIPPED"
)

// Record is one per-check outcome entry.
type Record struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// Recorder tallies passed/failed/skipped checks and accumulates per-check
// outcome records in order.
type Recorder struct {
	passed  int
	failed  int
	skipped int
	records []Record
}

// NewRecorder creates an empty recorder for one session.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Pass(name, detail string) {
	r.passed++
	r.records = append(r.records, Record{Name: name, Status: CheckPassed, Detail: detail})
}

func (r *Recorder) Fail(name, detail string) {
	r.failed++
	r.records = append(r.records, Record{Name: name, Status: CheckFailed, Detail: detail})
}

func (r *Recorder) Skip(name, detail string) {
	r.skipped++
	r.records = append(r.records, Record{Name: name, Status: CheckSkipped, Detail: detail})
}

func (r *Recorder) Passed() int  { return r.passed }
func (r *Recorder) Failed() int  { return r.failed }
func (r *Recorder) Skipped() int { return r.skipped }

// Ratio returns the running pass ratio passed/(passed+failed), or zero when
// nothing has passed or failed yet. Skipped checks do not count. This is a
// reporting-only metric; it never gates the pass/fail decision.
func (r *Recorder) Ratio() float64 {
	if r.passed+r.failed == 0 {
		return 0
	}
	return float64(r.passed) / float64(r.passed+r.failed)
}

// OK reports whether no check has failed so far.
func (r *Recorder) OK() bool {
	return r.failed == 0
}

// Records returns the per-check outcome entries in recording order.
func (r *Recorder) Records() []Record {
	return r.records
}

// Details returns a payload suitable for embedding in a published result
// document.
func (r *Recorder) Details() map[string]any {
	return map[string]any{
		"tests":   r.records,
		"passed":  r.passed,
		"failed":  r.failed,
		"skipped": r.skipped,
		"ratio":   r.Ratio(),
	}
}
