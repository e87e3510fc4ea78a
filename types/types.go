package types

import "gopkg.in/yaml.v3"

// Outcome is the verdict a test case reports for itself after running.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeTestcaseFailed Outcome = "testcase_failed"
	OutcomeRunError       Outcome = "run_error"
)

// Status tracks the orchestrator's bookkeeping for a test handle. It is
// distinct from Outcome: Status answers "what did the orchestrator do with
// this test", Outcome answers "what did the test say about itself".
type Status string

const (
	StatusNotRun  Status = "NOT_RUN"
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// OverallResult is the two-valued, process-wide outcome of a campaign run.
// Once escalated to ResultError it is never reset by a later success.
type OverallResult int

const (
	ResultOK OverallResult = iota
	ResultError
)

func (r OverallResult) String() string {
	if r == ResultOK {
		return "OK"
	}
	return "ERROR"
}

// RunSpec references the executable unit of a test case: a registered
// module/class identifier plus optional keyword arguments.
type RunSpec struct {
	Module string         `yaml:"module"`
	Class  string         `yaml:"class"`
	Args   map[string]any `yaml:"args,omitempty"`
}

// Key returns the registry lookup key for the run spec.
func (s RunSpec) Key() string {
	return s.Module + "." + s.Class
}

// TestCaseConfig is one test-case definition from the campaign catalog.
type TestCaseConfig struct {
	CaseName    string    `yaml:"case_name"`
	ProjectName string    `yaml:"project_name"`
	Criteria    yaml.Node `yaml:"criteria,omitempty"` // opaque to the core
	CiLoop      string    `yaml:"ci_loop,omitempty"`  // regexp; empty matches everything
	Blocking    bool      `yaml:"blocking,omitempty"`
	Run         *RunSpec  `yaml:"run,omitempty"`
}

// CriteriaValue decodes the opaque criteria scalar into v. It returns false
// when no criteria is set.
func (c *TestCaseConfig) CriteriaValue(v any) bool {
	if c.Criteria.IsZero() {
		return false
	}
	return c.Criteria.Decode(v) == nil
}

// TierConfig is one tier definition from the campaign catalog.
type TierConfig struct {
	Name        string           `yaml:"name"`
	Order       int              `yaml:"order"`
	CiLoop      string           `yaml:"ci_loop"`
	Description string           `yaml:"description"`
	TestCases   []TestCaseConfig `yaml:"testcases"`
}

// CatalogConfig is the root of the campaign catalog document.
type CatalogConfig struct {
	Tiers []TierConfig `yaml:"tiers"`
}
