// Package runner sequences the test cases of a campaign catalog: one test,
// one tier, or everything, with blocking-failure propagation and a
// monotonic overall result.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-campaign/catalog"
	"github.com/ethereum-optimism/infra/op-campaign/metrics"
	"github.com/ethereum-optimism/infra/op-campaign/push"
	"github.com/ethereum-optimism/infra/op-campaign/reporter"
	"github.com/ethereum-optimism/infra/op-campaign/testcase"
	"github.com/ethereum-optimism/infra/op-campaign/types"
)

// TargetAll selects every applicable tier.
const TargetAll = "all"

// ErrBlockingTestFailed is the structural short-circuit raised when a test
// marked blocking fails. It unwinds straight to the top-level entry point;
// callers detect it with errors.Is and treat it as normal termination.
var ErrBlockingTestFailed = errors.New("blocking test case failed")

// TestNotEnabledError reports that a selected test does not apply to the
// current context. It propagates to the immediate caller of RunTest and is
// never escalated to the overall result by the runner itself.
type TestNotEnabledError struct {
	Name string
}

func (e *TestNotEnabledError) Error() string {
	return fmt.Sprintf("test case %s is not enabled", e.Name)
}

// ConfigurationMissingError reports that the catalog has no runnable entry
// for a requested test case.
type ConfigurationMissingError struct {
	Name string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("no run configuration for test case %s", e.Name)
}

// Config holds configuration for creating a Runner.
type Config struct {
	Catalog   *catalog.Catalog
	Log       log.Logger
	Publisher *push.Client
	CiLoop    string    // active CI-loop identifier
	Clean     bool      // invoke Clean() after each test
	Report    bool      // invoke PushToDB() after each test
	Out       io.Writer // plan/summary destination, defaults to stdout
}

// Runner drives test cases through their lifecycle. It exclusively owns the
// executed-test registry and the overall result for the lifetime of one
// run; create a fresh Runner per run.
type Runner struct {
	catalog   *catalog.Catalog
	log       log.Logger
	publisher *push.Client
	ciLoop    string
	clean     bool
	report    bool
	out       io.Writer

	executed *ExecutedRegistry
	overall  types.OverallResult
	runID    string
	tracer   trace.Tracer
}

// New creates a runner for one campaign run.
func New(cfg Config) (*Runner, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Runner{
		catalog:   cfg.Catalog,
		log:       cfg.Log,
		publisher: cfg.Publisher,
		ciLoop:    cfg.CiLoop,
		clean:     cfg.Clean,
		report:    cfg.Report,
		out:       cfg.Out,
		executed:  NewExecutedRegistry(),
		overall:   types.ResultOK,
		runID:     uuid.New().String(),
		tracer:    otel.Tracer("campaign runner"),
	}, nil
}

// Overall returns the overall result so far. It is monotonic: once ERROR it
// never reverts to OK within this run.
func (r *Runner) Overall() types.OverallResult { return r.overall }

// Executed returns the registry of test cases attempted in this run.
func (r *Runner) Executed() *ExecutedRegistry { return r.executed }

// RunID returns the unique identifier of this run.
func (r *Runner) RunID() string { return r.runID }

func (r *Runner) escalate() {
	r.overall = types.ResultError
}

// RunTest drives one test case through its lifecycle and returns the
// test's own verdict. Faults inside the test are contained here: they are
// logged and classified as a run error, never allowed to abort the process.
func (r *Runner) RunTest(ctx context.Context, def types.TestCaseConfig) (types.Outcome, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("test %s", def.CaseName))
	defer span.End()

	r.log.Info("Running test case...", "case", def.CaseName)

	spec := r.catalog.RunSpec(def.CaseName)
	if spec == nil {
		r.log.Error("Cannot get run configuration", "case", def.CaseName)
		return types.OutcomeRunError, &ConfigurationMissingError{Name: def.CaseName}
	}

	r.log.Info("Loading test case...", "case", def.CaseName, "run", spec.Key())
	tc, err := testcase.New(*spec, def, testcase.Options{Log: r.log, Publisher: r.publisher})
	if err != nil {
		// A bad module/class reference is a run error, not a test failure.
		r.log.Error("Cannot load test case", "case", def.CaseName, "run", spec.Key(), "err", err)
		return types.OutcomeRunError, nil
	}

	if !tc.IsEnabled() {
		return types.OutcomeRunError, &TestNotEnabledError{Name: def.CaseName}
	}

	r.executed.Record(def.CaseName, tc)

	result := r.runContained(ctx, tc, spec.Args)

	if result == types.OutcomeOK {
		r.executed.SetStatus(def.CaseName, types.StatusPassed)
	} else {
		r.executed.SetStatus(def.CaseName, types.StatusFailed)
	}
	return result, nil
}

// runContained drives the whole post-construction lifecycle of one test
// case: run, optional publish, verdict, optional clean. A panic anywhere
// inside — the run itself, PushToDB, IsSuccessful, String or Clean — is
// recovered here and classified as a run error, so one faulty test never
// unwinds through the orchestrator or suppresses the summary.
func (r *Runner) runContained(ctx context.Context, tc testcase.TestCase, args map[string]any) (result types.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Test case raised an uncaught fault; all faults should be caught by the test case instead",
				"case", tc.Name(), "err", rec)
			result = types.OutcomeRunError
		}
	}()

	if err := tc.Run(ctx, args); err != nil {
		r.log.Error("Test case raised an uncaught fault; all faults should be caught by the test case instead",
			"case", tc.Name(), "err", err)
		return types.OutcomeRunError
	}

	if r.report {
		if err := tc.PushToDB(ctx); err != nil {
			r.log.Error("Cannot push result to database", "case", tc.Name(), "err", err)
		}
	}

	result = tc.IsSuccessful()
	r.log.Info("Test result", "case", tc.Name(), "result", result, "detail", "\n\n"+tc.String()+"\n")

	if r.clean {
		tc.Clean()
	}
	return result
}

// RunTier runs every applicable test of the tier in declaration order. A
// tier with zero applicable tests is a failure signal (it usually means a
// misconfigured scenario), not a no-op. A failing blocking test returns
// ErrBlockingTestFailed so nothing later in this run executes.
func (r *Runner) RunTier(ctx context.Context, tier *catalog.Tier) (types.OverallResult, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("tier %s", tier.Name()))
	defer span.End()

	tests := tier.Tests()
	if len(tests) == 0 {
		r.log.Info("There are no supported test cases in this tier for the given scenario", "tier", tier.Name())
		r.escalate()
		return r.overall, nil
	}

	r.log.Info("Running tier", "tier", tier.Name())
	for _, def := range tests {
		if _, err := r.RunTest(ctx, def); err != nil {
			return r.overall, err
		}
		outcome := types.OutcomeRunError
		if tc, ok := r.executed.Get(def.CaseName); ok {
			outcome = tc.IsSuccessful()
		}
		if outcome != types.OutcomeOK {
			r.log.Error("The test case failed", "case", def.CaseName, "result", outcome)
			r.escalate()
			if def.Blocking {
				return r.overall, fmt.Errorf("%w: %s", ErrBlockingTestFailed, def.CaseName)
			}
		}
	}
	return r.overall, nil
}

// RunAll executes every tier that has applicable tests and whose ci_loop
// pattern matches the active CI loop, in ascending order.
func (r *Runner) RunAll(ctx context.Context) error {
	var toRun []*catalog.Tier
	for _, tier := range r.catalog.Tiers() {
		if len(tier.Tests()) > 0 && tier.Matches(r.ciLoop) {
			toRun = append(toRun, tier)
		}
	}

	r.log.Info("Tests to be executed", "plan", "\n\n"+reporter.Plan(toRun)+"\n")
	fmt.Fprintln(r.out, reporter.Plan(toRun))

	for _, tier := range toRun {
		if _, err := r.RunTier(ctx, tier); err != nil {
			return err
		}
	}
	return nil
}

// Run is the top-level entry point. The target selects a tier, a single
// test case, or "all" (the default when empty). A blocking-test failure
// raised from tier execution is normal termination; any other orchestration
// fault is logged and forces ERROR. The summary is always rendered
// afterwards, scoped to the targeted tier when one was named, except for an
// unknown target, which is an immediate ERROR with nothing executed.
func (r *Runner) Run(ctx context.Context, target string) types.OverallResult {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("campaign run %s", r.runID))
	defer span.End()

	start := time.Now()
	var scoped *catalog.Tier

	err := func() error {
		switch {
		case target == "" || target == TargetAll:
			return r.RunAll(ctx)
		case r.catalog.Tier(target) != nil:
			scoped = r.catalog.Tier(target)
			_, err := r.RunTier(ctx, scoped)
			return err
		default:
			def, tier := r.catalog.TestCase(target)
			if def == nil {
				return errUnknownTarget
			}
			scoped = tier
			outcome, err := r.RunTest(ctx, *def)
			if err != nil {
				return err
			}
			// Ad hoc single-test runs are deliberately not subject to
			// blocking escalation; only the verdict counts.
			if outcome == types.OutcomeTestcaseFailed {
				r.log.Error("The test case failed", "case", target)
				r.escalate()
			}
			return nil
		}
	}()

	switch {
	case err == nil:
	case errors.Is(err, errUnknownTarget):
		r.log.Error("Unknown test case or tier, or not supported by the given scenario",
			"target", target, "scenario", r.ciLoop)
		r.escalate()
		return r.overall
	case errors.Is(err, ErrBlockingTestFailed):
		r.log.Error("Blocking test case failed, aborting run", "err", err)
	default:
		r.log.Error("Failures when running test case(s)", "err", err)
		r.escalate()
	}

	r.summary(scoped)
	r.recordMetrics(time.Since(start))
	r.log.Info("Execution exit value", "result", r.overall)
	return r.overall
}

var errUnknownTarget = errors.New("unknown target")

// summary renders the final report, scoped to one tier or the whole
// catalog.
func (r *Runner) summary(scoped *catalog.Tier) {
	tiers := r.catalog.Tiers()
	if scoped != nil {
		tiers = []*catalog.Tier{scoped}
	}
	out := reporter.Summary(tiers, r.executed.Lookup)
	r.log.Info("Campaign report", "report", "\n\n"+out+"\n")
	fmt.Fprintln(r.out, out)
}

// recordMetrics emits per-test and campaign-level metrics for this run.
func (r *Runner) recordMetrics(duration time.Duration) {
	var passed, failed int
	for _, name := range r.executed.Names() {
		tc, _ := r.executed.Get(name)
		outcome := tc.IsSuccessful()
		metrics.RecordTestResult(r.ciLoop, r.runID, name, outcome)
		if outcome == types.OutcomeOK {
			passed++
		} else {
			failed++
		}
	}
	metrics.RecordCampaign(r.ciLoop, r.runID, r.overall.String(), passed+failed, passed, failed, duration)
}
