package testcase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum-optimism/infra/op-campaign/checks"
	"github.com/ethereum-optimism/infra/op-campaign/types"
)

// CheckFunc is one fine-grained check run inside a Suite. A nil return is a
// pass; checks.ErrSkip marks the check skipped; any other error is a fail.
type CheckFunc func(ctx context.Context) error

var (
	checkMu  sync.RWMutex
	checkSet = make(map[string]CheckFunc)
)

// RegisterCheck maps a check name to its function for use by Suite cases.
func RegisterCheck(name string, f CheckFunc) {
	checkMu.Lock()
	defer checkMu.Unlock()
	if _, dup := checkSet[name]; dup {
		panic(fmt.Sprintf("testcase: RegisterCheck called twice for %q", name))
	}
	checkSet[name] = f
}

func lookupCheck(name string) (CheckFunc, bool) {
	checkMu.RLock()
	defer checkMu.RUnlock()
	f, ok := checkSet[name]
	return f, ok
}

// Suite runs a batch of registered checks through a session-scoped recorder
// and scores the pass ratio. The run-spec args name the checks:
// {"checks": ["a", "b"]}. The ratio feeds reporting; the pass/fail verdict
// is simply "no check failed".
type Suite struct {
	Base
	Recorder *checks.Recorder
}

func init() {
	Register("checks.Suite", func(def types.TestCaseConfig, opts Options) (TestCase, error) {
		return &Suite{Base: NewBase(def, opts.Log, opts.Publisher)}, nil
	})
}

func (s *Suite) Run(ctx context.Context, args map[string]any) error {
	s.Start()
	defer s.Stop()

	names, err := checkNames(args)
	if err != nil {
		return fmt.Errorf("test case %s: %w", s.Name(), err)
	}

	s.Recorder = checks.NewRecorder()
	for _, name := range names {
		f, ok := lookupCheck(name)
		if !ok {
			s.Log.Error("Unknown check, skipping", "case", s.Name(), "check", name)
			s.Recorder.Skip(name, "not registered")
			continue
		}
		switch err := f(ctx); {
		case err == nil:
			s.Recorder.Pass(name, "")
		case errors.Is(err, checks.ErrSkip):
			s.Recorder.Skip(name, err.Error())
		default:
			s.Log.Error("Check failed", "case", s.Name(), "check", name, "err", err)
			s.Recorder.Fail(name, err.Error())
		}
	}

	s.Details = s.Recorder.Details()
	if s.Recorder.OK() {
		s.Result = 100
	} else {
		s.Result = 100 * s.Recorder.Ratio()
	}
	return nil
}

// IsSuccessful: a suite passes iff no check failed. The recorded ratio is a
// reporting-only metric and never gates the verdict.
func (s *Suite) IsSuccessful() types.Outcome {
	if s.Recorder == nil {
		return types.OutcomeRunError
	}
	if s.Recorder.OK() {
		return types.OutcomeOK
	}
	return types.OutcomeTestcaseFailed
}

func checkNames(args map[string]any) ([]string, error) {
	raw, ok := args["checks"]
	if !ok {
		return nil, fmt.Errorf("run spec has no checks argument")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("checks argument must be a list")
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		name, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("check names must be strings, got %T", item)
		}
		names = append(names, name)
	}
	return names, nil
}
