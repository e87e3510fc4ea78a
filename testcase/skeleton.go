package testcase

import (
	"context"

	"github.com/ethereum-optimism/infra/op-campaign/types"
)

// Skeleton is an always-passing placeholder used to validate catalog and
// orchestrator wiring before real test cases exist.
type Skeleton struct {
	Base
}

func init() {
	Register("testcase.Skeleton", func(def types.TestCaseConfig, opts Options) (TestCase, error) {
		return &Skeleton{Base: NewBase(def, opts.Log, opts.Publisher)}, nil
	})
}

func (s *Skeleton) Run(ctx context.Context, args map[string]any) error {
	s.Start()
	defer s.Stop()
	s.Log.Info("Running skeleton test case", "case", s.Name())
	s.Result = 100
	return nil
}
