package testcase

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-campaign/types"
)

// Shell runs a shell command and scores a full result when it exits zero.
// The command comes from the run-spec args: {"cmd": "..."}.
type Shell struct {
	Base
	Output string
}

func init() {
	Register("shell.Command", func(def types.TestCaseConfig, opts Options) (TestCase, error) {
		return &Shell{Base: NewBase(def, opts.Log, opts.Publisher)}, nil
	})
}

// Run executes the configured command. A non-zero exit is a test failure
// recorded in the result, not an error; a missing or malformed cmd arg is
// an uncaught fault for the orchestrator to classify.
func (s *Shell) Run(ctx context.Context, args map[string]any) error {
	s.Start()
	defer s.Stop()

	cmdline, ok := args["cmd"].(string)
	if !ok || cmdline == "" {
		return fmt.Errorf("test case %s: run spec has no cmd argument", s.Name())
	}

	s.Log.Info("Running shell test case", "case", s.Name(), "cmd", cmdline)
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
	out, err := cmd.CombinedOutput()
	s.Output = stripansi.Strip(string(out))
	s.Details = map[string]any{"output": s.Output}

	if err != nil {
		if _, isExit := err.(*exec.ExitError); !isExit {
			return fmt.Errorf("test case %s: starting command: %w", s.Name(), err)
		}
		s.Log.Error("Shell test case failed", "case", s.Name(), "err", err, "output", s.Output)
		s.Result = 0
		return nil
	}
	s.Result = 100
	return nil
}
