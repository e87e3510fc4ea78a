package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "OP_CAMPAIGN"

var (
	Catalog = &cli.StringFlag{
		Name:     "catalog",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "CATALOG"),
		Usage:    "Path to the campaign catalog file (eg. 'testcases.yaml')",
	}
	Target = &cli.StringFlag{
		Name:    "test",
		Aliases: []string{"t"},
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEST"),
		Usage:   "Test case or tier (group of tests) to be executed. Runs everything if not specified.",
	}
	NoClean = &cli.BoolFlag{
		Name:    "noclean",
		Aliases: []string{"n"},
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NOCLEAN"),
		Usage:   "Do not clean resources after running each test (default=false).",
	}
	Report = &cli.BoolFlag{
		Name:    "report",
		Aliases: []string{"r"},
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT"),
		Usage:   "Push results to the configured results store (default=false).",
	}
	EnvFile = &cli.StringFlag{
		Name:    "env-file",
		Value:   "env_file",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ENV_FILE"),
		Usage:   "Path to the environment descriptor sourced before any test runs. A missing file is ignored.",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between campaign runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
)

var requiredFlags = []cli.Flag{
	Catalog,
}

var optionalFlags = []cli.Flag{
	Target,
	NoClean,
	Report,
	EnvFile,
	RunInterval,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
