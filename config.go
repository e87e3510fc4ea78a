package campaign

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-campaign/flags"
)

// Config holds the application configuration
type Config struct {
	CatalogFile string        // Path to the campaign catalog
	Target      string        // Tier name, test case name, or "all" (empty runs everything)
	EnvFile     string        // Environment descriptor sourced before any test runs
	Clean       bool          // Clean resources after each test (inverse of --noclean)
	Report      bool          // Push results to the configured results store
	RunInterval time.Duration // Interval between campaign runs
	RunOnce     bool          // Indicates if the service should exit after one campaign run
	Log         log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger, catalogFile string) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if catalogFile == "" {
		return nil, errors.New("campaign catalog file is required")
	}

	absCatalog, err := filepath.Abs(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for catalog '%s': %w", catalogFile, err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	return &Config{
		CatalogFile: absCatalog,
		Target:      ctx.String(flags.Target.Name),
		EnvFile:     ctx.String(flags.EnvFile.Name),
		Clean:       !ctx.Bool(flags.NoClean.Name),
		Report:      ctx.Bool(flags.Report.Name),
		RunInterval: runInterval,
		RunOnce:     runOnce,
		Log:         logger,
	}, nil
}
