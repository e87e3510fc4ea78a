package campaign

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-campaign/catalog"
	"github.com/ethereum-optimism/infra/op-campaign/env"
	"github.com/ethereum-optimism/infra/op-campaign/exitcodes"
	"github.com/ethereum-optimism/infra/op-campaign/push"
	"github.com/ethereum-optimism/infra/op-campaign/runner"
	"github.com/ethereum-optimism/infra/op-campaign/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// campaign implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &Campaign{}

// Campaign runs the configured test campaign: it sources the deployment
// environment, builds a fresh runner per run, and maps the overall result
// onto the process exit path.
type Campaign struct {
	ctx     context.Context
	config  *Config
	version string
	catalog *catalog.Catalog
	result  types.OverallResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Campaign, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating campaign with config",
		"catalog", config.CatalogFile,
		"target", config.Target,
		"clean", config.Clean,
		"report", config.Report,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	// The env file must be sourced before the catalog filters test cases
	// against the ambient CI loop.
	if err := env.Source(config.EnvFile); err != nil {
		return nil, fmt.Errorf("failed to source env file: %w", err)
	}
	config.Log.Info("Deployment description", "env", "\n\n"+env.String()+"\n")

	cat, err := catalog.New(catalog.Config{
		Log:         config.Log,
		CatalogFile: config.CatalogFile,
		CiLoop:      env.Get("CI_LOOP"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	config.Log.Info("campaign.New: loaded catalog", "tiers", len(cat.Tiers()))

	return &Campaign{
		ctx:              ctx,
		config:           config,
		version:          version,
		catalog:          cat,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the campaign, once or periodically at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (c *Campaign) Start(ctx context.Context) error {
	// Panic recovery so runtime errors exit with code 2
	defer func() {
		if r := recover(); r != nil {
			c.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	c.ctx = ctx
	c.done = make(chan struct{})
	c.running.Store(true)

	if c.config.RunOnce {
		c.config.Log.Info("Starting op-campaign in run-once mode")
	} else {
		c.config.Log.Info("Starting op-campaign in continuous mode", "interval", c.config.RunInterval)
	}

	if err := c.runCampaign(ctx); err != nil {
		c.config.Log.Error("Runtime error running campaign", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	if c.config.RunOnce {
		c.config.Log.Info("Campaign completed, exiting (run-once mode)")

		if c.result == types.ResultError {
			c.config.Log.Warn("Run-once campaign completed with failures, returning exit code 1")
			return NewTestFailureError(fmt.Sprintf("campaign result: %s", c.result))
		}

		go func() {
			c.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.config.Log.Debug("Starting periodic campaign goroutine", "interval", c.config.RunInterval)

		for {
			select {
			case <-time.After(c.config.RunInterval):
				if !c.running.Load() {
					c.config.Log.Debug("Service stopped, exiting periodic campaign runner")
					return
				}
				c.config.Log.Info("Running periodic campaign")
				if err := c.runCampaign(ctx); err != nil {
					c.config.Log.Error("Error running periodic campaign", "error", err)
				}

			case <-c.done:
				c.config.Log.Debug("Done signal received, stopping periodic campaign runner")
				return

			case <-ctx.Done():
				c.config.Log.Debug("Context canceled, stopping periodic campaign runner")
				c.running.Store(false)
				return
			}
		}
	}()
	c.config.Log.Debug("op-campaign started successfully")
	return nil
}

// runCampaign executes one full campaign run with a fresh runner. The
// overall result is monotonic within a run, never across runs.
func (c *Campaign) runCampaign(ctx context.Context) error {
	run, err := runner.New(runner.Config{
		Catalog:   c.catalog,
		Log:       c.config.Log,
		Publisher: push.NewClient(c.config.Log),
		CiLoop:    env.Get("CI_LOOP"),
		Clean:     c.config.Clean,
		Report:    c.config.Report,
	})
	if err != nil {
		return NewRuntimeError(err)
	}

	c.result = run.Run(ctx, c.config.Target)
	c.config.Log.Info("Campaign run completed", "run_id", run.RunID(), "result", c.result)
	return nil
}

// Result returns the overall result of the most recent campaign run.
func (c *Campaign) Result() types.OverallResult {
	return c.result
}

// Stop stops the op-campaign service.
// Stop implements the cliapp.Lifecycle interface.
func (c *Campaign) Stop(ctx context.Context) error {
	c.config.Log.Info("Stopping op-campaign")

	if !c.running.Load() {
		c.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	c.running.Store(false)
	c.config.Log.Debug("Sending done signal to goroutines")
	close(c.done)

	c.config.Log.Info("op-campaign stopped successfully")
	return nil
}

// Stopped returns true if the op-campaign service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (c *Campaign) Stopped() bool {
	return !c.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (c *Campaign) WaitForShutdown(ctx context.Context) error {
	c.config.Log.Debug("Waiting for all goroutines to terminate")

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.config.Log.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		c.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}
