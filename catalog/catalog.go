// Package catalog loads the declarative campaign catalog: ordered tiers of
// test-case definitions, filtered by CI-loop applicability.
package catalog

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-campaign/types"
)

// Tier is an ordered, named collection of test-case definitions sharing an
// execution phase and CI-loop applicability.
type Tier struct {
	cfg     types.TierConfig
	tests   []types.TestCaseConfig // applicable to the active CI loop
	skipped []types.TestCaseConfig // filtered out by CI-loop mismatch
}

func (t *Tier) Name() string        { return t.cfg.Name }
func (t *Tier) Order() int          { return t.cfg.Order }
func (t *Tier) CiLoop() string      { return t.cfg.CiLoop }
func (t *Tier) Description() string { return t.cfg.Description }

// Tests returns the definitions applicable to the active CI loop, in
// declaration order. Execution order equals declaration order.
func (t *Tier) Tests() []types.TestCaseConfig { return t.tests }

// SkippedTests returns the definitions filtered out by CI-loop mismatch,
// in declaration order.
func (t *Tier) SkippedTests() []types.TestCaseConfig { return t.skipped }

// AllTests returns every declared definition in catalog declaration order,
// applicable or not. Summaries render one row per declared test.
func (t *Tier) AllTests() []types.TestCaseConfig { return t.cfg.TestCases }

// TestNames returns the space-joined applicable test names for plan output.
func (t *Tier) TestNames() string {
	names := make([]string, 0, len(t.tests))
	for _, tc := range t.tests {
		names = append(names, tc.CaseName)
	}
	return strings.Join(names, " ")
}

// Matches reports whether this tier applies to the given CI loop. The tier
// pattern is matched partially, not anchored.
func (t *Tier) Matches(ciLoop string) bool {
	re, err := regexp.Compile(t.cfg.CiLoop)
	if err != nil {
		log.Error("Invalid tier ci_loop pattern", "tier", t.cfg.Name, "pattern", t.cfg.CiLoop, "err", err)
		return false
	}
	return re.MatchString(ciLoop)
}

// Config contains catalog configuration.
type Config struct {
	Log         log.Logger
	CatalogFile string
	CiLoop      string // active CI-loop identifier used to filter test cases
}

// Catalog manages the loaded tiers and their test-case definitions.
type Catalog struct {
	config Config
	tiers  []*Tier
	mu     sync.RWMutex
}

// New creates a catalog from the configured YAML file.
func New(cfg Config) (*Catalog, error) {
	if cfg.CatalogFile == "" {
		return nil, fmt.Errorf("catalog file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	c := &Catalog{config: cfg}
	if err := c.load(cfg.CatalogFile); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	cfg.Log.Debug("Catalog loaded", "len(tiers)", len(c.tiers))
	return c, nil
}

func (c *Catalog) load(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := validate(doc); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	tiers := make([]*Tier, 0, len(doc.Tiers))
	for _, tc := range doc.Tiers {
		tiers = append(tiers, c.buildTier(tc))
	}
	// Tiers execute in ascending order. Ties keep declaration order.
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Order() < tiers[j].Order()
	})
	c.tiers = tiers
	return nil
}

// buildTier splits a tier's test cases into applicable and skipped sets
// against the active CI loop. An empty case pattern applies everywhere.
func (c *Catalog) buildTier(cfg types.TierConfig) *Tier {
	t := &Tier{cfg: cfg}
	for _, tc := range cfg.TestCases {
		if tc.CiLoop == "" {
			t.tests = append(t.tests, tc)
			continue
		}
		re, err := regexp.Compile(tc.CiLoop)
		if err != nil {
			c.config.Log.Error("Invalid test ci_loop pattern, skipping test",
				"test", tc.CaseName, "pattern", tc.CiLoop, "err", err)
			t.skipped = append(t.skipped, tc)
			continue
		}
		if re.MatchString(c.config.CiLoop) {
			t.tests = append(t.tests, tc)
		} else {
			t.skipped = append(t.skipped, tc)
		}
	}
	return t
}

// validate enforces the catalog invariants: every test case is named and no
// case name appears twice anywhere in the catalog.
func validate(doc *types.CatalogConfig) error {
	seen := make(map[string]string) // case name -> tier name
	for _, tier := range doc.Tiers {
		if tier.Name == "" {
			return fmt.Errorf("tier with order %d has no name", tier.Order)
		}
		for _, tc := range tier.TestCases {
			if tc.CaseName == "" {
				return fmt.Errorf("tier %q contains an unnamed test case", tier.Name)
			}
			if prev, ok := seen[tc.CaseName]; ok {
				return fmt.Errorf("duplicate test case %q (tiers %q and %q)", tc.CaseName, prev, tier.Name)
			}
			seen[tc.CaseName] = tier.Name
		}
	}
	return nil
}

// Tiers returns all tiers in ascending execution order.
func (c *Catalog) Tiers() []*Tier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tiers
}

// Tier returns the tier with the given name, or nil.
func (c *Catalog) Tier(name string) *Tier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tiers {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// TestCase returns the applicable definition with the given case name and
// its owning tier, or nil when no applicable test case matches.
func (c *Catalog) TestCase(name string) (*types.TestCaseConfig, *Tier) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tiers {
		for i := range t.tests {
			if t.tests[i].CaseName == name {
				return &t.tests[i], t
			}
		}
	}
	return nil, nil
}

// TierNameOf returns the name of the tier declaring the given case name.
func (c *Catalog) TierNameOf(caseName string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tiers {
		for _, tc := range append(t.tests[:len(t.tests):len(t.tests)], t.skipped...) {
			if tc.CaseName == caseName {
				return t.Name()
			}
		}
	}
	return ""
}

// RunSpec returns the run block for the given case name, or nil when the
// catalog has no runnable entry for it.
func (c *Catalog) RunSpec(caseName string) *types.RunSpec {
	def, _ := c.TestCase(caseName)
	if def == nil {
		return nil
	}
	return def.Run
}

// GetConfig returns the catalog configuration.
func (c *Catalog) GetConfig() Config {
	return c.config
}

// loadConfig loads a campaign catalog from a file.
func loadConfig(path string) (*types.CatalogConfig, error) {
	log.Debug("Reading campaign catalog file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var doc types.CatalogConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	return &doc, nil
}
