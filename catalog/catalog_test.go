package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "testcases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

const validDoc = `
tiers:
  - name: healthcheck
    order: 2
    ci_loop: "(daily)|(weekly)"
    description: "First verifications after deployment"
    testcases:
      - case_name: connection-check
        project_name: campaign
        blocking: true
        run:
          module: shell
          class: Command
          args:
            cmd: "true"
      - case_name: api-check
        project_name: campaign
        ci_loop: weekly
        run:
          module: shell
          class: Command
  - name: smoke
    order: 1
    ci_loop: daily
    description: "Fast sanity tier"
    testcases:
      - case_name: skeleton-check
        project_name: campaign
        run:
          module: testcase
          class: Skeleton
`

func TestCatalog(t *testing.T) {
	path := writeCatalog(t, validDoc)

	t.Run("source loading", func(t *testing.T) {
		tests := []struct {
			name    string
			cfg     Config
			wantErr bool
		}{
			{
				name:    "valid catalog",
				cfg:     Config{CatalogFile: path, CiLoop: "daily"},
				wantErr: false,
			},
			{
				name:    "missing catalog path",
				cfg:     Config{CiLoop: "daily"},
				wantErr: true,
			},
			{
				name:    "nonexistent file",
				cfg:     Config{CatalogFile: "nonexistent.yaml", CiLoop: "daily"},
				wantErr: true,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c, err := New(tt.cfg)
				if tt.wantErr {
					require.Error(t, err)
					return
				}
				require.NoError(t, err)
				require.NotNil(t, c.GetConfig(), "config should be loaded")
			})
		}
	})

	t.Run("tiers sorted by ascending order", func(t *testing.T) {
		c, err := New(Config{Log: log.New(), CatalogFile: path, CiLoop: "daily"})
		require.NoError(t, err)

		tiers := c.Tiers()
		require.Len(t, tiers, 2)
		assert.Equal(t, "smoke", tiers[0].Name())
		assert.Equal(t, "healthcheck", tiers[1].Name())
	})

	t.Run("ci loop filters test cases", func(t *testing.T) {
		c, err := New(Config{Log: log.New(), CatalogFile: path, CiLoop: "daily"})
		require.NoError(t, err)

		hc := c.Tier("healthcheck")
		require.NotNil(t, hc)
		require.Len(t, hc.Tests(), 1)
		assert.Equal(t, "connection-check", hc.Tests()[0].CaseName)
		require.Len(t, hc.SkippedTests(), 1)
		assert.Equal(t, "api-check", hc.SkippedTests()[0].CaseName)
		assert.Len(t, hc.AllTests(), 2)
	})

	t.Run("lookups", func(t *testing.T) {
		c, err := New(Config{Log: log.New(), CatalogFile: path, CiLoop: "daily"})
		require.NoError(t, err)

		def, tier := c.TestCase("connection-check")
		require.NotNil(t, def)
		assert.True(t, def.Blocking)
		assert.Equal(t, "healthcheck", tier.Name())

		// Filtered-out cases are not applicable.
		def, _ = c.TestCase("api-check")
		assert.Nil(t, def)
		assert.Equal(t, "healthcheck", c.TierNameOf("api-check"))

		spec := c.RunSpec("connection-check")
		require.NotNil(t, spec)
		assert.Equal(t, "shell.Command", spec.Key())
		assert.Equal(t, "true", spec.Args["cmd"])

		assert.Nil(t, c.Tier("bogus"))
		assert.Nil(t, c.RunSpec("bogus"))
	})
}

func TestCatalogTierMatches(t *testing.T) {
	path := writeCatalog(t, validDoc)
	c, err := New(Config{Log: log.New(), CatalogFile: path, CiLoop: "daily"})
	require.NoError(t, err)

	hc := c.Tier("healthcheck")
	assert.True(t, hc.Matches("daily"), "partial match is enough")
	assert.True(t, hc.Matches("weekly"))
	assert.False(t, hc.Matches("merge"))
}

func TestCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "duplicate case name across tiers",
			doc: `
tiers:
  - name: one
    order: 1
    ci_loop: daily
    testcases:
      - case_name: dup
        project_name: p
  - name: two
    order: 2
    ci_loop: daily
    testcases:
      - case_name: dup
        project_name: p
`,
		},
		{
			name: "duplicate case name within a tier",
			doc: `
tiers:
  - name: one
    order: 1
    ci_loop: daily
    testcases:
      - case_name: dup
        project_name: p
      - case_name: dup
        project_name: p
`,
		},
		{
			name: "unnamed test case",
			doc: `
tiers:
  - name: one
    order: 1
    ci_loop: daily
    testcases:
      - project_name: p
`,
		},
		{
			name: "unnamed tier",
			doc: `
tiers:
  - order: 1
    ci_loop: daily
    testcases:
      - case_name: a
        project_name: p
`,
		},
		{
			name: "malformed yaml",
			doc:  "tiers: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t, tt.doc)
			_, err := New(Config{Log: log.New(), CatalogFile: path, CiLoop: "daily"})
			require.Error(t, err)
		})
	}
}

func TestCatalogStableOrderTies(t *testing.T) {
	path := writeCatalog(t, `
tiers:
  - name: alpha
    order: 1
    ci_loop: daily
    testcases:
      - case_name: a
        project_name: p
  - name: beta
    order: 1
    ci_loop: daily
    testcases:
      - case_name: b
        project_name: p
`)
	c, err := New(Config{Log: log.New(), CatalogFile: path, CiLoop: "daily"})
	require.NoError(t, err)

	tiers := c.Tiers()
	require.Len(t, tiers, 2)
	assert.Equal(t, "alpha", tiers[0].Name(), "ties keep declaration order")
	assert.Equal(t, "beta", tiers[1].Name())
}

func TestCatalogEmptyCiLoopPatternAppliesEverywhere(t *testing.T) {
	path := writeCatalog(t, `
tiers:
  - name: one
    order: 1
    ci_loop: daily
    testcases:
      - case_name: always
        project_name: p
`)
	c, err := New(Config{Log: log.New(), CatalogFile: path, CiLoop: "merge"})
	require.NoError(t, err)
	require.Len(t, c.Tier("one").Tests(), 1)
}
