// Package reporter renders the pre-run plan and the final summary of a
// campaign as tables.
package reporter

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-campaign/catalog"
	"github.com/ethereum-optimism/infra/op-campaign/testcase"
	"github.com/ethereum-optimism/infra/op-campaign/types"
)

const (
	resultPass = "PASS"
	resultFail = "FAIL"
	resultSkip = "SKIP"

	zeroDuration = "00:00"
)

// Lookup resolves a case name to its executed handle, reporting whether the
// case was attempted in this run.
type Lookup func(name string) (testcase.TestCase, bool)

// Plan renders the tiers about to execute: name, order, CI loop,
// description and the space-joined applicable test names.
func Plan(tiers []*catalog.Tier) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"TIERS", "ORDER", "CI LOOP", "DESCRIPTION", "TEST CASES"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "ORDER", Align: text.AlignRight},
		{Name: "DESCRIPTION", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "TEST CASES", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, tier := range tiers {
		t.AppendRow(table.Row{tier.Name(), tier.Order(), tier.CiLoop(), tier.Description(), tier.TestNames()})
	}
	return t.Render()
}

// Summary renders exactly one row per test declared in the given tiers:
// PASS/FAIL with the measured duration for executed tests, SKIP with a zero
// duration for tests never attempted. Rows follow tier order, then
// declaration order within each tier.
func Summary(tiers []*catalog.Tier, executed Lookup) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"TEST CASE", "PROJECT", "TIER", "DURATION", "RESULT"})
	for _, tier := range tiers {
		for _, def := range tier.AllTests() {
			tc, ok := executed(def.CaseName)
			if !ok {
				t.AppendRow(table.Row{def.CaseName, def.ProjectName, tier.Name(), zeroDuration, resultSkip})
				continue
			}
			result := resultFail
			if tc.IsSuccessful() == types.OutcomeOK {
				result = resultPass
			}
			t.AppendRow(table.Row{tc.Name(), tc.Project(), tier.Name(), testcase.FormatDuration(tc.Duration()), result})
		}
	}
	return t.Render()
}
