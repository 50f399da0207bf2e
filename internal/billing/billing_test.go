package billing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/claims-console/internal/report"
)

func TestTotalsMVPUsesOverrides(t *testing.T) {
	p := report.NewProvider()

	for _, bills := range [][]report.BillItem{
		p.ClaimReportData("2").Bills,
		nil,
		{{ID: "x", Amount: 1, IsAccidentRelated: true}},
	} {
		s := Totals(bills, report.TypeMVP)
		assert.Equal(t, 33323.72, s.AccidentRelated)
		assert.Equal(t, 8178.05, s.Unrelated)
		assert.Equal(t, 41501.77, s.Total)
	}
}

func TestTotalsFullSumsAmounts(t *testing.T) {
	bills := report.NewProvider().ClaimReportData("1").Bills

	var related, unrelated float64
	for _, b := range bills {
		if b.IsAccidentRelated {
			related += b.Amount
		} else {
			unrelated += b.Amount
		}
	}

	s := Totals(bills, report.TypeFull)
	assert.Equal(t, related, s.AccidentRelated)
	assert.Equal(t, unrelated, s.Unrelated)
	assert.Equal(t, related+unrelated, s.Total)
	assert.InDelta(t, 33323.72, s.AccidentRelated, 0.001)
	assert.InDelta(t, 8178.05, s.Unrelated, 0.001)
}

func TestCategorySubtotalsFirstAppearanceOrder(t *testing.T) {
	bills := report.NewProvider().ClaimReportData("2").Bills
	subs := CategorySubtotals(bills)

	labels := make([]string, len(subs))
	for i, s := range subs {
		labels[i] = s.Label
	}
	assert.Equal(t, []string{"Surgery", "Imaging", "Office Visit", "Pharmacy", "Physical Therapy"}, labels)
	assert.Equal(t, 3, subs[0].Count)
	assert.InDelta(t, 5932.12, subs[1].Amount, 0.001)
}

func TestGroupSubtotals(t *testing.T) {
	bills := []report.BillItem{
		{Category: "Imaging", Amount: 100},
		{Category: "Surgery", Amount: 1000},
		{Category: "Surgery", Amount: 50, TreatmentType: "diagnostic"},
		{Category: "Office Visit", Amount: 10},
	}
	got := GroupSubtotals(bills)
	require.Len(t, got, 2)
	assert.Equal(t, Subtotal{Label: GroupDiagnostic, Amount: 160, Count: 3}, got[0])
	assert.Equal(t, Subtotal{Label: GroupCurative, Amount: 1000, Count: 1}, got[1])

	empty := GroupSubtotals(nil)
	assert.Equal(t, 0.0, empty[0].Amount)
	assert.Equal(t, 0.0, empty[1].Amount)
}

func TestHighImpact(t *testing.T) {
	bills := report.NewProvider().ClaimReportData("1").Bills
	top := HighImpact(bills, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "2", top[0].ID)
	assert.Equal(t, "1", top[1].ID)
	assert.Equal(t, "3", top[2].ID)
	assert.Equal(t, "1", bills[0].ID, "input must not be reordered")

	ties := HighImpact([]report.BillItem{{ID: "a", Amount: 5}, {ID: "b", Amount: 5}}, 0)
	assert.Equal(t, "a", ties[0].ID)
	assert.Equal(t, "b", ties[1].ID)
}

func TestRiskOnly(t *testing.T) {
	bills := report.NewProvider().ClaimReportData("1").Bills
	var ids []string
	for _, b := range RiskOnly(bills) {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"3", "5", "6", "8"}, ids)
}

func TestRiskOnlyUsesRiskScore(t *testing.T) {
	bills := []report.BillItem{
		{ID: "dup", RiskScore: report.LevelLow, IsDuplicate: true, HasMatchingTreatment: true},
		{ID: "unmatched", RiskScore: report.LevelLow},
		{ID: "medium", RiskScore: report.LevelMedium, HasMatchingTreatment: true},
		{ID: "high", RiskScore: report.LevelHigh, HasMatchingTreatment: true},
	}
	var ids []string
	for _, b := range RiskOnly(bills) {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"medium", "high"}, ids)
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("en-US")
	assert.Equal(t, "$41,501.77", f.Format(41501.77))
	assert.Equal(t, "$2,400.00", f.Format(2400))
	assert.Equal(t, "$0.10", f.Format(0.1))
	assert.Equal(t, "-$345.00", f.Format(-345))

	fallback := NewFormatter("not a locale!")
	assert.Equal(t, "$1,000.00", fallback.Format(1000))
}

func TestFormatterSymbolPlacement(t *testing.T) {
	de := NewFormatter("de-DE")
	assert.Equal(t, "41.501,77 €", de.Format(41501.77))
	assert.Equal(t, "-345,00 €", de.Format(-345))

	fr := NewFormatter("fr-FR").Format(41501.77)
	assert.True(t, strings.HasSuffix(fr, " €"), fr)
	assert.True(t, strings.HasPrefix(fr, "41"), fr)
	assert.Contains(t, fr, "501,77")

	assert.Equal(t, "£1,000.00", NewFormatter("en-GB").Format(1000))
}

func TestFormatterRoundsBeforeSign(t *testing.T) {
	assert.Equal(t, "$0.00", NewFormatter("en-US").Format(-0.001))
	assert.Equal(t, "0,00 €", NewFormatter("de-DE").Format(-0.004))
	assert.Equal(t, "-$0.01", NewFormatter("en-US").Format(-0.006))
}
