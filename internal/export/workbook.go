package export

import (
	"bytes"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/report"
)

const amountFormat = "#,##0.00"

var billHeader = []string{
	"ID", "Date", "Provider", "Description", "Category", "Amount",
	"Accident Related", "Matching Treatment", "Duplicate", "Risk", "Group",
}

// BillingWorkbook renders the report's bills as an Excel workbook with a
// line-item sheet and a summary sheet.
func BillingWorkbook(r *report.Report) ([]byte, error) {
	data := r.Data()
	f := xlsx.NewFile()

	bills, err := f.AddSheet("Bills")
	if err != nil {
		return nil, eris.Wrap(err, "failed to add bills sheet")
	}
	addStrings(bills.AddRow(), billHeader...)
	for _, b := range data.Bills {
		row := bills.AddRow()
		addStrings(row, b.ID, b.Date, b.Provider, b.Description, b.Category)
		row.AddCell().SetFloatWithFormat(b.Amount, amountFormat)
		addStrings(row,
			yesNo(b.IsAccidentRelated),
			yesNo(b.HasMatchingTreatment),
			yesNo(b.IsDuplicate),
			b.RiskScore,
			billing.GroupOf(b),
		)
	}

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return nil, eris.Wrap(err, "failed to add summary sheet")
	}
	totals := billing.Totals(data.Bills, r.Type)
	addAmount(summary, "Total Billed", totals.Total)
	addAmount(summary, "Accident-Attributable", totals.AccidentRelated)
	addAmount(summary, "Unrelated/Unsupported", totals.Unrelated)

	summary.AddRow()
	addStrings(summary.AddRow(), "Category", "Amount", "Bills")
	for _, s := range billing.CategorySubtotals(data.Bills) {
		addSubtotal(summary, s)
	}
	summary.AddRow()
	addStrings(summary.AddRow(), "Group", "Amount", "Bills")
	for _, s := range billing.GroupSubtotals(data.Bills) {
		addSubtotal(summary, s)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, eris.Wrap(err, "failed to write workbook")
	}
	return buf.Bytes(), nil
}

func addStrings(row *xlsx.Row, vals ...string) {
	for _, v := range vals {
		row.AddCell().SetString(v)
	}
}

func addAmount(sheet *xlsx.Sheet, label string, v float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloatWithFormat(v, amountFormat)
}

func addSubtotal(sheet *xlsx.Sheet, s billing.Subtotal) {
	row := sheet.AddRow()
	row.AddCell().SetString(s.Label)
	row.AddCell().SetFloatWithFormat(s.Amount, amountFormat)
	row.AddCell().SetInt(s.Count)
}
