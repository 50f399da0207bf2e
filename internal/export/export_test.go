package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

func loadReport(id string) *report.Report {
	name := "Johnson v. Metro Transit Authority"
	if id == "2" {
		name = "Smith – Rear-End Collision MVA"
	}
	return report.NewProvider().Load(store.Claim{
		ID: id, Name: name, Status: store.StatusReady, FileCount: 12, AccidentDate: "2005-01-23",
	})
}

func newService(t *testing.T, nextSteps bool) *Service {
	t.Helper()
	s, err := NewService(func(_ context.Context, id string) (*report.Report, error) {
		if id == "404" {
			return nil, store.ErrClaimNotFound
		}
		return loadReport(id), nil
	}, nil, nextSteps)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" MD-Billing ")
	require.NoError(t, err)
	assert.Equal(t, FormatMDBilling, f)

	_, err = ParseFormat("rtf")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	assert.Len(t, Options, 12)
}

func TestRenderMarkdownFull(t *testing.T) {
	g, err := report.LoadGuidance()
	require.NoError(t, err)

	md := RenderMarkdown(loadReport("1"), MarkdownOptions{Guidance: g, NextSteps: true})

	for _, heading := range []string{
		"# Full Report: Luke Frazza",
		"## Executive Summary",
		"## Medical Narrative",
		"### Medical Timeline",
		"### Contradictions & Inconsistencies",
		"### Treatment-to-Diagnosis Mapping",
		"### High Impact Bills",
		"## Next Steps",
		"### Reserve Guidance",
	} {
		assert.Contains(t, md, heading+"\n")
	}
	assert.Contains(t, md, "Total billed: $41,501.77")
	assert.Contains(t, md, "| Initial Evaluation - Misc coded | Diagnostic | Unsupported |")
	assert.Less(t, strings.Index(md, "## Executive Summary"), strings.Index(md, "## Medical Billing Review"))
}

func TestRenderSection(t *testing.T) {
	body := RenderSection(loadReport("1"), "billing-overview", MarkdownOptions{})
	assert.True(t, strings.HasPrefix(body, "| Total Billed |"))
	assert.False(t, strings.HasSuffix(body, "\n"))
	assert.NotContains(t, body, "###")

	assert.Empty(t, RenderSection(loadReport("1"), "no-such-section", MarkdownOptions{}))
}

func TestRenderMarkdownScopes(t *testing.T) {
	r := loadReport("2")

	summary := RenderMarkdown(r, MarkdownOptions{Scope: ScopeSummary, NextSteps: true})
	assert.Contains(t, summary, "## Executive Summary")
	assert.NotContains(t, summary, "## Medical Narrative")
	assert.NotContains(t, summary, "## Next Steps")

	billingMD := RenderMarkdown(r, MarkdownOptions{Scope: ScopeBilling})
	assert.Contains(t, billingMD, "### Billing Issues & Exceptions")
	assert.NotContains(t, billingMD, "High Impact Bills", "abbreviated variant has no high impact bills")
	assert.Contains(t, billingMD, "$41,501.77")
}

func TestRenderMarkdownInsertedSections(t *testing.T) {
	r := loadReport("1")
	r.InsertSection("Billing Assessment", "Duplicate MRI charge should be denied.")

	full := RenderMarkdown(r, MarkdownOptions{})
	assert.True(t, strings.HasSuffix(full, "## Billing Assessment\n\nDuplicate MRI charge should be denied.\n"))
	assert.NotContains(t, full, "## Next Steps")

	scoped := RenderMarkdown(r, MarkdownOptions{Scope: ScopeMedical})
	assert.NotContains(t, scoped, "Billing Assessment")
}

func TestRenderMarkdownReflectsEdits(t *testing.T) {
	r := loadReport("1")
	r.SetEditMode(true)
	_, err := r.ToggleNeedsReview("6")
	require.NoError(t, err)

	md := RenderMarkdown(r, MarkdownOptions{Scope: ScopeMedical})
	assert.Contains(t, md, "`Needs Review`")
}

func TestBillingWorkbook(t *testing.T) {
	data, err := BillingWorkbook(loadReport("1"))
	require.NoError(t, err)

	f, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	bills := f.Sheet["Bills"]
	require.NotNil(t, bills)
	assert.Len(t, bills.Rows, 10)
	assert.Equal(t, "Provider", bills.Rows[0].Cells[2].String())
	assert.Equal(t, "Virginia Neurosurgeons, PC", bills.Rows[1].Cells[2].String())

	summary := f.Sheet["Summary"]
	require.NotNil(t, summary)
	assert.Equal(t, "Total Billed", summary.Rows[0].Cells[0].String())
	v, err := summary.Rows[0].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 41501.77, v, 0.001)
}

func TestServiceExport(t *testing.T) {
	s := newService(t, true)
	ctx := context.Background()

	f, err := s.Export(ctx, FormatMDSummary, "1")
	require.NoError(t, err)
	assert.Equal(t, "claim-1-md-summary-20250301-093000.md", f.Name)
	assert.Contains(t, string(f.Data), "## Executive Summary")

	f, err = s.Export(ctx, FormatXLSXBilling, "2")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(f.Name, ".xlsx"))

	_, err = s.Export(ctx, FormatPDF, "1")
	assert.True(t, eris.Is(err, ErrRendererUnavailable))

	_, err = s.Export(ctx, FormatMD, "404")
	assert.True(t, errors.Is(err, store.ErrClaimNotFound))

	_, err = s.Export(ctx, Format("txt"), "1")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestBundleKeepsOrder(t *testing.T) {
	s := newService(t, false)
	files, err := Bundle(context.Background(), s, []Format{FormatXLSXBilling, FormatMD, FormatMDCausation}, "1")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.True(t, strings.HasSuffix(files[0].Name, ".xlsx"))
	assert.Contains(t, files[1].Name, "-md-")
	assert.Contains(t, files[2].Name, "-md-causation-")

	_, err = Bundle(context.Background(), s, []Format{FormatMD, FormatDOCX}, "1")
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := Save(dir, File{Name: "../escape.md", Data: []byte("# hi\n")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(data))
}
