// Package export renders a claim report into downloadable files.
//
// PDF and Word renderers are not bundled. Requests for those formats are
// logged and answered with ErrRendererUnavailable so callers can offer the
// markdown or workbook formats instead.
package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/report"
)

var (
	ErrUnknownFormat       = eris.New("unknown export format")
	ErrRendererUnavailable = eris.New("renderer not available for format")
)

// Format names an export target.
type Format string

const (
	FormatPDF          Format = "pdf"
	FormatDOCX         Format = "docx"
	FormatPDFSummary   Format = "pdf-summary"
	FormatPDFMedical   Format = "pdf-medical"
	FormatPDFCausation Format = "pdf-causation"
	FormatPDFBilling   Format = "pdf-billing"

	FormatMD          Format = "md"
	FormatMDSummary   Format = "md-summary"
	FormatMDMedical   Format = "md-medical"
	FormatMDCausation Format = "md-causation"
	FormatMDBilling   Format = "md-billing"

	FormatXLSXBilling Format = "xlsx-billing"
)

// Option is one entry of the export menu.
type Option struct {
	Format Format `json:"format"`
	Label  string `json:"label"`
}

// Options lists the export menu in display order.
var Options = []Option{
	{FormatPDF, "Full Report (PDF)"},
	{FormatDOCX, "Full Report (Word)"},
	{FormatPDFSummary, "Executive Summary Only"},
	{FormatPDFMedical, "Medical Narrative Only"},
	{FormatPDFCausation, "Causation Analysis Only"},
	{FormatPDFBilling, "Billing Analysis Only"},
	{FormatMD, "Full Report (Markdown)"},
	{FormatMDSummary, "Executive Summary (Markdown)"},
	{FormatMDMedical, "Medical Narrative (Markdown)"},
	{FormatMDCausation, "Causation Analysis (Markdown)"},
	{FormatMDBilling, "Billing Analysis (Markdown)"},
	{FormatXLSXBilling, "Billing Workbook (Excel)"},
}

var markdownScopes = map[Format]Scope{
	FormatMD:          ScopeFull,
	FormatMDSummary:   ScopeSummary,
	FormatMDMedical:   ScopeMedical,
	FormatMDCausation: ScopeCausation,
	FormatMDBilling:   ScopeBilling,
}

var documentFormats = map[Format]bool{
	FormatPDF:          true,
	FormatDOCX:         true,
	FormatPDFSummary:   true,
	FormatPDFMedical:   true,
	FormatPDFCausation: true,
	FormatPDFBilling:   true,
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, o := range Options {
		if o.Format == f {
			return f, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownFormat, "format %q", s)
}

// File is a rendered export.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Exporter renders a report in one format.
type Exporter interface {
	Export(ctx context.Context, format Format, reportID string) (File, error)
}

// ReportSource resolves a report id (the claim id) to its live report.
type ReportSource func(ctx context.Context, reportID string) (*report.Report, error)

// Service is the bundled Exporter.
type Service struct {
	source    ReportSource
	formatter *billing.Formatter
	guidance  report.Guidance
	nextSteps bool
	now       func() time.Time
}

// NewService builds an exporter. nextSteps includes the Next Steps guidance
// in full markdown exports.
func NewService(source ReportSource, f *billing.Formatter, nextSteps bool) (*Service, error) {
	g, err := report.LoadGuidance()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load guidance")
	}
	if f == nil {
		f = billing.NewFormatter("en-US")
	}
	return &Service{
		source:    source,
		formatter: f,
		guidance:  g,
		nextSteps: nextSteps,
		now:       time.Now,
	}, nil
}

// Export implements Exporter.
func (s *Service) Export(ctx context.Context, format Format, reportID string) (File, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return File{}, err
	}
	if err := ctx.Err(); err != nil {
		return File{}, eris.Wrap(err, "export cancelled")
	}

	if documentFormats[format] {
		zap.L().Info("export requested",
			zap.String("format", string(format)),
			zap.String("report", reportID))
		return File{}, eris.Wrapf(ErrRendererUnavailable, "format %q", format)
	}

	r, err := s.source(ctx, reportID)
	if err != nil {
		return File{}, eris.Wrapf(err, "failed to load report %s", reportID)
	}
	stamp := s.now().Format("20060102-150405")
	base := "claim-" + reportID + "-" + string(format) + "-" + stamp

	if scope, ok := markdownScopes[format]; ok {
		md := RenderMarkdown(r, MarkdownOptions{
			Scope:     scope,
			Formatter: s.formatter,
			Guidance:  s.guidance,
			NextSteps: s.nextSteps,
		})
		return File{Name: base + ".md", ContentType: "text/markdown; charset=utf-8", Data: []byte(md)}, nil
	}

	data, err := BillingWorkbook(r)
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        base + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

// Bundle renders several formats concurrently. Results keep the order of
// formats; the first failure cancels the rest.
func Bundle(ctx context.Context, e Exporter, formats []Format, reportID string) ([]File, error) {
	files := make([]File, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			file, err := e.Export(gctx, f, reportID)
			if err != nil {
				return err
			}
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// Save writes a file into dir and returns its path.
func Save(dir string, f File) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", eris.Wrapf(err, "failed to create export dir %s", dir)
	}
	path := filepath.Join(dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, f.Data, 0644); err != nil {
		return "", eris.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
