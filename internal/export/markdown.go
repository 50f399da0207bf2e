package export

import (
	"fmt"
	"strings"

	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/sections"
	"github.com/Ashfaaq98/claims-console/internal/timeline"
)

// Scope limits a markdown render to part of the report.
type Scope string

const (
	ScopeFull      Scope = "full"
	ScopeSummary   Scope = "summary"
	ScopeMedical   Scope = "medical"
	ScopeCausation Scope = "causation"
	ScopeBilling   Scope = "billing"
)

var scopeSections = map[Scope]string{
	ScopeSummary:   "executive-summary",
	ScopeMedical:   "medical-narrative",
	ScopeCausation: "causation-analysis",
	ScopeBilling:   "medical-billing-review",
}

// MarkdownOptions controls RenderMarkdown.
type MarkdownOptions struct {
	Scope     Scope
	Formatter *billing.Formatter
	Guidance  report.Guidance
	NextSteps bool
	// Filters narrows the rendered medical timeline.
	Filters timeline.Filters
}

type renderer struct {
	sb   strings.Builder
	r    *report.Report
	data report.Data
	opts MarkdownOptions
}

// RenderMarkdown renders the report's sections in table-of-contents order.
func RenderMarkdown(r *report.Report, opts MarkdownOptions) string {
	opts = opts.withDefaults()
	w := &renderer{r: r, data: r.Data(), opts: opts}

	w.header()
	only := scopeSections[opts.Scope]
	for _, s := range sections.Layout(r.Type, opts.NextSteps && opts.Scope == ScopeFull) {
		if only != "" && s.ID != only {
			continue
		}
		w.printf("## %s\n\n", s.Title)
		if len(s.Subsections) == 0 {
			w.content(s.ID)
			continue
		}
		for _, sub := range s.Subsections {
			w.printf("### %s\n\n", sub.Title)
			w.content(sub.ID)
		}
	}

	if opts.Scope == ScopeFull {
		for _, ins := range r.InsertedSections() {
			w.printf("## %s\n\n%s\n\n", ins.Title, strings.TrimSpace(ins.Markdown))
		}
	}
	return strings.TrimRight(w.sb.String(), "\n") + "\n"
}

// RenderSection renders the body of one content section, without its
// heading. Unknown ids render nothing.
func RenderSection(r *report.Report, id string, opts MarkdownOptions) string {
	w := &renderer{r: r, data: r.Data(), opts: opts.withDefaults()}
	w.content(id)
	return strings.TrimRight(w.sb.String(), "\n")
}

func (o MarkdownOptions) withDefaults() MarkdownOptions {
	if o.Scope == "" {
		o.Scope = ScopeFull
	}
	if o.Formatter == nil {
		o.Formatter = billing.NewFormatter("en-US")
	}
	return o
}

func (w *renderer) printf(format string, args ...interface{}) {
	fmt.Fprintf(&w.sb, format, args...)
}

func (w *renderer) money(v float64) string {
	return w.opts.Formatter.Format(v)
}

func (w *renderer) header() {
	c := w.r.Claim
	w.printf("# %s\n\n", w.r.Title)
	w.printf("- Claim: %s (ID %s)\n", c.Name, c.ID)
	if c.AccidentDate != "" {
		w.printf("- Accident Date: %s\n", c.AccidentDate)
	}
	w.printf("- Documents Analyzed: %d\n", c.FileCount)
	w.printf("- Report Type: %s\n\n", w.r.Type.Label())
}

func (w *renderer) content(id string) {
	switch id {
	case "executive-summary":
		w.executiveSummary()
	case "medical-narrative":
		w.narrative()
	case "medical-timeline":
		w.timeline()
	case "contradictions":
		w.contradictions()
	case "missing-docs":
		w.missingDocs()
	case "causation-analysis":
		w.mechanism()
	case "injury-separation":
		w.injurySeparation()
	case "treatment-mapping":
		w.treatmentMapping()
	case "billing-overview":
		w.billingOverview()
	case "line-item-billing-review":
		w.lineItems()
	case "billing-issues-exceptions":
		w.billingIssues()
	case "high-impact-bills":
		w.highImpact()
	case "what-to-do-now":
		w.actions()
	case "leakage-risk":
		w.leakage()
	case "litigation-exposure":
		w.exposure()
	case "reserve-guidance":
		w.reserve()
	}
}

func (w *renderer) executiveSummary() {
	sum := billing.Totals(w.data.Bills, w.r.Type)
	high := 0
	for _, c := range w.data.Contradictions {
		if c.Severity == report.LevelHigh {
			high++
		}
	}

	w.printf("**Key Findings**\n\n")
	w.printf("- Total billed: %s; accident-attributable: %s\n", w.money(sum.Total), w.money(sum.AccidentRelated))
	w.printf("- Identified %s in potentially unrelated or unsupported charges\n", w.money(sum.Unrelated))
	w.printf("- %d contradictions across the records (%d high severity)\n", len(w.data.Contradictions), high)
	w.printf("- %d documentation gaps flagged\n", len(w.data.MissingFlags))
	if lvl := w.opts.Guidance.Exposure.Level; lvl != "" {
		w.printf("- Litigation exposure: %s\n", lvl)
	}
	w.printf("\n")
	if s := strings.TrimSpace(w.opts.Guidance.Exposure.Summary); s != "" {
		w.printf("%s\n\n", s)
	}
}

func (w *renderer) narrative() {
	events := w.data.Timeline
	if len(events) == 0 {
		w.printf("No medical events on record.\n\n")
		return
	}
	providers := map[string]bool{}
	for _, e := range events {
		providers[e.Provider] = true
	}
	w.printf("%d medical events from %s to %s across %d providers.\n\n",
		len(events), events[0].Date, events[len(events)-1].Date, len(providers))
	for _, e := range events {
		if e.NarrativeSummary == "" && !e.IsKeyDate {
			continue
		}
		text := e.NarrativeSummary
		if text == "" {
			text = e.Description
		}
		w.printf("- **%s** %s\n", e.Date, text)
	}
	w.printf("\n")
}

func (w *renderer) timeline() {
	events := timeline.Filter(w.data.Timeline, w.opts.Filters)
	if n := w.opts.Filters.Active(); n > 0 {
		w.printf("_Showing %d of %d events (%d filters active)._\n\n", len(events), len(w.data.Timeline), n)
	}
	for _, e := range events {
		v := timeline.Normalize(e)
		w.printf("#### %s - %s (%s)\n\n", e.Date, e.Provider, e.Specialty)
		var flags []string
		if e.IsKeyDate {
			flags = append(flags, "Key Date")
		}
		if e.NeedsReview {
			flags = append(flags, "Needs Review")
		}
		if len(flags) > 0 {
			w.printf("`%s`\n\n", strings.Join(flags, "` `"))
		}
		w.printf("- Event: %s\n", e.EventType)
		w.printf("- %s\n", e.Description)
		if v.DoctorName != "" {
			w.printf("- Doctor: %s\n", v.DoctorName)
		}
		if e.SourceDocument != "" {
			w.printf("- Source: %s (%s)\n", e.SourceDocument, e.SourcePageRef)
		}
		w.printf("\n")
	}
}

var contradictionLabels = map[string]string{
	report.ContradictionDiagnosis:         "Diagnosis",
	report.ContradictionNotesVsProcedures: "Notes vs Procedures",
	report.ContradictionNarrativeVsRecord: "Narrative vs Records",
}

func (w *renderer) contradictions() {
	w.printf("The following contradictions and inconsistencies were identified across the medical documentation:\n\n")
	for _, c := range w.data.Contradictions {
		label := contradictionLabels[c.Type]
		if label == "" {
			label = c.Type
		}
		w.printf("- **%s** (%s severity): %s\n", label, c.Severity, c.Description)
		if len(c.Sources) > 0 {
			w.printf("  - Sources: %s\n", strings.Join(c.Sources, ", "))
		}
	}
	w.printf("\n")
}

func (w *renderer) missingDocs() {
	w.printf("The following gaps or absences in documentation may be significant:\n\n")
	for _, f := range w.data.MissingFlags {
		w.printf("- **%s**\n  - %s\n", f.Description, f.Significance)
	}
	w.printf("\n")
}

func (w *renderer) mechanism() {
	if d := w.r.Claim.AccidentDate; d != "" {
		w.printf("Index accident on %s.\n\n", d)
	}
	for _, e := range w.data.Timeline {
		if e.IsKeyDate {
			w.printf("- **%s** %s: %s\n", e.Date, e.EventType, e.Description)
		}
	}
	if parts := w.opts.Guidance.BodyParts; len(parts) > 0 {
		w.printf("\n| Body Part | Driver | Risk |\n|---|---|---|\n")
		for _, p := range parts {
			w.printf("| %s | %s | %s |\n", p.BodyPart, p.Driver, p.Risk)
		}
	}
	w.printf("\n")
}

func (w *renderer) injurySeparation() {
	sum := billing.Totals(w.data.Bills, w.r.Type)
	w.printf("**Accident-Related** (%s)\n\n", w.money(sum.AccidentRelated))
	for _, b := range w.data.Bills {
		if b.IsAccidentRelated {
			w.printf("- %s: %s\n", b.Description, w.money(b.Amount))
		}
	}
	w.printf("\n**Unrelated / Pre-Existing** (%s)\n\n", w.money(sum.Unrelated))
	for _, b := range w.data.Bills {
		if !b.IsAccidentRelated {
			w.printf("- %s: %s\n", b.Description, w.money(b.Amount))
		}
	}
	w.printf("\n")
}

func (w *renderer) treatmentMapping() {
	w.printf("| Treatment | Category | Supported |\n|---|---|---|\n")
	for _, b := range w.data.Bills {
		supported := "Supported"
		if !b.HasMatchingTreatment {
			supported = "Unsupported"
		}
		w.printf("| %s | %s | %s |\n", b.Description, billing.GroupOf(b), supported)
	}
	w.printf("\n")
}

func (w *renderer) billingOverview() {
	sum := billing.Totals(w.data.Bills, w.r.Type)
	w.printf("| Total Billed | Accident-Attributable | Unrelated/Unsupported |\n|---|---|---|\n")
	w.printf("| %s | %s | %s |\n\n", w.money(sum.Total), w.money(sum.AccidentRelated), w.money(sum.Unrelated))

	w.printf("| Category | Bills | Amount |\n|---|---|---|\n")
	for _, s := range billing.CategorySubtotals(w.data.Bills) {
		w.printf("| %s | %d | %s |\n", s.Label, s.Count, w.money(s.Amount))
	}
	w.printf("\n")
	for _, s := range billing.GroupSubtotals(w.data.Bills) {
		w.printf("- %s: %s (%d bills)\n", s.Label, w.money(s.Amount), s.Count)
	}
	w.printf("\n")
}

func (w *renderer) lineItems() {
	w.printf("| Date | Provider | Description | Category | Amount | Accident | Risk |\n|---|---|---|---|---|---|---|\n")
	for _, b := range w.data.Bills {
		w.printf("| %s | %s | %s | %s | %s | %s | %s |\n",
			b.Date, b.Provider, b.Description, b.Category, w.money(b.Amount), yesNo(b.IsAccidentRelated), b.RiskScore)
	}
	w.printf("\n")
}

func (w *renderer) billingIssues() {
	risky := billing.RiskOnly(w.data.Bills)
	if len(risky) == 0 {
		w.printf("No billing exceptions.\n\n")
		return
	}
	for _, b := range risky {
		var reasons []string
		if b.IsDuplicate {
			reasons = append(reasons, "duplicate")
		}
		if !b.HasMatchingTreatment {
			reasons = append(reasons, "no matching treatment")
		}
		if !b.IsAccidentRelated {
			reasons = append(reasons, "unrelated to accident")
		}
		w.printf("- **%s** (%s, %s risk): %s", b.Description, w.money(b.Amount), b.RiskScore, b.Provider)
		if len(reasons) > 0 {
			w.printf("; %s", strings.Join(reasons, ", "))
		}
		w.printf("\n")
		if b.Justification != "" {
			w.printf("  - %s\n", b.Justification)
		}
	}
	w.printf("\n")
}

func (w *renderer) highImpact() {
	w.printf("These bills represent the largest exposure items and warrant focused negotiation attention:\n\n")
	for i, b := range billing.HighImpact(w.data.Bills, 5) {
		w.printf("%d. %s, %s (%s): %s [%s]\n", i+1, b.Description, b.Provider, b.Date, w.money(b.Amount), b.RiskScore)
	}
	w.printf("\n")
}

func (w *renderer) actions() {
	w.printf("| Action | Why It Matters | Risk Addressed | Owner | Priority |\n|---|---|---|---|---|\n")
	for _, a := range w.opts.Guidance.Actions {
		w.printf("| %s | %s | %s | %s | %s |\n", a.Action, a.WhyItMatters, a.RiskAddressed, a.Owner, a.Priority)
	}
	w.printf("\n")
}

func (w *renderer) leakage() {
	l := w.opts.Guidance.Leakage
	if l.Intro != "" {
		w.printf("%s\n\n", strings.TrimSpace(l.Intro))
	}
	for _, s := range l.Signals {
		w.printf("- **%s** (%s): %s\n", s.Description, s.Severity, s.Impact)
		if s.EvidenceSource != "" {
			w.printf("  - Evidence: %s (%s)\n", s.EvidenceSource, s.EvidencePageRef)
		}
	}
	w.printf("\n")
}

func (w *renderer) exposure() {
	e := w.opts.Guidance.Exposure
	w.printf("**Exposure Level: %s**\n\n", e.Level)
	if e.Summary != "" {
		w.printf("%s\n\n", strings.TrimSpace(e.Summary))
	}
	for _, d := range e.Drivers {
		w.printf("- **%s** (%s): %s\n", d.Category, d.Level, d.Description)
		if d.EvidenceSource != "" {
			w.printf("  - Evidence: %s (%s)\n", d.EvidenceSource, d.EvidencePageRef)
		}
	}
	w.printf("\n")
}

func (w *renderer) reserve() {
	r := w.opts.Guidance.Reserve
	for _, rg := range r.Ranges {
		w.printf("- **%s: %s** %s\n", rg.Level, rg.Amount, rg.Reasoning)
	}
	w.printf("\n")
	if r.UpwardPressure != "" {
		w.printf("**Upward pressure:** %s\n\n", strings.TrimSpace(r.UpwardPressure))
	}
	if r.DownwardPressure != "" {
		w.printf("**Downward pressure:** %s\n\n", strings.TrimSpace(r.DownwardPressure))
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
