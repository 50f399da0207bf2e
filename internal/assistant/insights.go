package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

var structuredKeywords = []string{
	"analyze", "summary", "overview", "assessment", "evaluation",
	"findings", "conclusion", "recommendation", "breakdown", "comparison",
}

// ShouldInsertSection reports whether an answer is worth offering as a
// report section: the question asks for structured analysis and the answer
// runs longer than 200 characters.
func ShouldInsertSection(question, answer string) bool {
	return containsAny(strings.ToLower(question), structuredKeywords...) && len(answer) > 200
}

const sectionPrefix = "Elyon Analysis – "

// SectionTitle names an inserted section after the question's topic.
func SectionTitle(question string) string {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, "timeline", "chronology"):
		return sectionPrefix + "Timeline Review"
	case containsAny(q, "billing", "cost"):
		return sectionPrefix + "Billing Assessment"
	case containsAny(q, "causation", "cause"):
		return sectionPrefix + "Causation Review"
	case containsAny(q, "contradiction", "inconsistenc"):
		return sectionPrefix + "Data Consistency Review"
	case containsAny(q, "gap", "missing"):
		return sectionPrefix + "Documentation Gaps"
	case containsAny(q, "risk", "exposure"):
		return sectionPrefix + "Risk Assessment"
	}
	return sectionPrefix + "Claim Review"
}

var (
	markdownLead = regexp.MustCompile(`^[#\-*+\[\d]`)
	labelLine    = regexp.MustCompile(`^[A-Z][^.]+:`)
)

// FormatMarkdownSection normalizes an answer into paragraphs and promotes
// "Label: text" lines to bold bullets.
func FormatMarkdownSection(answer string) string {
	lines := strings.Split(answer, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			out[i] = ""
		case !markdownLead.MatchString(trimmed) && labelLine.MatchString(trimmed):
			out[i] = "- **" + trimmed + "**"
		default:
			out[i] = trimmed
		}
	}
	return strings.Join(out, "\n\n")
}

// BuildReportContext renders the claim and its report data as markdown for
// model-backed providers.
func BuildReportContext(c store.Claim, title string, d report.Data) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# CLAIM REPORT: %s\n\n", title)

	sb.WriteString("## Claim Information\n")
	fmt.Fprintf(&sb, "- Claim ID: %s\n", c.ID)
	fmt.Fprintf(&sb, "- Claimant: %s\n", c.Name)
	if c.AccidentDate != "" {
		fmt.Fprintf(&sb, "- Accident Date: %s\n", c.AccidentDate)
	}
	fmt.Fprintf(&sb, "- Documents Analyzed: %d\n\n", c.FileCount)

	sb.WriteString("## Medical Timeline\n")
	for _, ev := range d.Timeline {
		fmt.Fprintf(&sb, "- **%s** - %s (%s): %s\n", ev.Date, ev.Provider, ev.Specialty, ev.Description)
		if ev.SourceDocument != "" {
			fmt.Fprintf(&sb, "  - Source: %s (%s)\n", ev.SourceDocument, ev.SourcePageRef)
		}
	}
	sb.WriteString("\n")

	if len(d.Contradictions) > 0 {
		sb.WriteString("## Contradictions & Inconsistencies\n")
		for _, ct := range d.Contradictions {
			fmt.Fprintf(&sb, "- **%s** (%s): %s\n", ct.Type, ct.Severity, ct.Description)
			if len(ct.Sources) > 0 {
				fmt.Fprintf(&sb, "  - Sources: %s\n", strings.Join(ct.Sources, ", "))
			}
		}
		sb.WriteString("\n")
	}

	if len(d.MissingFlags) > 0 {
		sb.WriteString("## Missing Documentation\n")
		for _, f := range d.MissingFlags {
			fmt.Fprintf(&sb, "- **%s**: %s\n", f.Type, f.Description)
			fmt.Fprintf(&sb, "  - Significance: %s\n", f.Significance)
		}
		sb.WriteString("\n")
	}

	// The context always reports summed amounts, whatever the report type.
	sum := billing.Totals(d.Bills, report.TypeFull)
	sb.WriteString("## Medical Billing Summary\n")
	fmt.Fprintf(&sb, "- Total Billed: $%.2f\n", sum.Total)
	fmt.Fprintf(&sb, "- Accident Related: $%.2f\n", sum.AccidentRelated)
	fmt.Fprintf(&sb, "- Unrelated: $%.2f\n\n", sum.Unrelated)

	var highValue []report.BillItem
	for _, b := range billing.HighImpact(d.Bills, 0) {
		if b.Amount > 1000 && len(highValue) < 10 {
			highValue = append(highValue, b)
		}
	}
	if len(highValue) > 0 {
		sb.WriteString("### High-Value Bills\n")
		for _, b := range highValue {
			fmt.Fprintf(&sb, "- **%s** - %s: %s - $%.2f\n", b.Date, b.Provider, b.Description, b.Amount)
			fmt.Fprintf(&sb, "  - Accident Related: %s\n", yesNo(b.IsAccidentRelated))
			fmt.Fprintf(&sb, "  - Risk Score: %s\n", b.RiskScore)
		}
		sb.WriteString("\n")
	}

	var highRisk []report.BillItem
	for _, b := range d.Bills {
		if b.RiskScore == report.LevelHigh {
			highRisk = append(highRisk, b)
		}
	}
	if len(highRisk) > 0 {
		sb.WriteString("### High-Risk Bills\n")
		for _, b := range highRisk {
			fmt.Fprintf(&sb, "- %s: %s - $%.2f\n", b.Provider, b.Description, b.Amount)
			if b.IsDuplicate {
				sb.WriteString("  - Duplicate detected\n")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
