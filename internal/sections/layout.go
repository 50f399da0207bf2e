// Package sections describes the report's table of contents and tracks which
// entry is in view as the reader scrolls.
package sections

import "github.com/Ashfaaq98/claims-console/internal/report"

// Section is a table-of-contents entry. A subsection may share its parent's
// id, in which case the parent is only ever reached through the subsection.
type Section struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subsections []Section `json:"subsections,omitempty"`
}

var (
	narrativeSubs = []Section{
		{ID: "medical-narrative", Title: "Claimant Medical Summary"},
		{ID: "medical-timeline", Title: "Medical Timeline"},
		{ID: "contradictions", Title: "Contradictions & Inconsistencies"},
		{ID: "missing-docs", Title: "Missing Documentation"},
	}
	causationSubs = []Section{
		{ID: "causation-analysis", Title: "Mechanism of Injury"},
		{ID: "injury-separation", Title: "Medical Condition Classification"},
		{ID: "treatment-mapping", Title: "Treatment-to-Diagnosis Mapping"},
	}
	billingSubs = []Section{
		{ID: "billing-overview", Title: "Billing Overview"},
		{ID: "line-item-billing-review", Title: "Line-Item Billing Review"},
		{ID: "billing-issues-exceptions", Title: "Billing Issues & Exceptions"},
	}
	highImpactSub = Section{ID: "high-impact-bills", Title: "High Impact Bills"}
	nextStepsSubs = []Section{
		{ID: "what-to-do-now", Title: "What To Do Now"},
		{ID: "leakage-risk", Title: "Leakage Risk"},
		{ID: "litigation-exposure", Title: "Litigation Exposure Score"},
		{ID: "reserve-guidance", Title: "Reserve Guidance"},
	}
)

// Layout returns the table of contents for a report variant. The abbreviated
// variant trims the narrative and causation subsections and drops the high
// impact bills; future reports add Next Steps.
func Layout(t report.Type, future bool) []Section {
	mvp := t == report.TypeMVP

	narrative := narrativeSubs
	causation := causationSubs
	billing := append([]Section(nil), billingSubs...)
	if mvp {
		narrative = narrativeSubs[1:2]
		causation = causationSubs[:1]
	} else {
		billing = append(billing, highImpactSub)
	}

	out := []Section{
		{ID: "executive-summary", Title: "Executive Summary"},
		{ID: "medical-narrative", Title: "Medical Narrative", Subsections: clone(narrative)},
		{ID: "causation-analysis", Title: "Causation Analysis", Subsections: clone(causation)},
		{ID: "medical-billing-review", Title: "Medical Billing Review", Subsections: billing},
	}
	if future {
		out = append(out, Section{ID: "next-steps", Title: "Next Steps", Subsections: clone(nextStepsSubs)})
	}
	return out
}

// Entry is a flattened table-of-contents row.
type Entry struct {
	ID    string
	Title string
	Depth int
}

// Flatten lists sections then their subsections in display order.
func Flatten(layout []Section) []Entry {
	var out []Entry
	for _, s := range layout {
		out = append(out, Entry{ID: s.ID, Title: s.Title})
		for _, sub := range s.Subsections {
			out = append(out, Entry{ID: sub.ID, Title: sub.Title, Depth: 1})
		}
	}
	return out
}

// ContentIDs returns the ids that own a block of report content, in display
// order: every subsection, plus top-level sections that have none. Shared
// ids appear once.
func ContentIDs(layout []Section) []string {
	var out []string
	for _, s := range layout {
		if len(s.Subsections) == 0 {
			out = append(out, s.ID)
			continue
		}
		for _, sub := range s.Subsections {
			out = append(out, sub.ID)
		}
	}
	return out
}

func clone(in []Section) []Section {
	out := make([]Section, len(in))
	copy(out, in)
	return out
}
