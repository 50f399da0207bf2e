package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

func TestShouldInsertSection(t *testing.T) {
	long := strings.Repeat("x", 201)
	assert.True(t, ShouldInsertSection("Give me a billing breakdown", long))
	assert.False(t, ShouldInsertSection("Give me a billing breakdown", strings.Repeat("x", 200)))
	assert.False(t, ShouldInsertSection("What is the total?", long))
	assert.True(t, ShouldInsertSection("ANALYZE causation", long))
}

func TestSectionTitle(t *testing.T) {
	tests := map[string]string{
		"Summarize the chronology":      "Elyon Analysis – Timeline Review",
		"Billing overview please":       "Elyon Analysis – Billing Assessment",
		"What caused the injury?":       "Elyon Analysis – Causation Review",
		"Any inconsistencies?":          "Elyon Analysis – Data Consistency Review",
		"What is missing from records?": "Elyon Analysis – Documentation Gaps",
		"Exposure assessment":           "Elyon Analysis – Risk Assessment",
		"Tell me about the claimant":    "Elyon Analysis – Claim Review",
	}
	for q, want := range tests {
		assert.Equal(t, want, SectionTitle(q), q)
	}
}

func TestFormatMarkdownSection(t *testing.T) {
	in := "Key risk factors identified:\n\n  - Failed surgery  \nPlain sentence. With: colon\n# Heading\n3 items"
	want := strings.Join([]string{
		"- **Key risk factors identified:**",
		"",
		"- Failed surgery",
		"Plain sentence. With: colon",
		"# Heading",
		"3 items",
	}, "\n\n")
	assert.Equal(t, want, FormatMarkdownSection(in))
}

func TestBuildReportContext(t *testing.T) {
	claim := store.Claim{ID: "1", Name: "Johnson v. Metro Transit Authority", AccidentDate: "2005-01-23", FileCount: 12}
	data := report.NewProvider().ClaimReportData("1")

	ctx := BuildReportContext(claim, "Full Report: Luke Frazza", data)

	assert.True(t, strings.HasPrefix(ctx, "# CLAIM REPORT: Full Report: Luke Frazza\n\n"))
	assert.Contains(t, ctx, "- Accident Date: 2005-01-23\n")
	assert.Contains(t, ctx, "- Documents Analyzed: 12\n")
	assert.Contains(t, ctx, "- **2000-06-12** - Emergency Room (Emergency Medicine): Emergency treatment for kidney stones\n  - Source: ER Records (ER-001)\n")
	assert.Contains(t, ctx, "- **narrative_vs_records** (high): Prior History Reporting")
	assert.Contains(t, ctx, "- Total Billed: $41501.77\n")
	assert.Contains(t, ctx, "- Accident Related: $33323.72\n")
	assert.Contains(t, ctx, "- Unrelated: $8178.05\n")

	hv := ctx[strings.Index(ctx, "### High-Value Bills"):strings.Index(ctx, "### High-Risk Bills")]
	assert.Equal(t, 6, strings.Count(hv, "  - Risk Score:"))
	assert.Less(t, strings.Index(hv, "360° Revision Fusion"), strings.Index(hv, "FESS Sinus Surgery"))
	assert.Equal(t, 2, strings.Count(ctx, "  - Duplicate detected\n"))
}

func TestLocalStubKeywords(t *testing.T) {
	ls := NewLocalStub()
	answer := func(q string) string {
		a, err := ls.Answer(context.Background(), Question{Text: q})
		require.NoError(t, err)
		return a
	}

	assert.Contains(t, answer("Walk me through the TIMELINE"), "index accident occurring on January 23, 2005")
	assert.Contains(t, answer("what did it cost"), "$33,323.72 (80.3%)")
	assert.Contains(t, answer("causation?"), "strongly supports causation")
	assert.Contains(t, answer("contradictions"), "several contradictions")
	assert.Contains(t, answer("exposure"), "Key risk factors identified")
	assert.Contains(t, answer("documentation gaps"), "Documentation gaps identified")
	assert.Contains(t, answer("hello"), "What specific aspect")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ls.Answer(ctx, Question{Text: "hello"})
	assert.Error(t, err)
}

func TestBridgeSuggestsSection(t *testing.T) {
	b := NewBridge(NewLocalStub(), nil)
	r := b.Reply(context.Background(), Question{Text: "Give me a timeline overview", ClaimID: "1"})

	assert.False(t, r.Failed)
	assert.NotEmpty(t, r.ID)
	assert.Positive(t, r.TokensEst)
	require.NotNil(t, r.Suggestion)
	assert.Equal(t, "Elyon Analysis – Timeline Review", r.Suggestion.Title)
	assert.Contains(t, r.Suggestion.Markdown, "- Index accident: Slip-and-fall on January 23, 2005")

	plain := b.Reply(context.Background(), Question{Text: "hello", ClaimID: "1"})
	assert.Nil(t, plain.Suggestion)
}
