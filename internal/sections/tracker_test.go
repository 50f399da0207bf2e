package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/claims-console/internal/report"
)

func TestLayoutFull(t *testing.T) {
	l := Layout(report.TypeFull, false)
	require.Len(t, l, 4)
	assert.Equal(t, "executive-summary", l[0].ID)
	assert.Len(t, l[1].Subsections, 4)
	assert.Len(t, l[2].Subsections, 3)
	require.Len(t, l[3].Subsections, 4)
	assert.Equal(t, "high-impact-bills", l[3].Subsections[3].ID)
}

func TestLayoutMVPAndFuture(t *testing.T) {
	l := Layout(report.TypeMVP, true)
	require.Len(t, l, 5)
	assert.Equal(t, []Section{{ID: "medical-timeline", Title: "Medical Timeline"}}, l[1].Subsections)
	assert.Equal(t, []Section{{ID: "causation-analysis", Title: "Mechanism of Injury"}}, l[2].Subsections)
	assert.Len(t, l[3].Subsections, 3)
	assert.Equal(t, "next-steps", l[4].ID)
	assert.Len(t, l[4].Subsections, 4)

	// Trimming one variant must not affect the other.
	assert.Len(t, Layout(report.TypeFull, false)[1].Subsections, 4)
}

func TestTrackerThreeSections(t *testing.T) {
	layout := []Section{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	geo := StaticGeometry{
		"a": {Top: 0, Height: 800},
		"b": {Top: 800, Height: 800},
		"c": {Top: 1600, Height: 800},
	}
	tr := NewTracker(layout, geo, DefaultOffset)
	assert.Equal(t, "a", tr.Active())

	assert.Equal(t, "b", tr.Update(850))
	assert.Equal(t, "a", tr.Update(0))
	assert.Equal(t, "c", tr.Update(1400))
}

func TestTrackerPrefersDeepestSubsection(t *testing.T) {
	layout := []Section{
		{ID: "top"},
		{ID: "parent", Subsections: []Section{{ID: "outer"}, {ID: "inner"}}},
	}
	geo := StaticGeometry{
		"top":    {Top: 0, Height: 100},
		"parent": {Top: 100, Height: 1000},
		"outer":  {Top: 100, Height: 1000},
		"inner":  {Top: 400, Height: 200},
	}
	tr := NewTracker(layout, geo, 0)

	assert.Equal(t, "inner", tr.Update(450))
	assert.Equal(t, "outer", tr.Update(700))
	assert.Equal(t, "top", tr.Update(50))
}

func TestTrackerKeepsStateWhenNothingMatches(t *testing.T) {
	layout := []Section{{ID: "a"}, {ID: "b"}}
	geo := StaticGeometry{"a": {Top: 0, Height: 100}, "b": {Top: 100, Height: 100}}
	tr := NewTracker(layout, geo, 0)

	tr.Update(150)
	assert.Equal(t, "b", tr.Update(5000))
}

func TestTrackerSharedIDIsOnlyMatchedAsSubsection(t *testing.T) {
	layout := Layout(report.TypeFull, false)
	geo := StaticGeometry{
		"executive-summary":  {Top: 0, Height: 500},
		"causation-analysis": {Top: 500, Height: 300},
		"injury-separation":  {Top: 800, Height: 300},
	}
	tr := NewTracker(layout, geo, DefaultOffset)
	assert.Equal(t, "causation-analysis", tr.Update(400))
	assert.True(t, tr.IsSectionActive(layout[2]))
	assert.False(t, tr.IsSectionActive(layout[1]))
}

func TestTrackerClick(t *testing.T) {
	layout := Layout(report.TypeFull, false)
	tr := NewTracker(layout, StaticGeometry{}, DefaultOffset)

	var changes []string
	tr.OnChange(func(id string) { changes = append(changes, id) })

	assert.True(t, tr.Click("billing-overview"))
	assert.Equal(t, "billing-overview", tr.Active())
	assert.True(t, tr.IsSectionActive(layout[3]))

	assert.False(t, tr.Click("nope"))
	assert.Equal(t, "billing-overview", tr.Active())

	assert.True(t, tr.Click("billing-overview"))
	assert.Equal(t, []string{"billing-overview"}, changes)
}

func TestFlattenAndContentIDs(t *testing.T) {
	l := Layout(report.TypeMVP, false)
	entries := Flatten(l)
	assert.Equal(t, Entry{ID: "executive-summary", Title: "Executive Summary"}, entries[0])
	assert.Equal(t, Entry{ID: "medical-timeline", Title: "Medical Timeline", Depth: 1}, entries[2])

	assert.Equal(t, []string{
		"executive-summary", "medical-timeline", "causation-analysis",
		"billing-overview", "line-item-billing-review", "billing-issues-exceptions",
	}, ContentIDs(l))
}
