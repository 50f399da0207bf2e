package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/claims-console/internal/report"
)

func ids(events []report.MedicalEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func sampleTimeline() []report.MedicalEvent {
	return report.NewProvider().ClaimReportData("1").Timeline
}

func TestFilterEmptyIsIdentity(t *testing.T) {
	events := sampleTimeline()
	got := Filter(events, Filters{})
	assert.Equal(t, events, got)
	assert.Equal(t, 0, Filters{}.Active())
}

func TestFilterIsIdempotent(t *testing.T) {
	events := sampleTimeline()
	events[2].NeedsReview = true
	events[6].NeedsReview = true

	for _, f := range []Filters{
		{MedicalSpecialty: "Radiology"},
		{NeedsReview: Yes},
		{StartDate: "2005-01-01", Search: "surgery"},
		{MedicalFacility: "Spine Surgery Center", ProcedureType: "Surgery"},
	} {
		once := Filter(events, f)
		twice := Filter(once, f)
		assert.Equal(t, once, twice, "filters %+v", f)
	}
}

func TestFilterDateRange(t *testing.T) {
	events := []report.MedicalEvent{
		{ID: "a", Date: "2005-01-20"},
		{ID: "b", Date: "2005-01-30"},
	}
	got := Filter(events, Filters{StartDate: "2005-01-25", EndDate: "2005-02-01"})
	assert.Equal(t, []string{"b"}, ids(got))
}

func TestFilterDateRangeInclusiveAndFailOpen(t *testing.T) {
	events := []report.MedicalEvent{
		{ID: "start", Date: "2005-01-25"},
		{ID: "end", Date: "2005-02-01"},
		{ID: "garbage", Date: "sometime in spring"},
		{ID: "after", Date: "2005-02-02"},
	}
	got := Filter(events, Filters{StartDate: "2005-01-25", EndDate: "2005-02-01"})
	assert.Equal(t, []string{"start", "end", "garbage"}, ids(got))
}

func TestFilterSearchDescriptionCaseInsensitive(t *testing.T) {
	got := Filter(sampleTimeline(), Filters{Search: "KIDNEY stones"})
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestFilterSearchCoversProviderAndDate(t *testing.T) {
	assert.Equal(t, []string{"7", "9"}, ids(Filter(sampleTimeline(), Filters{Search: "imaging center"})))
	assert.Equal(t, []string{"4"}, ids(Filter(sampleTimeline(), Filters{Search: "2004-02"})))
}

func TestFilterTriState(t *testing.T) {
	events := sampleTimeline()
	events[4].IsKeyDate = true

	assert.Equal(t, []string{"5"}, ids(Filter(events, Filters{IsKeyDate: Yes})))
	assert.Len(t, Filter(events, Filters{IsKeyDate: No}), 9)
	assert.Len(t, Filter(events, Filters{IsKeyDate: "maybe"}), 10)
}

func TestFilterExactAndSetFields(t *testing.T) {
	events := []report.MedicalEvent{
		{ID: "doc", Provider: "Dr. Terlinsky", Specialty: "Internal Medicine", EventType: "Office Visit"},
		{ID: "fac", Provider: "Imaging Center", Specialty: "Radiology", EventType: "MRI"},
		{ID: "rich", Provider: "Spine Center", Specialty: "Neurosurgery", MedicalSpecialties: []string{"Neurosurgery", "Pain Management"},
			MedicationType: "Opioid", Labels: []string{"surgery", "key"}, PatientName: "Luke Frazza"},
	}

	assert.Equal(t, []string{"doc"}, ids(Filter(events, Filters{DoctorName: "Dr. Terlinsky"})))
	assert.Empty(t, Filter(events, Filters{MedicalFacility: "Dr. Terlinsky"}))
	assert.Equal(t, []string{"fac"}, ids(Filter(events, Filters{MedicalFacility: "Imaging Center"})))
	assert.Empty(t, Filter(events, Filters{MedicalFacility: "imaging center"}), "exact match is case sensitive")
	assert.Equal(t, []string{"rich"}, ids(Filter(events, Filters{MedicalSpecialty: "Pain Management"})))
	assert.Equal(t, []string{"fac"}, ids(Filter(events, Filters{MedicalSpecialty: "Radiology"})))
	assert.Equal(t, []string{"fac"}, ids(Filter(events, Filters{ProcedureType: "MRI"})))
	assert.Equal(t, []string{"rich"}, ids(Filter(events, Filters{MedicationType: "Opioid"})))
	assert.Equal(t, []string{"rich"}, ids(Filter(events, Filters{Label: "key"})))
	assert.Equal(t, []string{"rich"}, ids(Filter(events, Filters{PatientName: "Luke Frazza"})))
}

func TestFilterCombinesWithAnd(t *testing.T) {
	f := Filters{MedicalSpecialty: "Radiology", StartDate: "2006-01-01"}
	assert.Equal(t, []string{"9"}, ids(Filter(sampleTimeline(), f)))
	assert.Equal(t, 2, f.Active())
}

func TestNormalizeFallbacks(t *testing.T) {
	doc := Normalize(report.MedicalEvent{Provider: "Dr. Smith", Specialty: "Orthopedics", EventType: "Evaluation"})
	assert.Equal(t, "Dr. Smith", doc.DoctorName)
	assert.Empty(t, doc.MedicalFacility)
	assert.Equal(t, []string{"Orthopedics"}, doc.Specialties)
	assert.Equal(t, []string{"Evaluation"}, doc.ProcedureTypes)
	assert.Empty(t, doc.MedicationTypes)

	fac := Normalize(report.MedicalEvent{Provider: "Orthopedics", DoctorName: "Dr. Jones", MedicalFacility: "Ortho Clinic"})
	assert.Equal(t, "Dr. Jones", fac.DoctorName)
	assert.Equal(t, "Ortho Clinic", fac.MedicalFacility)
}

func TestBuildOptionsUsesNormalization(t *testing.T) {
	opts := BuildOptions(sampleTimeline())

	require.NotEmpty(t, opts.Facilities)
	assert.Contains(t, opts.Facilities, "Imaging Center")
	assert.Equal(t, []string{
		"Emergency Medicine", "Internal Medicine", "Neurosurgery", "Occupational",
		"Orthopedic Surgery", "Otolaryngology", "Radiology", "Rheumatology",
	}, opts.Specialties)
	assert.Equal(t, []string{"Accident", "ER Visit", "Evaluation", "MRI", "Office Visit", "Surgery"}, opts.Procedures)
	assert.Empty(t, opts.Doctors)
	assert.Empty(t, opts.Medications)

	// Every option value must select at least one event.
	for _, s := range opts.Specialties {
		assert.NotEmpty(t, Filter(sampleTimeline(), Filters{MedicalSpecialty: s}), s)
	}
	for _, f := range opts.Facilities {
		assert.NotEmpty(t, Filter(sampleTimeline(), Filters{MedicalFacility: f}), f)
	}
}
