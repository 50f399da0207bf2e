package timeline

import (
	"strings"
	"time"

	"github.com/Ashfaaq98/claims-console/internal/report"
)

// Tri-state values accepted by NeedsReview and IsKeyDate.
const (
	Any = ""
	Yes = "yes"
	No  = "no"
)

// Filters is the timeline filter form. Empty fields impose no constraint.
// Values outside the documented domain (an unparsable date, a tri-state
// other than yes/no) are treated as empty.
type Filters struct {
	PatientName      string `json:"patientName,omitempty"`
	DoctorName       string `json:"doctorName,omitempty"`
	MedicalFacility  string `json:"medicalFacility,omitempty"`
	MedicalSpecialty string `json:"medicalSpecialty,omitempty"`
	ProcedureType    string `json:"procedureType,omitempty"`
	MedicationType   string `json:"medicationType,omitempty"`
	Label            string `json:"label,omitempty"`
	NeedsReview      string `json:"needsReview,omitempty"`
	IsKeyDate        string `json:"isKeyDate,omitempty"`
	StartDate        string `json:"startDate,omitempty"`
	EndDate          string `json:"endDate,omitempty"`
	Search           string `json:"search,omitempty"`
}

// Active counts the fields that currently constrain the result.
func (f Filters) Active() int {
	n := 0
	for _, s := range []string{
		f.PatientName, f.DoctorName, f.MedicalFacility, f.MedicalSpecialty,
		f.ProcedureType, f.MedicationType, f.Label,
	} {
		if s != "" {
			n++
		}
	}
	for _, s := range []string{f.NeedsReview, f.IsKeyDate} {
		if s == Yes || s == No {
			n++
		}
	}
	if _, ok := parseDate(f.StartDate); ok {
		n++
	}
	if _, ok := parseDate(f.EndDate); ok {
		n++
	}
	if strings.TrimSpace(f.Search) != "" {
		n++
	}
	return n
}

// Filter keeps the events matching every active filter, in their original
// order.
func Filter(events []report.MedicalEvent, f Filters) []report.MedicalEvent {
	m := f.compile()
	out := make([]report.MedicalEvent, 0, len(events))
	for _, e := range events {
		if m.match(Normalize(e)) {
			out = append(out, e)
		}
	}
	return out
}

// Match reports whether a single event passes the filters.
func (f Filters) Match(e report.MedicalEvent) bool {
	return f.compile().match(Normalize(e))
}

type matcher struct {
	f          Filters
	start, end time.Time
	hasStart   bool
	hasEnd     bool
	search     string
}

func (f Filters) compile() matcher {
	m := matcher{f: f, search: strings.ToLower(strings.TrimSpace(f.Search))}
	m.start, m.hasStart = parseDate(f.StartDate)
	m.end, m.hasEnd = parseDate(f.EndDate)
	return m
}

func (m matcher) match(v View) bool {
	f := m.f
	if f.PatientName != "" && v.PatientName != f.PatientName {
		return false
	}
	if f.DoctorName != "" && v.DoctorName != f.DoctorName {
		return false
	}
	if f.MedicalFacility != "" && v.MedicalFacility != f.MedicalFacility {
		return false
	}
	if f.MedicalSpecialty != "" && !contains(v.Specialties, f.MedicalSpecialty) {
		return false
	}
	if f.ProcedureType != "" && !contains(v.ProcedureTypes, f.ProcedureType) {
		return false
	}
	if f.MedicationType != "" && !contains(v.MedicationTypes, f.MedicationType) {
		return false
	}
	if f.Label != "" && !contains(v.Labels, f.Label) {
		return false
	}
	if !triState(f.NeedsReview, v.Event.NeedsReview) || !triState(f.IsKeyDate, v.Event.IsKeyDate) {
		return false
	}
	// Events whose date cannot be parsed are never excluded by the range.
	if v.DateOK {
		if m.hasStart && v.Date.Before(m.start) {
			return false
		}
		if m.hasEnd && v.Date.After(m.end) {
			return false
		}
	}
	if m.search != "" && !strings.Contains(v.haystack, m.search) {
		return false
	}
	return true
}

func triState(want string, got bool) bool {
	switch want {
	case Yes:
		return got
	case No:
		return !got
	}
	return true
}

func contains(vals []string, want string) bool {
	for _, v := range vals {
		if v == want {
			return true
		}
	}
	return false
}
