// Package timeline filters a report's medical timeline and builds the
// option lists for its filter form.
package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/Ashfaaq98/claims-console/internal/report"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

// View is an event with every optional field resolved. Filtering and option
// building both read from it so the fallbacks are applied in one place.
type View struct {
	Event report.MedicalEvent

	PatientName     string
	DoctorName      string
	MedicalFacility string
	Specialties     []string
	ProcedureTypes  []string
	MedicationTypes []string
	Labels          []string

	Date   time.Time
	DateOK bool

	haystack string
}

// Normalize resolves an event's optional fields:
//   - doctorName falls back to a provider prefixed "Dr."
//   - medicalFacility falls back to any other provider
//   - specialties, procedure types, medications fall back to single values
func Normalize(e report.MedicalEvent) View {
	v := View{
		Event:       e,
		PatientName: strings.TrimSpace(e.PatientName),
		Labels:      nonEmpty(e.Labels),
	}

	isDoctor := strings.HasPrefix(strings.TrimSpace(e.Provider), "Dr.")
	v.DoctorName = strings.TrimSpace(e.DoctorName)
	if v.DoctorName == "" && isDoctor {
		v.DoctorName = strings.TrimSpace(e.Provider)
	}
	v.MedicalFacility = strings.TrimSpace(e.MedicalFacility)
	if v.MedicalFacility == "" && !isDoctor {
		v.MedicalFacility = strings.TrimSpace(e.Provider)
	}

	v.Specialties = nonEmpty(e.MedicalSpecialties)
	if len(v.Specialties) == 0 {
		v.Specialties = nonEmpty([]string{e.Specialty})
	}
	v.ProcedureTypes = nonEmpty(e.ProcedureTypes)
	if len(v.ProcedureTypes) == 0 {
		v.ProcedureTypes = nonEmpty([]string{e.EventType})
	}
	v.MedicationTypes = nonEmpty([]string{e.MedicationType})

	v.Date, v.DateOK = parseDate(e.Date)
	v.haystack = strings.ToLower(strings.Join([]string{
		e.Date, e.Provider, e.Specialty, e.EventType, e.Description,
	}, " "))
	return v
}

// NormalizeAll normalizes a timeline, keeping order.
func NormalizeAll(events []report.MedicalEvent) []View {
	out := make([]View, len(events))
	for i, e := range events {
		out[i] = Normalize(e)
	}
	return out
}

// Options are the distinct values offered by each filter dropdown.
type Options struct {
	Patients    []string `json:"patients"`
	Doctors     []string `json:"doctors"`
	Facilities  []string `json:"facilities"`
	Specialties []string `json:"specialties"`
	Procedures  []string `json:"procedures"`
	Medications []string `json:"medications"`
	Labels      []string `json:"labels"`
}

// BuildOptions collects sorted distinct values from the normalized events.
func BuildOptions(events []report.MedicalEvent) Options {
	var (
		patients, doctors, facilities = set{}, set{}, set{}
		specialties, procedures       = set{}, set{}
		medications, labels           = set{}, set{}
	)
	for _, v := range NormalizeAll(events) {
		patients.add(v.PatientName)
		doctors.add(v.DoctorName)
		facilities.add(v.MedicalFacility)
		specialties.add(v.Specialties...)
		procedures.add(v.ProcedureTypes...)
		medications.add(v.MedicationTypes...)
		labels.add(v.Labels...)
	}
	return Options{
		Patients:    patients.sorted(),
		Doctors:     doctors.sorted(),
		Facilities:  facilities.sorted(),
		Specialties: specialties.sorted(),
		Procedures:  procedures.sorted(),
		Medications: medications.sorted(),
		Labels:      labels.sorted(),
	}
}

type set map[string]struct{}

func (s set) add(vals ...string) {
	for _, v := range vals {
		if v != "" {
			s[v] = struct{}{}
		}
	}
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
