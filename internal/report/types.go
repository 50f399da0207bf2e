package report

// Type selects which of the two canned report variants a claim gets.
type Type string

const (
	TypeFull Type = "full"
	TypeMVP  Type = "mvp"
)

// Label returns the display label used in report titles.
func (t Type) Label() string {
	if t == TypeMVP {
		return "MVP Report"
	}
	return "Full Report"
}

// Severity/risk levels shared by contradictions and bill line items.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Contradiction types
const (
	ContradictionDiagnosis         = "diagnosis"
	ContradictionNotesVsProcedures = "notes_vs_procedures"
	ContradictionNarrativeVsRecord = "narrative_vs_records"
)

// Missing documentation flag types
const (
	MissingConservativeCare  = "missing_conservative_care"
	MissingObjectiveFindings = "missing_objective_findings"
	MissingDocumentationGap  = "documentation_gap"
	MissingSilenceAsSignal   = "silence_as_signal"
)

// MedicalEvent is one entry of a claimant's medical timeline. The optional
// enrichment fields are left empty on the base fixtures and are resolved by
// the timeline package's normalization step.
type MedicalEvent struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Provider       string `json:"provider"`
	Specialty      string `json:"specialty"`
	EventType      string `json:"eventType"`
	Description    string `json:"description"`
	SourceDocument string `json:"sourceDocument"`
	SourcePageRef  string `json:"sourcePageRef"`

	PatientName        string            `json:"patientName,omitempty"`
	DoctorName         string            `json:"doctorName,omitempty"`
	MedicalFacility    string            `json:"medicalFacility,omitempty"`
	MedicationType     string            `json:"medicationType,omitempty"`
	Labels             []string          `json:"labels,omitempty"`
	NarrativeSummary   string            `json:"narrativeSummary,omitempty"`
	PatientComplaints  []string          `json:"patientComplaints,omitempty"`
	MedicalSpecialties []string          `json:"medicalSpecialties,omitempty"`
	MedicalFacilities  []string          `json:"medicalFacilities,omitempty"`
	ProcedureTypes     []string          `json:"procedureTypes,omitempty"`
	Vitals             map[string]string `json:"vitals,omitempty"`
	Diagnostics        []string          `json:"diagnostics,omitempty"`
	Interventions      []string          `json:"interventions,omitempty"`
	IsKeyDate          bool              `json:"isKeyDate"`
	NeedsReview        bool              `json:"needsReview"`
	FileIDs            []string          `json:"fileIds,omitempty"`
}

// Contradiction is a read-only inconsistency found across sources.
type Contradiction struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
	Severity    string   `json:"severity"`
}

// MissingFlag marks documentation that should exist but was not supplied.
type MissingFlag struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Significance string `json:"significance"`
}

// BillItem is a single billed line. Amount and the accident-relation flag
// never change after load.
type BillItem struct {
	ID                   string  `json:"id"`
	Date                 string  `json:"date"`
	Provider             string  `json:"provider"`
	Description          string  `json:"description"`
	Amount               float64 `json:"amount"`
	Category             string  `json:"category"`
	IsAccidentRelated    bool    `json:"isAccidentRelated"`
	HasMatchingTreatment bool    `json:"hasMatchingTreatment"`
	IsDuplicate          bool    `json:"isDuplicate"`
	RiskScore            string  `json:"riskScore"`
	DocumentLink         string  `json:"documentLink,omitempty"`
	HCPCSCode            string  `json:"hcpcsCode,omitempty"`
	HCPCSDescription     string  `json:"hcpcsDescription,omitempty"`
	NDCUPCCode           string  `json:"ndcUpcCode,omitempty"`
	NDCUPCDescription    string  `json:"ndcUpcDescription,omitempty"`
	TreatmentType        string  `json:"treatmentType,omitempty"`
	Justification        string  `json:"justification,omitempty"`
	FileID               string  `json:"fileId,omitempty"`
	FileLink             string  `json:"fileLink,omitempty"`
}

// Data is the bundle returned for one claim.
type Data struct {
	Timeline       []MedicalEvent  `json:"timeline"`
	Contradictions []Contradiction `json:"contradictions"`
	MissingFlags   []MissingFlag   `json:"missingFlags"`
	Bills          []BillItem      `json:"bills"`
}

// Clone returns a deep copy with no shared slices or maps.
func (d Data) Clone() Data {
	out := Data{
		Timeline:       make([]MedicalEvent, len(d.Timeline)),
		Contradictions: make([]Contradiction, len(d.Contradictions)),
		MissingFlags:   make([]MissingFlag, len(d.MissingFlags)),
		Bills:          make([]BillItem, len(d.Bills)),
	}
	for i, ev := range d.Timeline {
		out.Timeline[i] = ev.Clone()
	}
	for i, c := range d.Contradictions {
		c.Sources = cloneStrings(c.Sources)
		out.Contradictions[i] = c
	}
	copy(out.MissingFlags, d.MissingFlags)
	copy(out.Bills, d.Bills)
	return out
}

// Clone returns a deep copy of the event.
func (e MedicalEvent) Clone() MedicalEvent {
	c := e
	c.Labels = cloneStrings(e.Labels)
	c.PatientComplaints = cloneStrings(e.PatientComplaints)
	c.MedicalSpecialties = cloneStrings(e.MedicalSpecialties)
	c.MedicalFacilities = cloneStrings(e.MedicalFacilities)
	c.ProcedureTypes = cloneStrings(e.ProcedureTypes)
	c.Diagnostics = cloneStrings(e.Diagnostics)
	c.Interventions = cloneStrings(e.Interventions)
	c.FileIDs = cloneStrings(e.FileIDs)
	if e.Vitals != nil {
		c.Vitals = make(map[string]string, len(e.Vitals))
		for k, v := range e.Vitals {
			c.Vitals[k] = v
		}
	}
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
