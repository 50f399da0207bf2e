package report

// Demo case templates. They are never handed out directly; Provider clones
// them on every request.

const claimantName = "Luke Frazza"

var baseTimeline = []MedicalEvent{
	{ID: "1", Date: "2000-06-12", Provider: "Emergency Room", Specialty: "Emergency Medicine", EventType: "ER Visit", Description: "Emergency treatment for kidney stones", SourceDocument: "ER Records", SourcePageRef: "ER-001"},
	{ID: "2", Date: "2003-06-18", Provider: "Primary Care", Specialty: "Internal Medicine", EventType: "Office Visit", Description: "Acute lumbosacral strain; resolved", SourceDocument: "PCP Records", SourcePageRef: "PCP-001"},
	{ID: "3", Date: "2004-01-21", Provider: "Rheumatology", Specialty: "Rheumatology", EventType: "Evaluation", Description: "Osteoarthritis evaluation (finger)", SourceDocument: "Rheum Records", SourcePageRef: "RH-001"},
	{ID: "4", Date: "2004-02-04", Provider: "ENT Surgery", Specialty: "Otolaryngology", EventType: "Surgery", Description: "Sinus surgery (FESS)", SourceDocument: "Surgical Records", SourcePageRef: "ENT-001"},
	{ID: "5", Date: "2005-01-23", Provider: "White House Medical", Specialty: "Occupational", EventType: "Accident", Description: "Index accident – slip-and-fall on wet floor", SourceDocument: "Incident Report", SourcePageRef: "INC-001"},
	{ID: "6", Date: "2005-02-16", Provider: "Orthopedics", Specialty: "Orthopedic Surgery", EventType: "Evaluation", Description: "Initial post-accident evaluation", SourceDocument: "Ortho Records", SourcePageRef: "OR-001"},
	{ID: "7", Date: "2005-04-11", Provider: "Imaging Center", Specialty: "Radiology", EventType: "MRI", Description: "MRI confirms extruded L3-L4 disc", SourceDocument: "MRI Report", SourcePageRef: "MRI-001"},
	{ID: "8", Date: "2005-04-26", Provider: "Spine Surgery Center", Specialty: "Neurosurgery", EventType: "Surgery", Description: "L3-L4 discectomy", SourceDocument: "Surgical Records", SourcePageRef: "SS-001"},
	{ID: "9", Date: "2006-01-16", Provider: "Imaging Center", Specialty: "Radiology", EventType: "MRI", Description: "Post-op MRI shows recurrence", SourceDocument: "MRI Report", SourcePageRef: "MRI-002"},
	{ID: "10", Date: "2006-06-29", Provider: "Spine Surgery Center", Specialty: "Neurosurgery", EventType: "Surgery", Description: "Revision fusion with instrumentation", SourceDocument: "Surgical Records", SourcePageRef: "SS-002"},
}

var baseContradictions = []Contradiction{
	{ID: "1", Type: ContradictionNarrativeVsRecord, Description: "Prior History Reporting: 2003 severe back strain not disclosed in early 2005 notes", Sources: []string{"2003 PCP Records", "2005 Ortho Intake"}, Severity: LevelHigh},
	{ID: "2", Type: ContradictionDiagnosis, Description: "Initial Diagnosis Divergence: Early focus on hip tendinitis despite classic disc symptoms", Sources: []string{"Initial Ortho Notes", "MRI Findings"}, Severity: LevelMedium},
}

var baseMissingFlags = []MissingFlag{
	{ID: "1", Type: MissingDocumentationGap, Description: "Primary Care Records: 2003–2005 records from Dr. Terlinsky", Significance: "Critical for establishing pre-existing condition baseline"},
	{ID: "2", Type: MissingDocumentationGap, Description: "PT Logs: Detailed therapy notes (only summaries available)", Significance: "Needed to verify treatment progression and outcomes"},
}

var baseBills = []BillItem{
	{ID: "1", Date: "2005-04-26", Provider: "Virginia Neurosurgeons, PC", Description: "L3–L4 Decompression / Discectomy – Surgeon (Professional Fees)", Amount: 10557.00, Category: "Surgery", IsAccidentRelated: true, HasMatchingTreatment: true, RiskScore: LevelLow, DocumentLink: "/Virginia Neurosurgeons Statement.html"},
	{ID: "2", Date: "2006-06-29", Provider: "Virginia Hospital Center", Description: "360° Revision Fusion", Amount: 15863.84, Category: "Surgery", IsAccidentRelated: true, HasMatchingTreatment: true, RiskScore: LevelLow},
	{ID: "3", Date: "2004-02-04", Provider: "Inova Fairfax", Description: "FESS Sinus Surgery", Amount: 8178.05, Category: "Surgery", HasMatchingTreatment: true, RiskScore: LevelHigh},
	{ID: "4", Date: "2005-04-11", Provider: "Radiology Associates", Description: "MRI Lumbar Spine", Amount: 2400, Category: "Imaging", IsAccidentRelated: true, HasMatchingTreatment: true, RiskScore: LevelLow},
	{ID: "5", Date: "2005-04-11", Provider: "Radiology Associates", Description: "MRI Lumbar Spine", Amount: 2400, Category: "Imaging", IsAccidentRelated: true, HasMatchingTreatment: true, IsDuplicate: true, RiskScore: LevelHigh},
	{ID: "6", Date: "2005-02-16", Provider: "Orthopedic Associates", Description: "Initial Evaluation - Misc coded", Amount: 345, Category: "Office Visit", IsAccidentRelated: true, RiskScore: LevelMedium},
	{ID: "7", Date: "2005-03-15", Provider: "CVS Pharmacy", Description: "Pain Medication", Amount: 312.88, Category: "Pharmacy", IsAccidentRelated: true, HasMatchingTreatment: true, RiskScore: LevelLow},
	{ID: "8", Date: "2005-03-15", Provider: "CVS Pharmacy", Description: "Pain Medication", Amount: 312.88, Category: "Pharmacy", IsAccidentRelated: true, HasMatchingTreatment: true, IsDuplicate: true, RiskScore: LevelHigh},
	{ID: "9", Date: "2006-01-16", Provider: "Imaging Center", Description: "Post-op MRI", Amount: 1132.12, Category: "Imaging", IsAccidentRelated: true, HasMatchingTreatment: true, RiskScore: LevelLow},
}

// mvpBills is the abbreviated bill set; its sum does not match the override
// totals billing reports for this variant.
var mvpBills = append(append([]BillItem(nil), baseBills...),
	BillItem{ID: "10", Date: "2005-05-10", Provider: "Physical Therapy Center", Description: "PT Sessions (12 visits)", Amount: 2298.88, Category: "Physical Therapy", IsAccidentRelated: true, HasMatchingTreatment: true, RiskScore: LevelLow},
)
