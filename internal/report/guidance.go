package report

import (
	_ "embed"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed guidance.yaml
var guidanceYAML []byte

// RiskDriver is one card of the litigation exposure panel.
type RiskDriver struct {
	Category        string `yaml:"category" json:"category"`
	Level           string `yaml:"level" json:"level"`
	Description     string `yaml:"description" json:"description"`
	EvidenceSource  string `yaml:"evidence_source" json:"evidenceSource"`
	EvidencePageRef string `yaml:"evidence_page_ref" json:"evidencePageRef"`
}

type Exposure struct {
	Level   string       `yaml:"level" json:"level"`
	Summary string       `yaml:"summary" json:"summary"`
	Drivers []RiskDriver `yaml:"drivers" json:"drivers"`
}

type ReserveRange struct {
	Level     string `yaml:"level" json:"level"`
	Amount    string `yaml:"amount" json:"amount"`
	Reasoning string `yaml:"reasoning" json:"reasoning"`
}

type Reserve struct {
	Ranges           []ReserveRange `yaml:"ranges" json:"ranges"`
	UpwardPressure   string         `yaml:"upward_pressure" json:"upwardPressure"`
	DownwardPressure string         `yaml:"downward_pressure" json:"downwardPressure"`
}

type ActionItem struct {
	Action        string `yaml:"action" json:"action"`
	WhyItMatters  string `yaml:"why_it_matters" json:"whyItMatters"`
	RiskAddressed string `yaml:"risk_addressed" json:"riskAddressed"`
	Owner         string `yaml:"owner" json:"owner"`
	Priority      string `yaml:"priority" json:"priority"`
}

type LeakageSignal struct {
	Description     string `yaml:"description" json:"description"`
	Impact          string `yaml:"impact" json:"impact"`
	EvidenceSource  string `yaml:"evidence_source" json:"evidenceSource"`
	EvidencePageRef string `yaml:"evidence_page_ref" json:"evidencePageRef"`
	Severity        string `yaml:"severity" json:"severity"`
}

type Leakage struct {
	Intro   string          `yaml:"intro" json:"intro"`
	Signals []LeakageSignal `yaml:"signals" json:"signals"`
}

// BodyPartDriver is an exposure driver tied to an injured body region.
type BodyPartDriver struct {
	ID              string `yaml:"id" json:"id"`
	BodyPart        string `yaml:"body_part" json:"bodyPart"`
	Driver          string `yaml:"driver" json:"driver"`
	WhyItMatters    string `yaml:"why_it_matters" json:"whyItMatters"`
	EvidenceSource  string `yaml:"evidence_source" json:"evidenceSource"`
	EvidencePageRef string `yaml:"evidence_page_ref" json:"evidencePageRef"`
	Risk            string `yaml:"risk" json:"risk"`
}

// Guidance is the pre-authored litigation and reserve content shown in the
// Next Steps and exposure sections.
type Guidance struct {
	Exposure  Exposure         `yaml:"exposure" json:"exposure"`
	Reserve   Reserve          `yaml:"reserve" json:"reserve"`
	Actions   []ActionItem     `yaml:"actions" json:"actions"`
	Leakage   Leakage          `yaml:"leakage" json:"leakage"`
	BodyParts []BodyPartDriver `yaml:"body_parts" json:"bodyParts"`
}

var (
	guidanceOnce sync.Once
	guidance     Guidance
	guidanceErr  error
)

// ParseGuidance decodes guidance content from YAML.
func ParseGuidance(raw []byte) (Guidance, error) {
	var g Guidance
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return Guidance{}, eris.Wrap(err, "failed to decode guidance")
	}
	if g.Exposure.Level == "" {
		return Guidance{}, eris.New("guidance is missing an exposure level")
	}
	return g, nil
}

// LoadGuidance returns the embedded guidance, decoded once per process.
func LoadGuidance() (Guidance, error) {
	guidanceOnce.Do(func() {
		guidance, guidanceErr = ParseGuidance(guidanceYAML)
	})
	return guidance, guidanceErr
}
