package report

import (
	"strings"

	"github.com/Ashfaaq98/claims-console/internal/store"
)

// DefaultClaimID is the claim whose data backs unknown ids.
const DefaultClaimID = "1"

// Provider hands out per-claim report data. Templates are captured once at
// construction and every call returns an independent deep copy.
type Provider struct {
	full Data
	mvp  Data
}

// NewProvider builds a provider over the bundled demo case.
func NewProvider() *Provider {
	shared := Data{
		Timeline:       baseTimeline,
		Contradictions: baseContradictions,
		MissingFlags:   baseMissingFlags,
	}
	full := shared
	full.Bills = baseBills
	mvp := shared
	mvp.Bills = mvpBills

	return &Provider{full: full.Clone(), mvp: mvp.Clone()}
}

// TypeFor selects the report variant from claim identity.
func TypeFor(id, name string) Type {
	if id == "1" || strings.Contains(name, "Johnson") {
		return TypeFull
	}
	if id == "2" || strings.Contains(name, "Smith") {
		return TypeMVP
	}
	return TypeFull
}

// TypeForClaim is TypeFor over a catalog record.
func TypeForClaim(c store.Claim) Type {
	return TypeFor(c.ID, c.Name)
}

// Title is the heading shown above a claim's report.
func Title(c store.Claim) string {
	return TypeForClaim(c).Label() + ": " + claimantName
}

// ClaimReportData returns a fresh copy of the dataset for claimID. Only the
// id participates in selection; ids that map to neither variant receive the
// default full dataset.
func (p *Provider) ClaimReportData(claimID string) Data {
	if TypeFor(claimID, "") == TypeMVP {
		return p.mvp.Clone()
	}
	return p.full.Clone()
}

// Load opens a new, unshared report instance for a claim.
func (p *Provider) Load(c store.Claim) *Report {
	typ := TypeForClaim(c)
	data := p.full
	if typ == TypeMVP {
		data = p.mvp
	}
	return &Report{
		Claim: c,
		Type:  typ,
		Title: Title(c),
		data:  data.Clone(),
	}
}
