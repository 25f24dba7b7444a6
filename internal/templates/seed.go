package templates

import (
	"time"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

type seedTemplate struct {
	code, name        string
	kind              models.DocumentKind
	content           string
	legalRequirements string
}

var seedTemplates = []seedTemplate{
	{
		code: "US", name: "United States", kind: models.EmploymentContractDocument,
		content: "At-will employment agreement. State the employing entity, position, FLSA " +
			"exemption status, and that employment may be terminated by either party at any time.",
		legalRequirements: `["at-will employment clause","FLSA classification","state law governing clause"]`,
	},
	{
		code: "US", name: "United States", kind: models.OfferLetterDocument,
		content: "Offer letter confirming position, start date, base salary placeholder and " +
			"benefits eligibility. Offer contingent on I-9 verification.",
		legalRequirements: `["I-9 eligibility verification","at-will disclaimer"]`,
	},
	{
		code: "US", name: "United States", kind: models.NDADocument,
		content: "Mutual confidentiality undertaking with invention assignment consistent " +
			"with state limitations on assignment of independent inventions.",
		legalRequirements: `["invention assignment carve-out","trade secret notice (DTSA)"]`,
	},
	{
		code: "UK", name: "United Kingdom", kind: models.EmploymentContractDocument,
		content: "Statement of written particulars per the Employment Rights Act 1996: " +
			"parties, start date, pay interval, hours, holiday entitlement and notice periods.",
		legalRequirements: `["written particulars (ERA 1996 s.1)","statutory notice periods","holiday entitlement"]`,
	},
	{
		code: "UK", name: "United Kingdom", kind: models.OfferLetterDocument,
		content: "Offer letter subject to right-to-work checks and referencing the contract " +
			"of employment to follow.",
		legalRequirements: `["right-to-work check","reference to written particulars"]`,
	},
	{
		code: "DE", name: "Germany", kind: models.EmploymentContractDocument,
		content: "Arbeitsvertrag per the Nachweisgesetz: written record of essential terms, " +
			"probation period (max six months), notice periods per BGB 622.",
		legalRequirements: `["Nachweisgesetz written terms","probation period limits","BGB 622 notice periods"]`,
	},
}

var seedPolicyChunks = []models.PolicyChunk{
	{Source: "Employee Handbook", Text: "All new employees attend orientation on their first day and are assigned an onboarding buddy for their first month."},
	{Source: "Employee Handbook", Text: "Welcome emails should set expectations for day one: orientation, equipment pickup, and introductions with the manager and team."},
	{Source: "Compensation Policy", Text: "Offer letters state base salary, bonus eligibility and benefits summary. Compensation figures require HR approval before sending."},
	{Source: "Equity Policy", Text: "Standard equity grants vest over four years with a one-year cliff, subject to board approval at the next scheduled meeting."},
	{Source: "Security Policy", Text: "Every employee signs a non-disclosure agreement covering confidential information and intellectual property before accessing internal systems."},
	{Source: "Onboarding Guide", Text: "30-60-90 plans progress from learning and orientation to independent contribution and finally to owning deliverables end to end."},
	{Source: "IT Policy", Text: "Equipment requests cover a laptop, monitor and peripherals; software licenses are provisioned per department at least 48 hours before the start date."},
}

// Seed inserts the built-in jurisdiction templates and the starter policy
// corpus. Existing rows for a (code, kind) pair are left untouched.
func Seed(store storage.Store) error {
	now := time.Now()
	for _, t := range seedTemplates {
		if _, _, found, err := NewStore(store).GetJurisdictionTemplate(t.code, t.kind); err != nil {
			return err
		} else if found {
			continue
		}
		_, err := store.SaveJurisdictionTemplate(models.JurisdictionTemplate{
			JurisdictionCode:  t.code,
			JurisdictionName:  t.name,
			DocumentKind:      t.kind,
			TemplateContent:   t.content,
			LegalRequirements: t.legalRequirements,
			CreatedAt:         now,
		})
		if err != nil {
			return err
		}
	}
	chunks, err := store.ListPolicyChunks()
	if err != nil {
		return err
	}
	if len(chunks) > 0 {
		return nil
	}
	for _, c := range seedPolicyChunks {
		c.CreatedAt = now
		if _, err := store.SavePolicyChunk(c); err != nil {
			return err
		}
	}
	return nil
}
