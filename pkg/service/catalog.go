package service

import "github.com/zerotouch/onboard/pkg/models"

// CatalogEntry pairs a step kind with its approval gating flag.
type CatalogEntry struct {
	Kind             models.StepKind
	RequiresApproval bool
}

// Catalog returns the fixed, ordered step set every new workflow is
// materialized from. Changing it only affects future workflow creations;
// existing workflows keep the steps they were created with.
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{Kind: models.ParseDataStep},
		{Kind: models.DetectJurisdictionStep},
		{Kind: models.EmploymentContractStep, RequiresApproval: true},
		{Kind: models.NDAStep, RequiresApproval: true},
		{Kind: models.EquityAgreementStep, RequiresApproval: true},
		{Kind: models.OfferLetterStep, RequiresApproval: true},
		{Kind: models.WelcomeEmailStep},
		{Kind: models.Plan306090Step},
		{Kind: models.ScheduleEventsStep},
		{Kind: models.EquipmentRequestStep},
	}
}

// GateKind is the step kind after which a workflow blocks for outstanding
// approvals: the last approval-gated step in catalog order. Gating once at
// the end batches all document reviews together.
func GateKind() models.StepKind {
	catalog := Catalog()
	for i := len(catalog) - 1; i >= 0; i-- {
		if catalog[i].RequiresApproval {
			return catalog[i].Kind
		}
	}
	return ""
}
