package templates

import (
	"strings"
	"text/template"
)

// SystemPrompt frames every LLM call the orchestrator makes.
const SystemPrompt = "You are an HR operations assistant that drafts professional, " +
	"legally-aware onboarding documents. Be precise, use the provided jurisdiction " +
	"templates and legal requirements verbatim where given, and never invent " +
	"compensation figures."

// Prompt template keys. A key resolves to an operator override when one is
// registered and otherwise to the built-in default below.
const (
	KeyParseData          = "parse_data"
	KeyEmploymentContract = "employment_contract"
	KeyNDA                = "nda"
	KeyEquityAgreement    = "equity_agreement"
	KeyOfferLetter        = "offer_letter"
	KeyWelcomeEmail       = "welcome_email"
	KeyPlan306090         = "plan_30_60_90"
	KeyEquipmentRequest   = "equipment_request"
)

var defaults = map[string]string{
	KeyParseData: `Review the following new-hire record and produce a short completeness summary.
Validate that required fields look plausible and flag missing optional contacts.

Name: {{.Name}}
Email: {{.Email}}
Role: {{.Role}}
Department: {{.Department}}
Start Date: {{.StartDate}}
Manager: {{.ManagerEmail}}
Buddy: {{.BuddyEmail}}`,

	KeyEmploymentContract: `Generate a professional employment contract for:

Name: {{.Name}}
Role: {{.Role}}
Department: {{.Department}}
Start Date: {{.StartDate}}
Manager: {{.ManagerEmail}}
Jurisdiction: {{.Jurisdiction}}

Jurisdiction template:
{{.JurisdictionTemplate}}

Required legal clauses (include every one):
{{.LegalRequirements}}

Cover position details, compensation placeholder, working hours, termination terms and governing law.`,

	KeyNDA: `Generate a non-disclosure agreement for:

Name: {{.Name}}
Role: {{.Role}}
Department: {{.Department}}
Start Date: {{.StartDate}}
Jurisdiction: {{.Jurisdiction}}

Jurisdiction template:
{{.JurisdictionTemplate}}

Required legal clauses (include every one):
{{.LegalRequirements}}

Cover confidentiality scope, intellectual property assignment and duration.`,

	KeyEquityAgreement: `Generate an equity agreement for:

Name: {{.Name}}
Role: {{.Role}}
Department: {{.Department}}
Start Date: {{.StartDate}}
Jurisdiction: {{.Jurisdiction}}

Jurisdiction template:
{{.JurisdictionTemplate}}

Required legal clauses (include every one):
{{.LegalRequirements}}

Cover the option grant placeholder, vesting schedule (four years, one-year cliff) and board approval contingency.`,

	KeyOfferLetter: `Generate a formal offer letter for:

Name: {{.Name}}
Role: {{.Role}}
Department: {{.Department}}
Start Date: {{.StartDate}}
Manager: {{.ManagerEmail}}
Jurisdiction: {{.Jurisdiction}}

Jurisdiction template:
{{.JurisdictionTemplate}}

Required legal clauses (include every one):
{{.LegalRequirements}}

Include position details, compensation placeholder, benefits summary and acceptance instructions.`,

	KeyWelcomeEmail: `Generate a warm, professional welcome email for a new employee:

Name: {{.Name}}
Role: {{.Role}}
Department: {{.Department}}
Start Date: {{.StartDate}}
Manager: {{.ManagerEmail}}
Buddy: {{.BuddyEmail}}

The email should welcome them, outline what to expect on day one, and express excitement about them joining.`,

	KeyPlan306090: `Create a comprehensive 30-60-90 day onboarding plan for:

Name: {{.Name}}
Role: {{.Role}}
Department: {{.Department}}

Structure it as:
- First 30 Days: Learning & Orientation
- Days 31-60: Contributing & Collaborating
- Days 61-90: Leading & Delivering

Include specific goals and milestones for each phase.`,

	KeyEquipmentRequest: `Generate an IT equipment provisioning request for:

Name: {{.Name}}
Role: {{.Role}}
Department: {{.Department}}
Start Date: {{.StartDate}}

Include standard equipment (laptop, monitor, peripherals) and software licenses needed for their role.`,
}

// PromptData carries the fields a prompt template may reference. Optional
// contacts default to "TBD" via Fill.
type PromptData struct {
	Name                 string
	Email                string
	Role                 string
	Department           string
	StartDate            string
	ManagerEmail         string
	BuddyEmail           string
	Jurisdiction         string
	JurisdictionTemplate string
	LegalRequirements    string
}

// Fill renders the template text with the given data.
func Fill(templateText string, data PromptData) (string, error) {
	if data.ManagerEmail == "" {
		data.ManagerEmail = "TBD"
	}
	if data.BuddyEmail == "" {
		data.BuddyEmail = "TBD"
	}
	if data.JurisdictionTemplate == "" {
		data.JurisdictionTemplate = "No jurisdiction template available. Use standard terms."
	}
	if data.LegalRequirements == "" {
		data.LegalRequirements = "[]"
	}
	tmpl, err := template.New("prompt").Parse(templateText)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
