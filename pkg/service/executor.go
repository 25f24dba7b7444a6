package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/internal/calendar"
	"github.com/zerotouch/onboard/internal/llm"
	"github.com/zerotouch/onboard/internal/rag"
	"github.com/zerotouch/onboard/internal/templates"
	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

// Logger defines the logging interface the services accept.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// stepFunc executes one step kind for an employee and returns the result
// payload as JSON.
type stepFunc func(ctx context.Context, employee models.Employee) (string, error)

// Executor dispatches a step to its kind-specific body. All collaborators
// are injected. The executor never retries and never records failures;
// the state machine does both.
type Executor struct {
	store     storage.Store
	llm       llm.Client
	retriever rag.Retriever
	scheduler calendar.Scheduler
	templates *templates.Store
	approvals *ApprovalService
	logger    Logger
}

func NewExecutor(
	store storage.Store,
	client llm.Client,
	retriever rag.Retriever,
	scheduler calendar.Scheduler,
	tmpl *templates.Store,
	approvals *ApprovalService,
	logger Logger,
) *Executor {
	return &Executor{
		store:     store,
		llm:       client,
		retriever: retriever,
		scheduler: scheduler,
		templates: tmpl,
		approvals: approvals,
		logger:    logger,
	}
}

// Execute runs the body for the step's kind and returns its result payload.
func (e *Executor) Execute(ctx context.Context, step models.Step, employee models.Employee) (string, error) {
	fn, ok := e.dispatch()[step.Kind]
	if !ok {
		return "", errors.Errorf("unknown step kind %q", step.Kind)
	}
	return fn(ctx, employee)
}

func (e *Executor) dispatch() map[models.StepKind]stepFunc {
	return map[models.StepKind]stepFunc{
		models.ParseDataStep:          e.parseData,
		models.DetectJurisdictionStep: e.detectJurisdiction,
		models.EmploymentContractStep: e.documentStep(models.EmploymentContractDocument, templates.KeyEmploymentContract, "employment contract terms conditions onboarding"),
		models.NDAStep:                e.documentStep(models.NDADocument, templates.KeyNDA, "non-disclosure agreement confidentiality intellectual property"),
		models.EquityAgreementStep:    e.documentStep(models.EquityAgreementDocument, templates.KeyEquityAgreement, "equity stock options vesting compensation"),
		models.OfferLetterStep:        e.documentStep(models.OfferLetterDocument, templates.KeyOfferLetter, "offer letter employment terms compensation benefits"),
		models.WelcomeEmailStep:       e.generationStep(templates.KeyWelcomeEmail, "onboarding welcome email company culture"),
		models.Plan306090Step:         e.generationStep(templates.KeyPlan306090, "onboarding plan training milestones"),
		models.ScheduleEventsStep:     e.scheduleEvents,
		models.EquipmentRequestStep:   e.generationStep(templates.KeyEquipmentRequest, ""),
	}
}

func (e *Executor) promptData(employee models.Employee) templates.PromptData {
	return templates.PromptData{
		Name:         employee.Name,
		Email:        employee.Email,
		Role:         employee.Role,
		Department:   employee.Department,
		StartDate:    employee.StartDate.Format("2006-01-02"),
		ManagerEmail: employee.ManagerEmail,
		BuddyEmail:   employee.BuddyEmail,
		Jurisdiction: employee.Jurisdiction,
	}
}

// parseData validates required employee fields and asks the LLM for a
// completeness summary. Missing optional contacts are reported, never
// fatal.
func (e *Executor) parseData(ctx context.Context, employee models.Employee) (string, error) {
	var missing []string
	if employee.Name == "" {
		missing = append(missing, "name")
	}
	if employee.Email == "" {
		missing = append(missing, "email")
	}
	if employee.Role == "" {
		missing = append(missing, "role")
	}
	if employee.Department == "" {
		missing = append(missing, "department")
	}
	if employee.StartDate.IsZero() {
		missing = append(missing, "start_date")
	}
	if len(missing) > 0 {
		return "", errors.Errorf("employee record is missing required fields: %v", missing)
	}

	promptText, err := e.templates.GetTemplate(templates.KeyParseData)
	if err != nil {
		return "", err
	}
	prompt, err := templates.Fill(promptText, e.promptData(employee))
	if err != nil {
		return "", err
	}
	summary, err := e.llm.Generate(ctx, prompt, templates.SystemPrompt, "")
	if err != nil {
		return "", errors.Wrap(err, "completeness summary")
	}

	optional := []string{}
	if employee.ManagerEmail == "" {
		optional = append(optional, "manager_email")
	}
	if employee.BuddyEmail == "" {
		optional = append(optional, "buddy_email")
	}
	return marshalResult(map[string]interface{}{
		"type":             "parse_data",
		"validation":       "passed",
		"missing_optional": optional,
		"summary":          summary,
	})
}

// detectJurisdiction is purely local: it resolves the code to a display
// name and passes unknown codes through verbatim. It never fails.
func (e *Executor) detectJurisdiction(ctx context.Context, employee models.Employee) (string, error) {
	code := employee.Jurisdiction
	if code == "" {
		code = "US"
	}
	return marshalResult(map[string]interface{}{
		"type":              "detect_jurisdiction",
		"jurisdiction_code": code,
		"jurisdiction_name": templates.JurisdictionName(code),
	})
}

// documentStep builds the executor body for one document-producing kind:
// jurisdiction template + RAG context + prompt fill + LLM, persisting the
// document and registering its approval request before returning.
func (e *Executor) documentStep(kind models.DocumentKind, promptKey, ragQuery string) stepFunc {
	return func(ctx context.Context, employee models.Employee) (string, error) {
		jurisdiction := employee.Jurisdiction
		if jurisdiction == "" {
			jurisdiction = "US"
		}

		templateContent, legalReqs, _, err := e.templates.GetJurisdictionTemplate(jurisdiction, kind)
		if err != nil {
			return "", errors.Wrapf(err, "jurisdiction template for %s/%s", jurisdiction, kind)
		}

		snippets, err := e.retriever.Query(ctx, ragQuery, 3)
		if err != nil {
			return "", errors.Wrap(err, "policy retrieval")
		}

		promptText, err := e.templates.GetTemplate(promptKey)
		if err != nil {
			return "", err
		}
		data := e.promptData(employee)
		data.Jurisdiction = jurisdiction
		data.JurisdictionTemplate = templateContent
		data.LegalRequirements = legalReqs
		prompt, err := templates.Fill(promptText, data)
		if err != nil {
			return "", err
		}

		content, err := e.llm.Generate(ctx, prompt, templates.SystemPrompt, rag.JoinContext(snippets))
		if err != nil {
			return "", errors.Wrapf(err, "generate %s", kind)
		}

		docID, err := e.store.SaveDocument(models.Document{
			EmployeeID:   employee.ID,
			Kind:         kind,
			Jurisdiction: jurisdiction,
			Content:      content,
			Status:       models.DraftDocumentStatus,
			Version:      1,
			GeneratedAt:  time.Now(),
		})
		if err != nil {
			return "", errors.Wrapf(err, "persist %s", kind)
		}

		approval, err := e.approvals.Register(employee.ID, docID)
		if err != nil {
			return "", errors.Wrapf(err, "register approval for %s", kind)
		}
		e.logger.Infof("Generated %s document %d for employee %d (approval %d)", kind, docID, employee.ID, approval.ID)

		return marshalResult(map[string]interface{}{
			"type":         string(kind),
			"document_id":  docID,
			"approval_id":  approval.ID,
			"jurisdiction": jurisdiction,
		})
	}
}

// generationStep builds the executor body for plain LLM generation kinds
// (welcome email, 30-60-90 plan, equipment request). An empty ragQuery
// skips retrieval.
func (e *Executor) generationStep(promptKey, ragQuery string) stepFunc {
	return func(ctx context.Context, employee models.Employee) (string, error) {
		ragContext := ""
		if ragQuery != "" {
			snippets, err := e.retriever.Query(ctx, ragQuery, 3)
			if err != nil {
				return "", errors.Wrap(err, "policy retrieval")
			}
			ragContext = rag.JoinContext(snippets)
		}

		promptText, err := e.templates.GetTemplate(promptKey)
		if err != nil {
			return "", err
		}
		prompt, err := templates.Fill(promptText, e.promptData(employee))
		if err != nil {
			return "", err
		}
		content, err := e.llm.Generate(ctx, prompt, templates.SystemPrompt, ragContext)
		if err != nil {
			return "", errors.Wrapf(err, "generate %s", promptKey)
		}
		return marshalResult(map[string]interface{}{
			"type":    promptKey,
			"content": content,
		})
	}
}

// scheduleEvents is deterministic given inputs: three fixed events computed
// from the start date, no LLM involved.
func (e *Executor) scheduleEvents(ctx context.Context, employee models.Employee) (string, error) {
	events, err := calendar.OnboardingEvents(ctx, e.scheduler,
		employee.Name, employee.Email, employee.StartDate, employee.ManagerEmail, employee.BuddyEmail)
	if err != nil {
		return "", errors.Wrap(err, "schedule onboarding events")
	}
	return marshalResult(map[string]interface{}{
		"type":   "calendar_events",
		"events": events,
	})
}

func marshalResult(payload map[string]interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal step result")
	}
	return string(b), nil
}
