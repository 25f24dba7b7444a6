package models

import "time"

type StepKind string

const (
	ParseDataStep          StepKind = "parse_data"
	DetectJurisdictionStep StepKind = "detect_jurisdiction"
	EmploymentContractStep StepKind = "employment_contract"
	NDAStep                StepKind = "nda"
	EquityAgreementStep    StepKind = "equity_agreement"
	OfferLetterStep        StepKind = "offer_letter"
	WelcomeEmailStep       StepKind = "welcome_email"
	Plan306090Step         StepKind = "plan_30_60_90"
	ScheduleEventsStep     StepKind = "schedule_events"
	EquipmentRequestStep   StepKind = "equipment_request"
)

type StepStatus string

const (
	PendingStepStatus   StepStatus = "PENDING"
	RunningStepStatus   StepStatus = "RUNNING"
	CompletedStepStatus StepStatus = "COMPLETED"
	FailedStepStatus    StepStatus = "FAILED"
	SkippedStepStatus   StepStatus = "SKIPPED"
)

// Step is one unit of work within a workflow. Steps are created eagerly,
// PENDING, in catalog order; ordering indices are contiguous starting at 1
// and steps are never reordered or deleted individually.
type Step struct {
	ID               int64      `json:"id" db:"id"`
	WorkflowID       int64      `json:"workflow_id" db:"workflow_id"`
	Kind             StepKind   `json:"kind" db:"kind"`
	StepOrder        int        `json:"step_order" db:"step_order"`
	Status           StepStatus `json:"status" db:"status"`
	RequiresApproval bool       `json:"requires_approval" db:"requires_approval"`
	Result           string     `json:"result,omitempty" db:"result"` // JSON payload produced by the executor
	ErrorMsg         string     `json:"error,omitempty" db:"error_msg"`
	StartedAt        *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}
