package models

import "time"

type DocumentKind string

const (
	EmploymentContractDocument DocumentKind = "employment_contract"
	NDADocument                DocumentKind = "nda"
	EquityAgreementDocument    DocumentKind = "equity_agreement"
	OfferLetterDocument        DocumentKind = "offer_letter"
)

type DocumentStatus string

const (
	DraftDocumentStatus           DocumentStatus = "DRAFT"
	PendingApprovalDocumentStatus DocumentStatus = "PENDING_APPROVAL"
	ApprovedDocumentStatus        DocumentStatus = "APPROVED"
	SentDocumentStatus            DocumentStatus = "SENT"
)

// Document is a generated legal artifact tied to one employee and one kind.
// Version is bumped on every manual edit and never decremented.
type Document struct {
	ID           int64          `json:"id" db:"id"`
	EmployeeID   int64          `json:"employee_id" db:"employee_id"`
	Kind         DocumentKind   `json:"kind" db:"kind"`
	Jurisdiction string         `json:"jurisdiction" db:"jurisdiction"`
	Content      string         `json:"content" db:"content"`
	Status       DocumentStatus `json:"status" db:"status"`
	Version      int            `json:"version" db:"version"`
	GeneratedAt  time.Time      `json:"generated_at" db:"generated_at"`
	ApprovedAt   *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	ApprovedBy   string         `json:"approved_by,omitempty" db:"approved_by"`
}
