package models

import "time"

// JurisdictionTemplate carries jurisdiction-specific template text and the
// legal clauses a generated document of the given kind must include.
type JurisdictionTemplate struct {
	ID                int64        `json:"id" db:"id"`
	JurisdictionCode  string       `json:"jurisdiction_code" db:"jurisdiction_code"`
	JurisdictionName  string       `json:"jurisdiction_name" db:"jurisdiction_name"`
	DocumentKind      DocumentKind `json:"document_kind" db:"document_kind"`
	TemplateContent   string       `json:"template_content" db:"template_content"`
	LegalRequirements string       `json:"legal_requirements,omitempty" db:"legal_requirements"` // JSON array of clauses
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
}

// PolicyChunk is a retrievable fragment of a company policy document,
// consumed by the RAG retriever when building generation prompts.
type PolicyChunk struct {
	ID        int64     `json:"id" db:"id"`
	Source    string    `json:"source" db:"source"` // originating policy title
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
