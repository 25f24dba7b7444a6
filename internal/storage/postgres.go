package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}


func (s *PostgresStore) SaveEmployee(e models.Employee) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO employees (name, email, role, department, start_date, manager_email, buddy_email, jurisdiction, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		e.Name, e.Email, e.Role, e.Department, e.StartDate, e.ManagerEmail, e.BuddyEmail, e.Jurisdiction, e.Status, e.CreatedAt, e.UpdatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save employee: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetEmployee(id int64) (models.Employee, error) {
	var e models.Employee
	err := s.db.Get(&e, "SELECT * FROM employees WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Employee{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Employee{}, err
	}
	return e, nil
}

func (s *PostgresStore) GetEmployeeByEmail(email string) (models.Employee, error) {
	var e models.Employee
	err := s.db.Get(&e, "SELECT * FROM employees WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return models.Employee{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Employee{}, err
	}
	return e, nil
}

func (s *PostgresStore) ListEmployees() ([]models.Employee, error) {
	employees := []models.Employee{}
	if err := s.db.Select(&employees, "SELECT * FROM employees ORDER BY id"); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *PostgresStore) UpdateEmployeeStatus(id int64, status models.EmployeeStatus) error {
	res, err := s.db.Exec("UPDATE employees SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) DeleteEmployee(id int64) error {
	// Workflows, steps, documents and approvals cascade at the schema level.
	res, err := s.db.Exec("DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}


func (s *PostgresStore) SaveWorkflow(w models.Workflow) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO onboarding_workflows (employee_id, status, error_msg, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		w.EmployeeID, w.Status, w.ErrorMsg, w.StartedAt, w.CompletedAt, w.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save workflow: %w", err)
	}
	return id, nil
}

// GetWorkflow retrieves a workflow by ID, including its steps in order
func (s *PostgresStore) GetWorkflow(id int64) (models.Workflow, error) {
	var w models.Workflow
	err := s.db.Get(&w, "SELECT * FROM onboarding_workflows WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Workflow{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Workflow{}, err
	}
	if err := s.db.Select(&w.Steps, "SELECT * FROM onboarding_steps WHERE workflow_id = $1 ORDER BY step_order", id); err != nil {
		return models.Workflow{}, fmt.Errorf("get workflow %d steps: %w", id, err)
	}
	return w, nil
}

func (s *PostgresStore) GetWorkflowStatus(id int64) (models.WorkflowStatus, error) {
	var status models.WorkflowStatus
	err := s.db.Get(&status, "SELECT status FROM onboarding_workflows WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound
	}
	return status, err
}

func (s *PostgresStore) GetActiveWorkflowByEmployee(employeeID int64) (models.Workflow, error) {
	var w models.Workflow
	err := s.db.Get(&w, `
		SELECT * FROM onboarding_workflows
		WHERE employee_id = $1 AND status IN ('PENDING', 'RUNNING', 'PAUSED', 'AWAITING_APPROVAL')
		ORDER BY id DESC LIMIT 1`, employeeID)
	if err == sql.ErrNoRows {
		return models.Workflow{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Workflow{}, err
	}
	return s.GetWorkflow(w.ID)
}

func (s *PostgresStore) GetLatestWorkflowByEmployee(employeeID int64) (models.Workflow, error) {
	var w models.Workflow
	err := s.db.Get(&w, "SELECT * FROM onboarding_workflows WHERE employee_id = $1 ORDER BY id DESC LIMIT 1", employeeID)
	if err == sql.ErrNoRows {
		return models.Workflow{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Workflow{}, err
	}
	return s.GetWorkflow(w.ID)
}

func (s *PostgresStore) UpdateWorkflowStatus(id int64, status models.WorkflowStatus) error {
	res, err := s.db.Exec("UPDATE onboarding_workflows SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// CompareAndSwapWorkflowStatus transitions from->to atomically and reports
// whether this call performed the transition
func (s *PostgresStore) CompareAndSwapWorkflowStatus(id int64, from, to models.WorkflowStatus) (bool, error) {
	res, err := s.db.Exec("UPDATE onboarding_workflows SET status = $1 WHERE id = $2 AND status = $3", to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkWorkflowStarted records when execution first touched the workflow;
// started_at is set only on the first call. Status transitions go through
// UpdateWorkflowStatus and CompareAndSwapWorkflowStatus so a paused or
// gated workflow is never un-blocked by an attaching execution loop.
func (s *PostgresStore) MarkWorkflowStarted(id int64, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE onboarding_workflows
		SET started_at = COALESCE(started_at, $1)
		WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) MarkWorkflowFinished(id int64, status models.WorkflowStatus, errMsg string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE onboarding_workflows
		SET status = $1, error_msg = $2, completed_at = $3
		WHERE id = $4`, status, errMsg, at, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) ResetWorkflow(id int64) error {
	res, err := s.db.Exec(`
		UPDATE onboarding_workflows
		SET status = 'PENDING', error_msg = '', completed_at = NULL
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}


func (s *PostgresStore) SaveStep(st models.Step) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO onboarding_steps (workflow_id, kind, step_order, status, requires_approval, result, error_msg, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		st.WorkflowID, st.Kind, st.StepOrder, st.Status, st.RequiresApproval, st.Result, st.ErrorMsg, st.StartedAt, st.CompletedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save step: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetSteps(workflowID int64) ([]models.Step, error) {
	steps := []models.Step{}
	if err := s.db.Select(&steps, "SELECT * FROM onboarding_steps WHERE workflow_id = $1 ORDER BY step_order", workflowID); err != nil {
		return nil, err
	}
	return steps, nil
}

func (s *PostgresStore) MarkStepRunning(id int64, at time.Time) error {
	res, err := s.db.Exec("UPDATE onboarding_steps SET status = 'RUNNING', started_at = $1 WHERE id = $2", at, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) MarkStepCompleted(id int64, result string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE onboarding_steps
		SET status = 'COMPLETED', result = $1, error_msg = '', completed_at = $2
		WHERE id = $3`, result, at, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) MarkStepFailed(id int64, errMsg string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE onboarding_steps
		SET status = 'FAILED', error_msg = $1, completed_at = $2
		WHERE id = $3`, errMsg, at, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *PostgresStore) ResetStep(id int64) error {
	res, err := s.db.Exec(`
		UPDATE onboarding_steps
		SET status = 'PENDING', result = '', error_msg = '', started_at = NULL, completed_at = NULL
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}


func (s *PostgresStore) SaveDocument(d models.Document) (int64, error) {
	if d.Version == 0 {
		d.Version = 1
	}
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO generated_documents (employee_id, kind, jurisdiction, content, status, version, generated_at, approved_at, approved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		d.EmployeeID, d.Kind, d.Jurisdiction, d.Content, d.Status, d.Version, d.GeneratedAt, d.ApprovedAt, d.ApprovedBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetDocument(id int64) (models.Document, error) {
	var d models.Document
	err := s.db.Get(&d, "SELECT * FROM generated_documents WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Document{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Document{}, err
	}
	return d, nil
}

func (s *PostgresStore) ListDocumentsByEmployee(employeeID int64) ([]models.Document, error) {
	docs := []models.Document{}
	if err := s.db.Select(&docs, "SELECT * FROM generated_documents WHERE employee_id = $1 ORDER BY id", employeeID); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *PostgresStore) UpdateDocumentStatus(id int64, status models.DocumentStatus, approvedBy string, approvedAt *time.Time) error {
	res, err := s.db.Exec(`
		UPDATE generated_documents
		SET status = $1, approved_by = $2, approved_at = $3
		WHERE id = $4`, status, approvedBy, approvedAt, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// UpdateDocumentContent replaces the document text and bumps its version
func (s *PostgresStore) UpdateDocumentContent(id int64, content string) error {
	res, err := s.db.Exec("UPDATE generated_documents SET content = $1, version = version + 1 WHERE id = $2", content, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}


func (s *PostgresStore) SaveApproval(a models.ApprovalRequest) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO approval_requests (employee_id, document_id, status, reviewer_id, comments, created_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		a.EmployeeID, a.DocumentID, a.Status, a.ReviewerID, a.Comments, a.CreatedAt, a.ReviewedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save approval: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetApproval(id int64) (models.ApprovalRequest, error) {
	var a models.ApprovalRequest
	err := s.db.Get(&a, "SELECT * FROM approval_requests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.ApprovalRequest{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ApprovalRequest{}, err
	}
	return a, nil
}

func (s *PostgresStore) ListApprovals(status models.ApprovalStatus) ([]models.ApprovalRequest, error) {
	approvals := []models.ApprovalRequest{}
	if status == "" {
		if err := s.db.Select(&approvals, "SELECT * FROM approval_requests ORDER BY id"); err != nil {
			return nil, err
		}
		return approvals, nil
	}
	if err := s.db.Select(&approvals, "SELECT * FROM approval_requests WHERE status = $1 ORDER BY id", status); err != nil {
		return nil, err
	}
	return approvals, nil
}

func (s *PostgresStore) ListApprovalsByEmployee(employeeID int64) ([]models.ApprovalRequest, error) {
	approvals := []models.ApprovalRequest{}
	if err := s.db.Select(&approvals, "SELECT * FROM approval_requests WHERE employee_id = $1 ORDER BY id", employeeID); err != nil {
		return nil, err
	}
	return approvals, nil
}

func (s *PostgresStore) CountPendingApprovals(employeeID int64) (int, error) {
	var count int
	err := s.db.Get(&count, "SELECT COUNT(*) FROM approval_requests WHERE employee_id = $1 AND status = 'PENDING'", employeeID)
	return count, err
}

func (s *PostgresStore) UpdateApprovalDecision(id int64, status models.ApprovalStatus, reviewerID, comments string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE approval_requests
		SET status = $1, reviewer_id = $2, comments = $3, reviewed_at = $4
		WHERE id = $5`, status, reviewerID, comments, at, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}


func (s *PostgresStore) SaveJurisdictionTemplate(t models.JurisdictionTemplate) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO jurisdiction_templates (jurisdiction_code, jurisdiction_name, document_kind, template_content, legal_requirements, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		t.JurisdictionCode, t.JurisdictionName, t.DocumentKind, t.TemplateContent, t.LegalRequirements, t.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save jurisdiction template: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetJurisdictionTemplate(code string, kind models.DocumentKind) (models.JurisdictionTemplate, error) {
	var t models.JurisdictionTemplate
	err := s.db.Get(&t, "SELECT * FROM jurisdiction_templates WHERE jurisdiction_code = $1 AND document_kind = $2", code, kind)
	if err == sql.ErrNoRows {
		return models.JurisdictionTemplate{}, storage.ErrNotFound
	}
	if err != nil {
		return models.JurisdictionTemplate{}, err
	}
	return t, nil
}


func (s *PostgresStore) SavePolicyChunk(c models.PolicyChunk) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO policy_chunks (source, text, created_at) VALUES ($1, $2, $3) RETURNING id`,
		c.Source, c.Text, c.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save policy chunk: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListPolicyChunks() ([]models.PolicyChunk, error) {
	chunks := []models.PolicyChunk{}
	if err := s.db.Select(&chunks, "SELECT * FROM policy_chunks ORDER BY id"); err != nil {
		return nil, err
	}
	return chunks, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
