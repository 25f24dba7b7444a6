package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/pkg/models"
)

// mockData is the shared backing state for a mock store and all
// transactional handles derived from it.
type mockData struct {
	employees map[int64]models.Employee
	workflows map[int64]models.Workflow
	steps     map[int64]models.Step
	documents map[int64]models.Document
	approvals map[int64]models.ApprovalRequest
	templates map[int64]models.JurisdictionTemplate
	chunks    map[int64]models.PolicyChunk
	nextID    int64
}

// mockStore implements Store with in-memory state. Begin acquires the store
// mutex and holds it until Commit/Rollback, so a transactional handle
// serializes read-then-act sequences the same way a database transaction
// with row locks would. Rollback does not undo writes; tests that need
// rollback semantics should assert on behavior, not on discarded state.
type mockStore struct {
	mu   *sync.Mutex
	data *mockData
	tx   bool
}

// NewMockStore returns an empty in-memory Store.
func NewMockStore() Store {
	return &mockStore{
		mu: &sync.Mutex{},
		data: &mockData{
			employees: make(map[int64]models.Employee),
			workflows: make(map[int64]models.Workflow),
			steps:     make(map[int64]models.Step),
			documents: make(map[int64]models.Document),
			approvals: make(map[int64]models.ApprovalRequest),
			templates: make(map[int64]models.JurisdictionTemplate),
			chunks:    make(map[int64]models.PolicyChunk),
		},
		tx: false,
	}
}

// lock acquires the store mutex for a single call unless this handle is a
// transaction already holding it.
func (m *mockStore) lock() func() {
	if m.tx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *mockStore) Begin() (Store, error) {
	if m.tx {
		return nil, errors.New("nested transactions are not supported")
	}
	m.mu.Lock()
	return &mockStore{mu: m.mu, data: m.data, tx: true}, nil
}

func (m *mockStore) Commit() error {
	if !m.tx {
		return errors.New("cannot commit: not a transaction")
	}
	m.tx = false
	m.mu.Unlock()
	return nil
}

func (m *mockStore) Rollback() error {
	if !m.tx {
		return errors.New("cannot rollback: not a transaction")
	}
	m.tx = false
	m.mu.Unlock()
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

func (m *mockStore) SaveEmployee(e models.Employee) (int64, error) {
	defer m.lock()()
	for _, existing := range m.data.employees {
		if existing.Email == e.Email {
			return 0, errors.Errorf("employee with email %s already exists", e.Email)
		}
	}
	m.data.nextID++
	e.ID = m.data.nextID
	m.data.employees[e.ID] = e
	return e.ID, nil
}

func (m *mockStore) GetEmployee(id int64) (models.Employee, error) {
	defer m.lock()()
	e, ok := m.data.employees[id]
	if !ok {
		return models.Employee{}, ErrNotFound
	}
	return e, nil
}

func (m *mockStore) GetEmployeeByEmail(email string) (models.Employee, error) {
	defer m.lock()()
	for _, e := range m.data.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return models.Employee{}, ErrNotFound
}

func (m *mockStore) ListEmployees() ([]models.Employee, error) {
	defer m.lock()()
	out := make([]models.Employee, 0, len(m.data.employees))
	for _, e := range m.data.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) UpdateEmployeeStatus(id int64, status models.EmployeeStatus) error {
	defer m.lock()()
	e, ok := m.data.employees[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	m.data.employees[id] = e
	return nil
}

func (m *mockStore) DeleteEmployee(id int64) error {
	defer m.lock()()
	if _, ok := m.data.employees[id]; !ok {
		return ErrNotFound
	}
	delete(m.data.employees, id)
	// Cascade: workflows (and their steps), documents and approvals go with
	// the employee.
	for wfID, wf := range m.data.workflows {
		if wf.EmployeeID != id {
			continue
		}
		for stepID, st := range m.data.steps {
			if st.WorkflowID == wfID {
				delete(m.data.steps, stepID)
			}
		}
		delete(m.data.workflows, wfID)
	}
	for docID, d := range m.data.documents {
		if d.EmployeeID == id {
			delete(m.data.documents, docID)
		}
	}
	for apID, a := range m.data.approvals {
		if a.EmployeeID == id {
			delete(m.data.approvals, apID)
		}
	}
	return nil
}

func (m *mockStore) SaveWorkflow(w models.Workflow) (int64, error) {
	defer m.lock()()
	m.data.nextID++
	w.ID = m.data.nextID
	w.Steps = nil
	m.data.workflows[w.ID] = w
	return w.ID, nil
}

func (m *mockStore) GetWorkflow(id int64) (models.Workflow, error) {
	defer m.lock()()
	return m.getWorkflowLocked(id)
}

func (m *mockStore) getWorkflowLocked(id int64) (models.Workflow, error) {
	w, ok := m.data.workflows[id]
	if !ok {
		return models.Workflow{}, ErrNotFound
	}
	w.Steps = m.stepsLocked(id)
	return w, nil
}

func (m *mockStore) stepsLocked(workflowID int64) []models.Step {
	var steps []models.Step
	for _, s := range m.data.steps {
		if s.WorkflowID == workflowID {
			steps = append(steps, s)
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepOrder < steps[j].StepOrder })
	return steps
}

func (m *mockStore) GetWorkflowStatus(id int64) (models.WorkflowStatus, error) {
	defer m.lock()()
	w, ok := m.data.workflows[id]
	if !ok {
		return "", ErrNotFound
	}
	return w.Status, nil
}

func (m *mockStore) GetActiveWorkflowByEmployee(employeeID int64) (models.Workflow, error) {
	defer m.lock()()
	for id, w := range m.data.workflows {
		if w.EmployeeID == employeeID && w.Status.Active() {
			return m.getWorkflowLocked(id)
		}
	}
	return models.Workflow{}, ErrNotFound
}

func (m *mockStore) GetLatestWorkflowByEmployee(employeeID int64) (models.Workflow, error) {
	defer m.lock()()
	var latest int64 = -1
	for id, w := range m.data.workflows {
		if w.EmployeeID == employeeID && id > latest {
			latest = id
		}
	}
	if latest == -1 {
		return models.Workflow{}, ErrNotFound
	}
	return m.getWorkflowLocked(latest)
}

func (m *mockStore) UpdateWorkflowStatus(id int64, status models.WorkflowStatus) error {
	defer m.lock()()
	w, ok := m.data.workflows[id]
	if !ok {
		return ErrNotFound
	}
	w.Status = status
	m.data.workflows[id] = w
	return nil
}

func (m *mockStore) CompareAndSwapWorkflowStatus(id int64, from, to models.WorkflowStatus) (bool, error) {
	defer m.lock()()
	w, ok := m.data.workflows[id]
	if !ok {
		return false, ErrNotFound
	}
	if w.Status != from {
		return false, nil
	}
	w.Status = to
	m.data.workflows[id] = w
	return true, nil
}

func (m *mockStore) MarkWorkflowStarted(id int64, at time.Time) error {
	defer m.lock()()
	w, ok := m.data.workflows[id]
	if !ok {
		return ErrNotFound
	}
	if w.StartedAt == nil {
		started := at
		w.StartedAt = &started
	}
	m.data.workflows[id] = w
	return nil
}

func (m *mockStore) MarkWorkflowFinished(id int64, status models.WorkflowStatus, errMsg string, at time.Time) error {
	defer m.lock()()
	w, ok := m.data.workflows[id]
	if !ok {
		return ErrNotFound
	}
	w.Status = status
	w.ErrorMsg = errMsg
	finished := at
	w.CompletedAt = &finished
	m.data.workflows[id] = w
	return nil
}

func (m *mockStore) ResetWorkflow(id int64) error {
	defer m.lock()()
	w, ok := m.data.workflows[id]
	if !ok {
		return ErrNotFound
	}
	w.Status = models.PendingWorkflowStatus
	w.ErrorMsg = ""
	w.CompletedAt = nil
	m.data.workflows[id] = w
	return nil
}

func (m *mockStore) SaveStep(s models.Step) (int64, error) {
	defer m.lock()()
	m.data.nextID++
	s.ID = m.data.nextID
	m.data.steps[s.ID] = s
	return s.ID, nil
}

func (m *mockStore) GetSteps(workflowID int64) ([]models.Step, error) {
	defer m.lock()()
	return m.stepsLocked(workflowID), nil
}

func (m *mockStore) MarkStepRunning(id int64, at time.Time) error {
	defer m.lock()()
	s, ok := m.data.steps[id]
	if !ok {
		return ErrNotFound
	}
	started := at
	s.Status = models.RunningStepStatus
	s.StartedAt = &started
	m.data.steps[id] = s
	return nil
}

func (m *mockStore) MarkStepCompleted(id int64, result string, at time.Time) error {
	defer m.lock()()
	s, ok := m.data.steps[id]
	if !ok {
		return ErrNotFound
	}
	finished := at
	s.Status = models.CompletedStepStatus
	s.Result = result
	s.ErrorMsg = ""
	s.CompletedAt = &finished
	m.data.steps[id] = s
	return nil
}

func (m *mockStore) MarkStepFailed(id int64, errMsg string, at time.Time) error {
	defer m.lock()()
	s, ok := m.data.steps[id]
	if !ok {
		return ErrNotFound
	}
	finished := at
	s.Status = models.FailedStepStatus
	s.ErrorMsg = errMsg
	s.CompletedAt = &finished
	m.data.steps[id] = s
	return nil
}

func (m *mockStore) ResetStep(id int64) error {
	defer m.lock()()
	s, ok := m.data.steps[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = models.PendingStepStatus
	s.ErrorMsg = ""
	s.Result = ""
	s.StartedAt = nil
	s.CompletedAt = nil
	m.data.steps[id] = s
	return nil
}

func (m *mockStore) SaveDocument(d models.Document) (int64, error) {
	defer m.lock()()
	m.data.nextID++
	d.ID = m.data.nextID
	if d.Version == 0 {
		d.Version = 1
	}
	m.data.documents[d.ID] = d
	return d.ID, nil
}

func (m *mockStore) GetDocument(id int64) (models.Document, error) {
	defer m.lock()()
	d, ok := m.data.documents[id]
	if !ok {
		return models.Document{}, ErrNotFound
	}
	return d, nil
}

func (m *mockStore) ListDocumentsByEmployee(employeeID int64) ([]models.Document, error) {
	defer m.lock()()
	var out []models.Document
	for _, d := range m.data.documents {
		if d.EmployeeID == employeeID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) UpdateDocumentStatus(id int64, status models.DocumentStatus, approvedBy string, approvedAt *time.Time) error {
	defer m.lock()()
	d, ok := m.data.documents[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	d.ApprovedBy = approvedBy
	d.ApprovedAt = approvedAt
	m.data.documents[id] = d
	return nil
}

func (m *mockStore) UpdateDocumentContent(id int64, content string) error {
	defer m.lock()()
	d, ok := m.data.documents[id]
	if !ok {
		return ErrNotFound
	}
	d.Content = content
	d.Version++
	m.data.documents[id] = d
	return nil
}

func (m *mockStore) SaveApproval(a models.ApprovalRequest) (int64, error) {
	defer m.lock()()
	m.data.nextID++
	a.ID = m.data.nextID
	m.data.approvals[a.ID] = a
	return a.ID, nil
}

func (m *mockStore) GetApproval(id int64) (models.ApprovalRequest, error) {
	defer m.lock()()
	a, ok := m.data.approvals[id]
	if !ok {
		return models.ApprovalRequest{}, ErrNotFound
	}
	return a, nil
}

func (m *mockStore) ListApprovals(status models.ApprovalStatus) ([]models.ApprovalRequest, error) {
	defer m.lock()()
	var out []models.ApprovalRequest
	for _, a := range m.data.approvals {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) ListApprovalsByEmployee(employeeID int64) ([]models.ApprovalRequest, error) {
	defer m.lock()()
	var out []models.ApprovalRequest
	for _, a := range m.data.approvals {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) CountPendingApprovals(employeeID int64) (int, error) {
	defer m.lock()()
	count := 0
	for _, a := range m.data.approvals {
		if a.EmployeeID == employeeID && a.Status == models.PendingApprovalStatus {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) UpdateApprovalDecision(id int64, status models.ApprovalStatus, reviewerID, comments string, at time.Time) error {
	defer m.lock()()
	a, ok := m.data.approvals[id]
	if !ok {
		return ErrNotFound
	}
	reviewed := at
	a.Status = status
	a.ReviewerID = reviewerID
	a.Comments = comments
	a.ReviewedAt = &reviewed
	m.data.approvals[id] = a
	return nil
}

func (m *mockStore) SaveJurisdictionTemplate(t models.JurisdictionTemplate) (int64, error) {
	defer m.lock()()
	m.data.nextID++
	t.ID = m.data.nextID
	m.data.templates[t.ID] = t
	return t.ID, nil
}

func (m *mockStore) GetJurisdictionTemplate(code string, kind models.DocumentKind) (models.JurisdictionTemplate, error) {
	defer m.lock()()
	for _, t := range m.data.templates {
		if t.JurisdictionCode == code && t.DocumentKind == kind {
			return t, nil
		}
	}
	return models.JurisdictionTemplate{}, ErrNotFound
}

func (m *mockStore) SavePolicyChunk(c models.PolicyChunk) (int64, error) {
	defer m.lock()()
	m.data.nextID++
	c.ID = m.data.nextID
	m.data.chunks[c.ID] = c
	return c.ID, nil
}

func (m *mockStore) ListPolicyChunks() ([]models.PolicyChunk, error) {
	defer m.lock()()
	out := make([]models.PolicyChunk, 0, len(m.data.chunks))
	for _, c := range m.data.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
