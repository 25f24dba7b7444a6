package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/internal/log"
	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/service"
	"github.com/zerotouch/onboard/pkg/storage"
)

// Services bundles everything the HTTP surface delegates to.
type Services struct {
	Employees *service.EmployeeService
	Workflows *service.WorkflowService
	Approvals *service.ApprovalService
	Documents *service.DocumentService
}

// NewHandler wires the onboarding API routes.
func NewHandler(svcs Services) http.Handler {
	s := &server{svcs: svcs}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)

	mux.HandleFunc("GET /employees", s.listEmployees)
	mux.HandleFunc("POST /employees", s.createEmployee)
	mux.HandleFunc("GET /employees/{id}", s.getEmployee)
	mux.HandleFunc("DELETE /employees/{id}", s.deleteEmployee)

	mux.HandleFunc("POST /employees/{id}/onboarding", s.startOnboarding)
	mux.HandleFunc("GET /employees/{id}/onboarding", s.onboardingStatus)
	mux.HandleFunc("GET /employees/{id}/onboarding/stream", s.streamOnboarding)
	mux.HandleFunc("POST /employees/{id}/onboarding/pause", s.pauseOnboarding)
	mux.HandleFunc("POST /employees/{id}/onboarding/resume", s.resumeOnboarding)
	mux.HandleFunc("POST /employees/{id}/onboarding/retry", s.retryOnboarding)

	mux.HandleFunc("GET /approvals", s.listApprovals)
	mux.HandleFunc("GET /employees/{id}/approvals", s.listEmployeeApprovals)
	mux.HandleFunc("POST /approvals/{id}/approve", s.approve)
	mux.HandleFunc("POST /approvals/{id}/reject", s.reject)
	mux.HandleFunc("POST /approvals/{id}/request-revision", s.requestRevision)

	mux.HandleFunc("GET /documents/{id}", s.getDocument)
	mux.HandleFunc("PUT /documents/{id}", s.editDocument)
	mux.HandleFunc("GET /employees/{id}/documents", s.listEmployeeDocuments)
	return mux
}

// StartServer blocks serving the onboarding API on the given port.
func StartServer(port string, svcs Services) error {
	log.GetLogger().Infof("Starting onboarding server on :%s", port)
	return http.ListenAndServe(":"+port, NewHandler(svcs))
}

type server struct {
	svcs Services
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Onboarding server is running")
}

func (s *server) listEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.svcs.Employees.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (s *server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var e models.Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	created, err := s.svcs.Employees.Create(e)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := s.svcs.Employees.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svcs.Employees.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) startOnboarding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	workflow, err := s.svcs.Workflows.Create(id)
	if err != nil {
		writeError(w, err)
		return
	}
	s.svcs.Workflows.RunAsync(workflow.ID)
	writeJSON(w, http.StatusAccepted, workflow)
}

func (s *server) onboardingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	workflow, err := s.svcs.Workflows.LatestByEmployee(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workflow)
}

// streamOnboarding delivers workflow run events over SSE. It drives the run
// itself; a workflow already being advanced elsewhere yields a short stream
// noting that and ends.
func (s *server) streamOnboarding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	workflow, err := s.svcs.Workflows.LatestByEmployee(id)
	if errors.Is(err, storage.ErrNotFound) {
		workflow, err = s.svcs.Workflows.Create(id)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for event := range s.svcs.Workflows.StreamRun(r.Context(), workflow.ID) {
		payload, err := json.Marshal(event)
		if err != nil {
			log.GetLogger().Errorf("Failed to marshal stream event: %v", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

func (s *server) pauseOnboarding(w http.ResponseWriter, r *http.Request) {
	s.workflowTransition(w, r, s.svcs.Workflows.Pause)
}

func (s *server) resumeOnboarding(w http.ResponseWriter, r *http.Request) {
	s.workflowTransition(w, r, func(workflowID int64) error {
		if err := s.svcs.Workflows.Resume(workflowID); err != nil {
			return err
		}
		s.svcs.Workflows.RunAsync(workflowID)
		return nil
	})
}

func (s *server) retryOnboarding(w http.ResponseWriter, r *http.Request) {
	s.workflowTransition(w, r, func(workflowID int64) error {
		if err := s.svcs.Workflows.Retry(workflowID); err != nil {
			return err
		}
		s.svcs.Workflows.RunAsync(workflowID)
		return nil
	})
}

func (s *server) workflowTransition(w http.ResponseWriter, r *http.Request, op func(int64) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	workflow, err := s.svcs.Workflows.LatestByEmployee(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(workflow.ID); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.svcs.Workflows.Get(workflow.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *server) listApprovals(w http.ResponseWriter, r *http.Request) {
	status := models.ApprovalStatus(r.URL.Query().Get("status"))
	approvals, err := s.svcs.Approvals.List(status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approvals)
}

func (s *server) listEmployeeApprovals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	approvals, err := s.svcs.Approvals.ListByEmployee(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approvals)
}

type decisionRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Comments   string `json:"comments"`
}

func (s *server) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	resumed, err := s.svcs.Approvals.Approve(id, req.ReviewerID, req.Comments)
	if err != nil {
		writeError(w, err)
		return
	}
	approval, err := s.svcs.Approvals.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"approval":         approval,
		"workflow_resumed": resumed,
	})
}

func (s *server) reject(w http.ResponseWriter, r *http.Request) {
	s.decline(w, r, s.svcs.Approvals.Reject)
}

func (s *server) requestRevision(w http.ResponseWriter, r *http.Request) {
	s.decline(w, r, s.svcs.Approvals.RequestRevision)
}

func (s *server) decline(w http.ResponseWriter, r *http.Request, op func(int64, string, string) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := op(id, req.ReviewerID, req.Comments); err != nil {
		writeError(w, err)
		return
	}
	approval, err := s.svcs.Approvals.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approval)
}

func (s *server) getDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, err := s.svcs.Documents.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type editDocumentRequest struct {
	Content string `json:"content"`
}

func (s *server) editDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req editDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := s.svcs.Documents.UpdateContent(id, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *server) listEmployeeDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	docs, err := s.svcs.Documents.ListByEmployee(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrWorkflowActive),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyDecided),
		errors.Is(err, service.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.GetLogger().Errorf("Request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
