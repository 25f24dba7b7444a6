package service

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

// ErrEmailTaken is returned when creating an employee with an email that is
// already registered.
var ErrEmailTaken = errors.New("employee email already registered")

// EmployeeService owns employee records. Employee status is not writable
// here; the workflow state machine mutates it as runs progress.
type EmployeeService struct {
	store  storage.Store
	logger Logger
}

func NewEmployeeService(store storage.Store, logger Logger) *EmployeeService {
	return &EmployeeService{store: store, logger: logger}
}

func (s *EmployeeService) Create(e models.Employee) (models.Employee, error) {
	if err := validateEmployee(e); err != nil {
		return models.Employee{}, err
	}
	if _, err := s.store.GetEmployeeByEmail(e.Email); err == nil {
		return models.Employee{}, errors.Wrap(ErrEmailTaken, e.Email)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Employee{}, err
	}
	if e.Jurisdiction == "" {
		e.Jurisdiction = "US"
	}
	e.Status = models.PendingEmployeeStatus
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	id, err := s.store.SaveEmployee(e)
	if err != nil {
		return models.Employee{}, errors.Wrap(err, "save employee")
	}
	s.logger.Infof("Created employee %d (%s)", id, e.Email)
	return s.store.GetEmployee(id)
}

func (s *EmployeeService) Get(id int64) (models.Employee, error) {
	return s.store.GetEmployee(id)
}

func (s *EmployeeService) List() ([]models.Employee, error) {
	return s.store.ListEmployees()
}

// Delete removes an employee and, through the store, every workflow, step,
// document and approval hanging off it.
func (s *EmployeeService) Delete(id int64) error {
	if err := s.store.DeleteEmployee(id); err != nil {
		return err
	}
	s.logger.Infof("Deleted employee %d", id)
	return nil
}

func validateEmployee(e models.Employee) error {
	var missing []string
	if strings.TrimSpace(e.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(e.Email) == "" || !strings.Contains(e.Email, "@") {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(e.Role) == "" {
		missing = append(missing, "role")
	}
	if strings.TrimSpace(e.Department) == "" {
		missing = append(missing, "department")
	}
	if e.StartDate.IsZero() {
		missing = append(missing, "start_date")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing or invalid employee fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
