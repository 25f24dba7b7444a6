package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is the result of scheduling one calendar entry.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Description     string    `json:"description"`
	Attendees       []string  `json:"attendees"`
	Status          string    `json:"status"`
}

// Scheduler is the calendar collaborator. Implementations must degrade to a
// synthetic event rather than fail when no real backend is configured.
type Scheduler interface {
	ScheduleEvent(ctx context.Context, title string, date time.Time, durationMinutes int, description string, attendees []string) (Event, error)
}

// MockScheduler fabricates events locally. It is the default when no
// calendar credentials are present.
type MockScheduler struct{}

func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

func (s *MockScheduler) ScheduleEvent(ctx context.Context, title string, date time.Time, durationMinutes int, description string, attendees []string) (Event, error) {
	if attendees == nil {
		attendees = []string{}
	}
	return Event{
		ID:              "mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Title:           title,
		Date:            date,
		DurationMinutes: durationMinutes,
		Description:     description,
		Attendees:       attendees,
		Status:          "mock",
	}, nil
}

// OnboardingEvents schedules the three standard onboarding events:
// orientation on the start date, a manager 1:1 the day after, and a buddy
// meetup two days after.
func OnboardingEvents(ctx context.Context, s Scheduler, employeeName, employeeEmail string, startDate time.Time, managerEmail, buddyEmail string) ([]Event, error) {
	withContact := func(contact string) []string {
		attendees := []string{employeeEmail}
		if contact != "" {
			attendees = append(attendees, contact)
		}
		return attendees
	}

	orientation, err := s.ScheduleEvent(ctx, "Orientation - "+employeeName, startDate, 120,
		"Welcome orientation for "+employeeName, withContact(managerEmail))
	if err != nil {
		return nil, err
	}
	managerMeet, err := s.ScheduleEvent(ctx, "Manager 1:1 - "+employeeName, startDate.AddDate(0, 0, 1), 60,
		"Initial 1:1 meeting between "+employeeName+" and manager", withContact(managerEmail))
	if err != nil {
		return nil, err
	}
	buddyMeet, err := s.ScheduleEvent(ctx, "Buddy Meetup - "+employeeName, startDate.AddDate(0, 0, 2), 45,
		"Casual meetup between "+employeeName+" and onboarding buddy", withContact(buddyEmail))
	if err != nil {
		return nil, err
	}
	return []Event{orientation, managerMeet, buddyMeet}, nil
}
