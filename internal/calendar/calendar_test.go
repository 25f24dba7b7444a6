package calendar_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zerotouch/onboard/internal/calendar"
)

func TestMockSchedulerNeverFails(t *testing.T) {
	s := calendar.NewMockScheduler()
	event, err := s.ScheduleEvent(context.Background(), "Orientation", time.Now(), 120, "welcome", nil)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(event.ID, "mock_"))
	assert.Len(t, event.ID, len("mock_")+12)
	assert.Equal(t, "mock", event.Status)
	assert.NotNil(t, event.Attendees)
}

func TestOnboardingEvents(t *testing.T) {
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	events, err := calendar.OnboardingEvents(context.Background(), calendar.NewMockScheduler(),
		"Ada Lovelace", "ada@example.com", start, "manager@example.com", "buddy@example.com")
	assert.NoError(t, err)
	assert.Len(t, events, 3)

	orientation, managerMeet, buddyMeet := events[0], events[1], events[2]

	assert.Contains(t, orientation.Title, "Orientation")
	assert.Equal(t, start, orientation.Date)
	assert.Equal(t, 120, orientation.DurationMinutes)

	assert.Contains(t, managerMeet.Title, "Manager 1:1")
	assert.Equal(t, start.AddDate(0, 0, 1), managerMeet.Date)
	assert.Equal(t, 60, managerMeet.DurationMinutes)
	assert.Contains(t, managerMeet.Attendees, "manager@example.com")

	assert.Contains(t, buddyMeet.Title, "Buddy Meetup")
	assert.Equal(t, start.AddDate(0, 0, 2), buddyMeet.Date)
	assert.Equal(t, 45, buddyMeet.DurationMinutes)
	assert.Contains(t, buddyMeet.Attendees, "buddy@example.com")
}

func TestOnboardingEventsWithoutContacts(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	events, err := calendar.OnboardingEvents(context.Background(), calendar.NewMockScheduler(),
		"Ada Lovelace", "ada@example.com", start, "", "")
	assert.NoError(t, err)
	assert.Len(t, events, 3)
	for _, event := range events {
		assert.Equal(t, []string{"ada@example.com"}, event.Attendees)
	}
}
