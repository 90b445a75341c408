package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

// Понедельник 2024-08-05 08:55 по IST
var reminderNow = time.Date(2024, time.August, 5, 3, 25, 0, 0, time.UTC)

func classAt(day int, start, subject string) *model.Schedule {
	return &model.Schedule{
		ID:        uuid.New(),
		DayOfWeek: day,
		StartTime: start,
		Venue:     "Room 101",
		ClassInfo: model.ClassDescriptor{AcademicYear: "2", Branch: "IT", Division: "A", Subject: subject},
	}
}

func newTestReminders(schedules *memorySchedules, notifier *fakeNotifier, guard ReminderGuard) *ReminderService {
	return NewReminderService(schedules, notifier, guard, ReminderConfig{
		Location:  ist,
		Lookahead: 10 * time.Minute,
	}, zap.NewNop())
}

func TestReminderService_Window(t *testing.T) {
	schedules := &memorySchedules{schedules: []*model.Schedule{
		classAt(1, "09:00", "DBMS"),
		// Граница окна включается
		classAt(1, "09:05", "OS"),
		classAt(1, "09:06", "CN"),
		// Уже началось
		classAt(1, "08:55", "Maths"),
		classAt(1, "08:00", "Physics"),
		classAt(2, "09:00", "Tuesday"),
		classAt(1, "9am", "Broken"),
	}}
	notifier := &fakeNotifier{}
	s := newTestReminders(schedules, notifier, nil)

	sent, err := s.SendUpcomingReminders(context.Background(), reminderNow)
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	require.Len(t, notifier.calls, 2)

	first := notifier.calls[0]
	assert.Equal(t, "DBMS", first.class.Subject)
	assert.Equal(t, "Class Reminder: DBMS", first.msg.Title)
	assert.Equal(t, "Your class at 09:00 is starting in 10 minutes in Room 101.", first.msg.Body)
	assert.Equal(t, "OS", notifier.calls[1].class.Subject)
}

func TestReminderService_NoClassesToday(t *testing.T) {
	schedules := &memorySchedules{schedules: []*model.Schedule{classAt(3, "09:00", "DBMS")}}
	notifier := &fakeNotifier{}
	s := newTestReminders(schedules, notifier, nil)

	sent, err := s.SendUpcomingReminders(context.Background(), reminderNow)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, notifier.calls)
}

func TestReminderService_RepeatsWithoutGuard(t *testing.T) {
	schedules := &memorySchedules{schedules: []*model.Schedule{classAt(1, "09:00", "DBMS")}}
	notifier := &fakeNotifier{}
	s := newTestReminders(schedules, notifier, nil)

	// Соседние тики с пересекающимися окнами напоминают повторно
	_, err := s.SendUpcomingReminders(context.Background(), reminderNow)
	require.NoError(t, err)
	_, err = s.SendUpcomingReminders(context.Background(), reminderNow.Add(2*time.Minute))
	require.NoError(t, err)

	assert.Len(t, notifier.calls, 2)
}

func TestReminderService_Guard(t *testing.T) {
	schedules := &memorySchedules{schedules: []*model.Schedule{classAt(1, "09:00", "DBMS")}}

	t.Run("suppresses repeats", func(t *testing.T) {
		notifier := &fakeNotifier{}
		guard := &memoryGuard{keys: map[string]time.Duration{}}
		s := newTestReminders(schedules, notifier, guard)

		first, err := s.SendUpcomingReminders(context.Background(), reminderNow)
		require.NoError(t, err)
		second, err := s.SendUpcomingReminders(context.Background(), reminderNow.Add(2*time.Minute))
		require.NoError(t, err)

		assert.Equal(t, 1, first)
		assert.Zero(t, second)
		assert.Len(t, notifier.calls, 1)
		for _, ttl := range guard.keys {
			assert.Equal(t, 20*time.Minute, ttl)
		}
	})

	t.Run("unavailable guard does not block", func(t *testing.T) {
		notifier := &fakeNotifier{}
		guard := &memoryGuard{err: errors.New("redis down")}
		s := newTestReminders(schedules, notifier, guard)

		sent, err := s.SendUpcomingReminders(context.Background(), reminderNow)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})
}

func TestReminderService_Errors(t *testing.T) {
	t.Run("delivery failure is logged", func(t *testing.T) {
		schedules := &memorySchedules{schedules: []*model.Schedule{classAt(1, "09:00", "DBMS"), classAt(1, "09:01", "OS")}}
		notifier := &fakeNotifier{err: ErrDeliveryFailed}
		s := newTestReminders(schedules, notifier, nil)

		sent, err := s.SendUpcomingReminders(context.Background(), reminderNow)
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
	})

	t.Run("store failure", func(t *testing.T) {
		schedules := &memorySchedules{err: errors.New("db down")}
		s := newTestReminders(schedules, &fakeNotifier{}, nil)

		_, err := s.SendUpcomingReminders(context.Background(), reminderNow)
		require.Error(t, err)
	})
}
