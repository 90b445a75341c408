package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Schedule регулярное занятие потока (schedules/{id})
type Schedule struct {
	ID        uuid.UUID       `json:"id"`
	DayOfWeek int             `json:"dayOfWeek"` // 0 = Sunday, 6 = Saturday
	StartTime string          `json:"startTime"` // "HH:MM"
	Venue     string          `json:"venue"`
	ClassInfo ClassDescriptor `json:"classInfo"`
	CreatedBy string          `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
}

// StartOn возвращает момент начала занятия в день day (в часовом поясе day)
func (s *Schedule) StartOn(day time.Time) (time.Time, error) {
	hour, minute, err := ParseClock(s.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// ParseClock разбирает время "HH:MM"
func ParseClock(value string) (hour, minute int, err error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("parse start time %q: %w", value, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}
