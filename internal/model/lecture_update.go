package model

import (
	"time"

	"github.com/google/uuid"
)

// LectureUpdate объявление преподавателя для потока (lecture_updates/{id})
type LectureUpdate struct {
	ID         uuid.UUID       `json:"id"`
	ClassInfo  ClassDescriptor `json:"classInfo"`
	UpdateType string          `json:"updateType"` // например "Cancelled", "Rescheduled", "Venue Change"
	Message    string          `json:"message"`
	CreatedBy  string          `json:"createdBy"`
	CreatedAt  time.Time       `json:"createdAt"`
}
