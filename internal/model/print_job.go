package model

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusInProgress JobStatus = "In Progress"
	JobStatusReady      JobStatus = "Ready"
	JobStatusCollected  JobStatus = "Collected"
)

// Valid проверяет что статус известен
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusInProgress, JobStatusReady, JobStatusCollected:
		return true
	default:
		return false
	}
}

const (
	ColorBW    = "B&W"
	ColorColor = "Color"

	SidedSingle = "Single-Sided"
	SidedDouble = "Double-Sided"

	PaymentStatusPaid = "Paid"
)

// PrintFile ссылка на файл, загруженный клиентом в файловое хранилище
type PrintFile struct {
	FileName string `json:"fileName" binding:"required"`
	FileURL  string `json:"fileUrl" binding:"required"`
}

// PrintPreferences параметры печати
type PrintPreferences struct {
	Copies         int    `json:"copies"`
	Color          string `json:"color"`
	Sided          string `json:"sided"`
	IsStapled      bool   `json:"isStapled"`
	Instructions   string `json:"instructions"`
	TotalPageCount int    `json:"totalPageCount"`
}

// PrintJob заказ на печать (print_jobs/{id})
type PrintJob struct {
	ID               uuid.UUID        `json:"id"`
	SubmittedByID    string           `json:"submittedById"`
	SubmittedByEmail string           `json:"submittedByEmail"`
	SlotID           SlotID           `json:"slotId"`
	Files            []PrintFile      `json:"files"`
	Preferences      PrintPreferences `json:"preferences"`
	Status           JobStatus        `json:"status"`
	PaymentID        string           `json:"paymentId"`
	OrderID          string           `json:"orderId"`
	PaymentAmount    float64          `json:"paymentAmount"`
	PaymentStatus    string           `json:"paymentStatus"`
	SubmittedAt      time.Time        `json:"submittedAt"`
}
