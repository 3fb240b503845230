package dto

import "time"

// AppointmentCreateRequest payload for booking an appointment.
type AppointmentCreateRequest struct {
	Service      string    `json:"service"`
	ScheduledFor time.Time `json:"scheduled_for"`
	Notes        string    `json:"notes"`
}

// DocumentCreateRequest payload for registering a submitted document.
type DocumentCreateRequest struct {
	Title    string `json:"title"`
	FileName string `json:"file_name"`
	Category string `json:"category"`
}

// PaymentCreateRequest payload for recording a payment.
type PaymentCreateRequest struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

// StatusUpdateRequest payload for moving a record through its lattice.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}
