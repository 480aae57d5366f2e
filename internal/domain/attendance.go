package domain

import "context"

// CheckinStatus classifies one scan attempt.
type CheckinStatus string

const (
	CheckinSuccess   CheckinStatus = "success"
	CheckinDuplicate CheckinStatus = "duplicate"
	CheckinError     CheckinStatus = "error"
)

// AttendeeSummary is what the door operator sees after a scan resolves.
type AttendeeSummary struct {
	Name         string `json:"name"`
	TicketNumber string `json:"ticket_number"`
	Department   string `json:"department,omitempty"`
	Year         string `json:"year,omitempty"`
}

// CheckinResult is the terminal outcome of a scan. Student is set for
// success and duplicate; Message is set for error and surfaced verbatim.
type CheckinResult struct {
	Status  CheckinStatus    `json:"status"`
	Student *AttendeeSummary `json:"student_data,omitempty"`
	Message string           `json:"message,omitempty"`
}

// AttendanceBackend records a check-in for a ticket. Marking is commutative
// and idempotent: the backend is the authority for the attended transition
// and repeated calls classify as duplicate rather than failing.
type AttendanceBackend interface {
	MarkAttendance(ctx context.Context, ticketNumber string) (*CheckinResult, error)
}

// CameraSource grants access to a scanning camera. The returned stream must
// be closed on every exit path, including errors.
type CameraSource interface {
	Acquire(ctx context.Context) (CameraStream, error)
}

// CameraStream emits decoded ticket numbers until closed. Close must be
// safe to call more than once.
type CameraStream interface {
	Decoded() <-chan string
	Close() error
}
