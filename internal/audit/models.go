package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Callers treat audit as best-effort; a failed append never blocks a booking.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Target identifiers (optional, depending on the event type).
	AdminID   int64 `json:"admin_id,omitempty" db:"admin_id"`
	CompanyID int64 `json:"company_id,omitempty" db:"company_id"`
	ContactID int64 `json:"contact_id,omitempty" db:"contact_id"`
	MeetingID int64 `json:"meeting_id,omitempty" db:"meeting_id"`

	// Reason is the stable rejection or failure code, e.g. ADMIN_NOT_FREE.
	Reason string `json:"reason,omitempty" db:"reason"`

	// IPAddress is the resolved client IP when the event originates from a request.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	Message  string `json:"message,omitempty" db:"message"`
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeBookingCommitted EventType = "booking_committed"
	EventTypeBookingRejected  EventType = "booking_rejected"
	EventTypeMirrorFailed     EventType = "mirror_failed"
)
