package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks any failure to get an answer from a calendar provider:
// timeouts, transport errors, 5xx and malformed responses. It never means "busy".
var ErrUnavailable = errors.New("calendar: unavailable")

// Attendee is a participant invited to a mirrored event.
type Attendee struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Event is the external calendar representation of a committed meeting.
type Event struct {
	MeetingID   int64      `json:"meeting_id"`
	AdminEmail  string     `json:"admin_email"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Attendees   []Attendee `json:"attendees,omitempty"`
}

// FreeBusy answers whether a calendar has nothing booked in [start, end).
type FreeBusy interface {
	IsFree(ctx context.Context, email string, start, end time.Time) (bool, error)
}

// Gateway is the external calendar used at booking time.
type Gateway interface {
	FreeBusy
	CreateEvent(ctx context.Context, ev Event) (string, error)
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
