package audit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogBookingCommitted records a meeting that was written to the store.
func (s *Service) LogBookingCommitted(ctx context.Context, adminID, companyID, contactID, meetingID int64) error {
	return s.Append(ctx, Event{
		Type:      EventTypeBookingCommitted,
		AdminID:   adminID,
		CompanyID: companyID,
		ContactID: contactID,
		MeetingID: meetingID,
		Message:   "meeting booked",
	})
}

// LogBookingRejected records a booking attempt refused with reason.
func (s *Service) LogBookingRejected(ctx context.Context, adminID, companyID, contactID int64, reason string) error {
	if reason == "" {
		return ErrInvalidEvent
	}
	return s.Append(ctx, Event{
		Type:      EventTypeBookingRejected,
		AdminID:   adminID,
		CompanyID: companyID,
		ContactID: contactID,
		Reason:    reason,
		Message:   "booking rejected",
	})
}

// LogMirrorFailed records that a meeting's calendar event was given up on.
func (s *Service) LogMirrorFailed(ctx context.Context, meetingID int64, attempts int, lastErr string) error {
	if meetingID == 0 {
		return ErrInvalidEvent
	}
	return s.Append(ctx, Event{
		Type:      EventTypeMirrorFailed,
		MeetingID: meetingID,
		Reason:    "MIRROR_FAILED",
		Message:   lastErr,
		Metadata:  `{"attempts":` + strconv.Itoa(attempts) + `}`,
	})
}
