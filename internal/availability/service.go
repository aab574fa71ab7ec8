package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callbooker/internal/booking"
	"callbooker/internal/settings"

	"github.com/samber/lo"
)

// MaxRange caps how far a single availability query may span.
const MaxRange = 62 * 24 * time.Hour

var ErrInvalidRange = fmt.Errorf("%w: range end must be after start and span at most 62 days", booking.ErrValidation)

type Store interface {
	GetAdmin(ctx context.Context, id int64) (booking.Admin, error)
	ListAdminMeetings(ctx context.Context, adminID int64, from, to time.Time) ([]booking.Meeting, error)
}

type SettingsProvider interface {
	Snapshot() settings.Settings
}

type Service struct {
	store    Store
	settings SettingsProvider
	clock    func() time.Time
}

func NewService(store Store, sp SettingsProvider) *Service {
	return &Service{store: store, settings: sp, clock: time.Now}
}

// AdminSlots returns the admin's free slots in [start, end), or
// booking.ErrAdminNotFound / ErrInvalidRange.
func (s *Service) AdminSlots(ctx context.Context, adminID int64, start, end time.Time) ([]Interval, error) {
	if !start.Before(end) || end.Sub(start) > MaxRange {
		return nil, ErrInvalidRange
	}

	admin, err := s.store.GetAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	loc, err := admin.Location()
	if err != nil {
		return nil, err
	}

	meetings, err := s.store.ListAdminMeetings(ctx, admin.ID, start, end)
	if err != nil && !errors.Is(err, booking.ErrNotFound) {
		return nil, fmt.Errorf("list admin meetings: %w", err)
	}
	booked := lo.Map(meetings, func(m booking.Meeting, _ int) Interval {
		return Interval{Start: m.StartTime, End: m.EndTime}
	})

	return ComputeSlots(s.settings.Snapshot(), loc, start, end, booked, s.clock()), nil
}
