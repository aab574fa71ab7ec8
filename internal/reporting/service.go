package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callbooker/internal/booking"

	"github.com/samber/lo"
)

// MaxRange caps a single report.
const MaxRange = 366 * 24 * time.Hour

var ErrInvalidRequest = fmt.Errorf("%w: reporting: invalid request", booking.ErrValidation)

// Repository reads booked meetings. Reports never write.
type Repository interface {
	GetAdmin(ctx context.Context, id int64) (booking.Admin, error)
	ListAdminMeetings(ctx context.Context, adminID int64, from, to time.Time) ([]booking.Meeting, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) BookingsSummary(ctx context.Context, req BookingsSummaryRequest) (BookingsSummary, error) {
	if req.AdminID <= 0 {
		return BookingsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return BookingsSummary{}, ErrInvalidRequest
	}
	if req.Range.To.Sub(req.Range.From) > MaxRange {
		return BookingsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return BookingsSummary{}, errors.New("reporting: repository not configured")
	}

	admin, err := s.repo.GetAdmin(ctx, req.AdminID)
	if err != nil {
		return BookingsSummary{}, err
	}
	rows, err := s.repo.ListAdminMeetings(ctx, admin.ID, req.Range.From, req.Range.To)
	if err != nil {
		return BookingsSummary{}, err
	}

	out := BookingsSummary{AdminID: admin.ID, Range: req.Range}
	for _, m := range rows {
		out.TotalMeetings++
		out.BookedMinutes += int(m.EndTime.Sub(m.StartTime) / time.Minute)
		switch m.Type {
		case booking.MeetingTypeSales:
			out.SalesMeetings++
		case booking.MeetingTypeSupport:
			out.SupportMeetings++
		}
	}
	out.DistinctCompanies = len(lo.UniqBy(rows, func(m booking.Meeting) int64 { return m.CompanyID }))
	out.DistinctContacts = len(lo.UniqBy(rows, func(m booking.Meeting) int64 { return m.ContactID }))

	// Rows are ordered by start time.
	if len(rows) > 0 {
		first, last := rows[0].StartTime, rows[len(rows)-1].StartTime
		out.FirstMeeting, out.LastMeeting = &first, &last
	}
	return out, nil
}
