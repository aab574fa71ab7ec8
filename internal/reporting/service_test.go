package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"callbooker/internal/booking"
	"callbooker/internal/calendar"
)

func seed(t *testing.T) (*booking.MemoryRepo, time.Time) {
	t.Helper()
	repo := booking.NewMemoryRepo()
	repo.PutAdmin(booking.Admin{ID: 7, Email: "ann@example.com"})
	repo.PutAdmin(booking.Admin{ID: 8, Email: "ben@example.com"})

	day := time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	add := func(adminID, companyID, contactID int64, typ booking.MeetingType, start time.Time) {
		t.Helper()
		_, err := repo.CreateMeeting(ctx, booking.Meeting{
			AdminID: adminID, CompanyID: companyID, ContactID: contactID, Type: typ,
			StartTime: start, EndTime: start.Add(30 * time.Minute),
		}, booking.NewParties{}, calendar.Event{}, start)
		if err != nil {
			t.Fatalf("seed meeting: %v", err)
		}
	}
	add(7, 1, 10, booking.MeetingTypeSales, day.Add(9*time.Hour))
	add(7, 1, 11, booking.MeetingTypeSupport, day.Add(10*time.Hour))
	add(7, 2, 12, booking.MeetingTypeSales, day.Add(26*time.Hour))
	add(8, 3, 13, booking.MeetingTypeSales, day.Add(9*time.Hour))
	return repo, day
}

func TestBookingsSummary_AggregatesOneAdmin(t *testing.T) {
	repo, day := seed(t)
	svc := NewService(repo)

	out, err := svc.BookingsSummary(context.Background(), BookingsSummaryRequest{AdminID: 7, Range: TimeRange{From: day, To: day.Add(48 * time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalMeetings != 3 || out.SalesMeetings != 2 || out.SupportMeetings != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.BookedMinutes != 90 {
		t.Fatalf("expected 90 booked minutes, got %d", out.BookedMinutes)
	}
	if out.DistinctCompanies != 2 || out.DistinctContacts != 3 {
		t.Fatalf("unexpected distinct counts: %+v", out)
	}
	if out.FirstMeeting == nil || !out.FirstMeeting.Equal(day.Add(9*time.Hour)) {
		t.Fatalf("unexpected first meeting: %v", out.FirstMeeting)
	}
	if out.LastMeeting == nil || !out.LastMeeting.Equal(day.Add(26*time.Hour)) {
		t.Fatalf("unexpected last meeting: %v", out.LastMeeting)
	}
}

func TestBookingsSummary_EmptyRange(t *testing.T) {
	repo, day := seed(t)
	out, err := NewService(repo).BookingsSummary(context.Background(), BookingsSummaryRequest{AdminID: 8, Range: TimeRange{From: day.Add(24 * time.Hour), To: day.Add(48 * time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalMeetings != 0 || out.FirstMeeting != nil {
		t.Fatalf("expected empty summary, got %+v", out)
	}
}

func TestBookingsSummary_Validation(t *testing.T) {
	repo, day := seed(t)
	svc := NewService(repo)
	ctx := context.Background()

	cases := []BookingsSummaryRequest{
		{AdminID: 0, Range: TimeRange{From: day, To: day.Add(time.Hour)}},
		{AdminID: 7, Range: TimeRange{From: day, To: day}},
		{AdminID: 7, Range: TimeRange{From: day, To: day.Add(MaxRange + time.Hour)}},
	}
	for _, req := range cases {
		if _, err := svc.BookingsSummary(ctx, req); !errors.Is(err, booking.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}

	_, err := svc.BookingsSummary(ctx, BookingsSummaryRequest{AdminID: 99, Range: TimeRange{From: day, To: day.Add(time.Hour)}})
	if !errors.Is(err, booking.ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
}
