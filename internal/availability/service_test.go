package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"callbooker/internal/booking"
	"callbooker/internal/calendar"
	"callbooker/internal/settings"
)

type staticSettings settings.Settings

func (s staticSettings) Snapshot() settings.Settings { return settings.Settings(s) }

func TestService_AdminSlotsExcludesBookedMeetings(t *testing.T) {
	repo := booking.NewMemoryRepo()
	repo.PutAdmin(booking.Admin{ID: 7, Email: "ann@example.com", Timezone: "UTC"})

	co, _ := repo.CreateCompany(context.Background(), booking.Company{Name: "Acme"})
	ct, _ := repo.CreateContact(context.Background(), booking.Contact{CompanyID: co.ID, Email: "bob@acme.test", LastName: "Bob"})

	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	start := day.Add(9*time.Hour + 45*time.Minute)
	if _, err := repo.CreateMeeting(context.Background(), booking.Meeting{
		AdminID: 7, ContactID: ct.ID, CompanyID: co.ID, Type: booking.MeetingTypeSales,
		StartTime: start, EndTime: start.Add(30 * time.Minute),
	}, booking.NewParties{}, calendar.Event{}, day); err != nil {
		t.Fatalf("seed meeting: %v", err)
	}

	svc := NewService(repo, staticSettings(settings.Defaults()))
	svc.clock = func() time.Time { return day }

	slots, err := svc.AdminSlots(context.Background(), 7, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Start.Equal(start) {
			t.Fatalf("booked slot returned")
		}
	}
}

func TestService_AdminSlotsErrors(t *testing.T) {
	repo := booking.NewMemoryRepo()
	svc := NewService(repo, staticSettings(settings.Defaults()))
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	if _, err := svc.AdminSlots(context.Background(), 99, day, day.Add(time.Hour)); !errors.Is(err, booking.ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
	if _, err := svc.AdminSlots(context.Background(), 99, day, day); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for empty range, got %v", err)
	}
	if _, err := svc.AdminSlots(context.Background(), 99, day, day.Add(63*24*time.Hour)); !errors.Is(err, booking.ErrValidation) {
		t.Fatalf("expected validation error for long range, got %v", err)
	}
}
