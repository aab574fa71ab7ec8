package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"callbooker/internal/calendar"
	"callbooker/internal/settings"
)

func salesReq(f *fixture) SalesRequest {
	return SalesRequest{
		Company:   CompanyDetails{Name: "Newco", Country: "GB"},
		Contact:   ContactDetails{FirstName: "Cat", LastName: "Jones", Email: "cat@newco.test"},
		AdminID:   7,
		StartTime: f.slot,
	}
}

func TestBookSales_CreatesCompanyOwnedByAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.coord.BookSales(ctx, salesReq(f))
	if err != nil {
		t.Fatalf("book sales: %v", err)
	}
	if m.Type != MeetingTypeSales {
		t.Fatalf("expected SALES meeting, got %s", m.Type)
	}

	co, ok, err := f.repo.FindCompanyByName(ctx, "NEWCO")
	if err != nil || !ok {
		t.Fatalf("expected company created, got %v %v", ok, err)
	}
	if co.SalesPersonID != 7 || co.ID != m.CompanyID {
		t.Fatalf("unexpected company: %+v", co)
	}
	ct, ok, _ := f.repo.FindContactByEmail(ctx, "cat@newco.test")
	if !ok || ct.CompanyID != co.ID || ct.ID != m.ContactID {
		t.Fatalf("expected contact created under company, got %+v", ct)
	}
}

func TestBookSales_ResolvesExistingCompany(t *testing.T) {
	t.Run("external id", func(t *testing.T) {
		f := newFixture(t)
		req := salesReq(f)
		req.ExternalCompanyID = 500

		m, err := f.coord.BookSales(context.Background(), req)
		if err != nil {
			t.Fatalf("book: %v", err)
		}
		if m.CompanyID != f.company.ID {
			t.Fatalf("expected existing company %d, got %d", f.company.ID, m.CompanyID)
		}
	})

	t.Run("existing contact email", func(t *testing.T) {
		f := newFixture(t)
		req := salesReq(f)
		req.Contact.Email = "bob@acme.test"

		m, err := f.coord.BookSales(context.Background(), req)
		if err != nil {
			t.Fatalf("book: %v", err)
		}
		if m.CompanyID != f.company.ID || m.ContactID != f.contact.ID {
			t.Fatalf("expected existing contact and its company, got %+v", m)
		}
	})

	t.Run("case-insensitive name", func(t *testing.T) {
		f := newFixture(t)
		req := salesReq(f)
		req.Company.Name = "aCmE"
		req.Contact = ContactDetails{LastName: "STONE", Email: "different@acme.test"}

		m, err := f.coord.BookSales(context.Background(), req)
		if err != nil {
			t.Fatalf("book: %v", err)
		}
		if m.CompanyID != f.company.ID {
			t.Fatalf("expected company matched by name")
		}
		if m.ContactID != f.contact.ID {
			t.Fatalf("expected contact matched by last name")
		}
	})

	t.Run("unknown external id falls through", func(t *testing.T) {
		f := newFixture(t)
		req := salesReq(f)
		req.ExternalCompanyID = 12345

		m, err := f.coord.BookSales(context.Background(), req)
		if err != nil {
			t.Fatalf("book: %v", err)
		}
		co, err := f.repo.GetCompanyByExternalID(context.Background(), 12345)
		if err != nil || co.ID != m.CompanyID {
			t.Fatalf("expected new company to carry the external id, got %+v %v", co, err)
		}
	})
}

func TestBookSales_UnknownAdminCannotOwnNewCompany(t *testing.T) {
	f := newFixture(t)
	req := salesReq(f)
	req.AdminID = 99

	if _, err := f.coord.BookSales(context.Background(), req); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
	if _, ok, _ := f.repo.FindCompanyByName(context.Background(), "Newco"); ok {
		t.Fatalf("expected no company created")
	}
}

func TestBookSupport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.coord.BookSupport(ctx, SupportRequest{
		ExternalCompanyID: 500,
		Contact:           ContactDetails{FirstName: "Dee", LastName: "New", Email: "dee@acme.test"},
		AdminID:           7,
		StartTime:         f.slot,
	})
	if err != nil {
		t.Fatalf("book support: %v", err)
	}
	if m.Type != MeetingTypeSupport || m.CompanyID != f.company.ID {
		t.Fatalf("unexpected meeting: %+v", m)
	}
	if m.ContactID == f.contact.ID {
		t.Fatalf("expected new contact created")
	}

	_, err = f.coord.BookSupport(ctx, SupportRequest{
		ExternalCompanyID: 404,
		Contact:           ContactDetails{LastName: "X", Email: "x@y.test"},
		AdminID:           7,
		StartTime:         f.slot,
	})
	if !errors.Is(err, ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestBookSales_RejectionLeavesNoRows(t *testing.T) {
	cases := []struct {
		name    string
		arrange func(f *fixture, req *SalesRequest)
		want    error
	}{
		{
			name: "admin not free",
			arrange: func(f *fixture, req *SalesRequest) {
				f.gw.Block("ann@example.com", f.slot, f.slot.Add(time.Hour))
			},
			want: ErrAdminNotFree,
		},
		{
			name: "admin not found",
			arrange: func(f *fixture, req *SalesRequest) {
				req.AdminID = 999
			},
			want: ErrAdminNotFound,
		},
		{
			name: "calendar unavailable",
			arrange: func(f *fixture, req *SalesRequest) {
				f.gw.Delay = time.Second
			},
			want: ErrCalendarUnavailable,
		},
		{
			name: "missing start time",
			arrange: func(f *fixture, req *SalesRequest) {
				req.StartTime = time.Time{}
			},
			want: ErrInvalidArgument,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			req := salesReq(f)
			req.Company.Name = "Brand New Ltd"
			req.ExternalCompanyID = 777
			tc.arrange(f, &req)

			if _, err := f.coord.BookSales(ctx, req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if _, ok, _ := f.repo.FindCompanyByName(ctx, "Brand New Ltd"); ok {
				t.Fatalf("expected no company row")
			}
			if _, err := f.repo.GetCompanyByExternalID(ctx, 777); !errors.Is(err, ErrCompanyNotFound) {
				t.Fatalf("expected no company for external id, got %v", err)
			}
			if _, ok, _ := f.repo.FindContactByEmail(ctx, "cat@newco.test"); ok {
				t.Fatalf("expected no contact row")
			}
			if len(f.repo.Meetings()) != 0 {
				t.Fatalf("expected no meeting row")
			}
		})
	}
}

func TestBookSupport_UnknownAdminLeavesNoContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.BookSupport(ctx, SupportRequest{
		ExternalCompanyID: 500,
		Contact:           ContactDetails{FirstName: "Dee", LastName: "New", Email: "dee@acme.test"},
		AdminID:           999,
		StartTime:         f.slot,
	})
	if !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
	if _, ok, _ := f.repo.FindCompanyContact(ctx, f.company.ID, "dee@acme.test", "New"); ok {
		t.Fatalf("expected no contact row")
	}
}

// racingRepo creates the external company on the first lookup, as a
// concurrent booking committing between resolution and commit would.
type racingRepo struct {
	*MemoryRepo
	raced  bool
	winner Company
}

func (r *racingRepo) GetCompanyByExternalID(ctx context.Context, externalID int64) (Company, error) {
	if r.raced {
		return r.MemoryRepo.GetCompanyByExternalID(ctx, externalID)
	}
	r.raced = true
	co, err := r.MemoryRepo.CreateCompany(ctx, Company{Name: "Winner Ltd", ExternalID: externalID})
	if err != nil {
		return Company{}, err
	}
	r.winner = co
	return Company{}, ErrCompanyNotFound
}

func TestBookSales_ResolvesAgainAfterConcurrentCompanyCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := &racingRepo{MemoryRepo: f.repo}
	coord := NewCoordinator(Deps{
		Repo:           repo,
		Settings:       staticSettings(settings.Defaults()),
		Calendar:       f.gw,
		Audit:          f.audit,
		GatewayTimeout: 50 * time.Millisecond,
	})

	req := salesReq(f)
	req.ExternalCompanyID = 600

	m, err := coord.BookSales(ctx, req)
	if err != nil {
		t.Fatalf("expected booking against the concurrently created company, got %v", err)
	}
	if m.CompanyID != repo.winner.ID {
		t.Fatalf("expected company %d, got %d", repo.winner.ID, m.CompanyID)
	}
	if _, ok, _ := f.repo.FindCompanyByName(ctx, "Newco"); ok {
		t.Fatalf("expected the losing company insert to be discarded")
	}
	ct, ok, _ := f.repo.FindContactByEmail(ctx, "cat@newco.test")
	if !ok || ct.CompanyID != repo.winner.ID || ct.ID != m.ContactID {
		t.Fatalf("expected one contact under the winning company, got %+v", ct)
	}
	if len(f.audit.rejected) != 0 {
		t.Fatalf("a retried booking is not a rejection, got %v", f.audit.rejected)
	}
}

func TestMemoryRepo_CreateMeetingTakenExternalID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.CreateMeeting(ctx,
		Meeting{AdminID: 7, Type: MeetingTypeSales, StartTime: f.slot, EndTime: f.slot.Add(30 * time.Minute)},
		NewParties{
			Company: &Company{Name: "Acme Again", ExternalID: 500},
			Contact: &Contact{LastName: "Dup", Email: "dup@acme.test"},
		},
		calendar.Event{}, f.slot)
	if !errors.Is(err, ErrCompanyExists) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrCompanyExists, got %v", err)
	}
	if _, ok, _ := f.repo.FindContactByEmail(ctx, "dup@acme.test"); ok {
		t.Fatalf("expected no contact row")
	}
	if len(f.repo.Meetings()) != 0 {
		t.Fatalf("expected no meeting row")
	}
}
