package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"callbooker/internal/calendar"
	"callbooker/internal/mirror"
	"callbooker/internal/settings"
	"callbooker/pkg/logger"
)

// DuplicateWindow is how close to an existing meeting of the same contact a
// new booking may start. It is fixed, not derived from the meeting duration.
const DuplicateWindow = 2 * time.Hour

// mirrorGrace delays the first sweep of a fresh outbox row so the inline
// attempt made right after commit is not raced by the sweeper.
const mirrorGrace = time.Minute

type SettingsProvider interface {
	Snapshot() settings.Settings
}

type Mirror interface {
	Dispatch(ctx context.Context, t mirror.Task)
}

type Auditor interface {
	LogBookingCommitted(ctx context.Context, adminID, companyID, contactID, meetingID int64) error
	LogBookingRejected(ctx context.Context, adminID, companyID, contactID int64, reason string) error
}

// Deps wires a Coordinator. Mirror, Locker and Audit are optional.
type Deps struct {
	Repo           Repository
	Settings       SettingsProvider
	Calendar       calendar.FreeBusy
	Mirror         Mirror
	Locker         Locker
	Audit          Auditor
	GatewayTimeout time.Duration
}

// Coordinator runs the booking path: duplicate guard, admin lookup, external
// free/busy, atomic commit, then calendar mirror. No process-local lock is
// held across any of these calls.
type Coordinator struct {
	repo           Repository
	settings       SettingsProvider
	calendar       calendar.FreeBusy
	mirror         Mirror
	locker         Locker
	audit          Auditor
	gatewayTimeout time.Duration
	clock          func() time.Time
}

func NewCoordinator(d Deps) *Coordinator {
	timeout := d.GatewayTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Coordinator{
		repo:           d.Repo,
		settings:       d.Settings,
		calendar:       d.Calendar,
		mirror:         d.Mirror,
		locker:         d.Locker,
		audit:          d.Audit,
		gatewayTimeout: timeout,
		clock:          time.Now,
	}
}

// BookRequest names the parties of a booking. A Company or Contact with a
// zero ID is created in the same commit as the meeting, so a rejected booking
// leaves no rows behind.
type BookRequest struct {
	Company   Company
	Contact   Contact
	AdminID   int64
	Type      MeetingType
	StartTime time.Time
}

// Book commits a meeting or returns one of ErrAlreadyBooked, ErrAdminNotFound,
// ErrAdminNotFree, ErrCalendarUnavailable or ErrInvalidArgument. Once the
// meeting is committed it stays committed regardless of what follows.
func (c *Coordinator) Book(ctx context.Context, req BookRequest) (Meeting, error) {
	m, err := c.book(ctx, req)
	if err != nil {
		c.rejected(ctx, req, err)
		return Meeting{}, err
	}
	return m, nil
}

func (c *Coordinator) book(ctx context.Context, req BookRequest) (Meeting, error) {
	if req.StartTime.IsZero() || !req.Type.Valid() || !validParties(req.Company, req.Contact) {
		return Meeting{}, ErrInvalidArgument
	}

	// A contact that does not exist yet has no meetings to collide with.
	if req.Contact.ID != 0 {
		existing, err := c.repo.ListContactMeetings(ctx, req.Contact.ID,
			req.StartTime.Add(-DuplicateWindow), req.StartTime.Add(DuplicateWindow))
		if err != nil {
			return Meeting{}, fmt.Errorf("list contact meetings: %w", err)
		}
		if len(existing) > 0 {
			return Meeting{}, ErrAlreadyBooked
		}
	}

	admin, err := c.repo.GetAdmin(ctx, req.AdminID)
	if err != nil {
		return Meeting{}, err
	}

	snap := c.settings.Snapshot()
	start := req.StartTime
	end := start.Add(snap.Duration())

	if err := c.checkCalendar(ctx, admin, start, end); err != nil {
		return Meeting{}, err
	}

	m := Meeting{
		AdminID:   admin.ID,
		ContactID: req.Contact.ID,
		CompanyID: req.Company.ID,
		Type:      req.Type,
		StartTime: start,
		EndTime:   end,
	}
	ev := buildEvent(admin, req.Company, req.Contact, m)

	var parties NewParties
	if req.Company.ID == 0 {
		co := req.Company
		parties.Company = &co
	}
	if req.Contact.ID == 0 {
		ct := req.Contact
		parties.Contact = &ct
	}

	committed, err := c.commit(ctx, m, parties, ev)
	if err != nil {
		return Meeting{}, err
	}

	// The meeting exists now; nothing below may fail the request.
	after := context.WithoutCancel(ctx)
	logger.From(ctx).Info("meeting booked",
		"meeting_id", committed.ID,
		"admin_id", committed.AdminID,
		"contact_id", committed.ContactID,
		"start_time", committed.StartTime,
	)
	if c.audit != nil {
		if err := c.audit.LogBookingCommitted(after, committed.AdminID, committed.CompanyID, committed.ContactID, committed.ID); err != nil {
			logger.From(ctx).Warn("audit append failed", "meeting_id", committed.ID, "err", err)
		}
	}
	if c.mirror != nil {
		ev.MeetingID = committed.ID
		c.mirror.Dispatch(after, mirror.Task{MeetingID: committed.ID, Event: ev})
	}
	return committed, nil
}

func (c *Coordinator) checkCalendar(ctx context.Context, admin Admin, start, end time.Time) error {
	callCtx, cancel := context.WithTimeout(ctx, c.gatewayTimeout)
	defer cancel()

	free, err := c.calendar.IsFree(callCtx, admin.Email, start, end)
	if err != nil {
		logger.From(ctx).Warn("calendar free/busy failed", "admin_id", admin.ID, "err", err)
		return fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	if !free {
		return ErrAdminNotFree
	}
	return nil
}

func (c *Coordinator) commit(ctx context.Context, m Meeting, parties NewParties, ev calendar.Event) (Meeting, error) {
	if c.locker != nil {
		release, err := c.locker.Acquire(ctx, m.AdminID)
		switch {
		case err == nil:
			defer release()
		case ctx.Err() != nil:
			return Meeting{}, ctx.Err()
		default:
			logger.From(ctx).Warn("admin lease unavailable; relying on store constraint", "admin_id", m.AdminID, "err", err)
		}
	}
	return c.repo.CreateMeeting(ctx, m, parties, ev, c.clock().Add(mirrorGrace))
}

// validParties reports whether each party is either stored or carries enough
// to be created. A stored contact always belongs to a stored company.
func validParties(co Company, ct Contact) bool {
	if co.ID == 0 && strings.TrimSpace(co.Name) == "" {
		return false
	}
	if ct.ID == 0 && strings.TrimSpace(ct.Email) == "" && strings.TrimSpace(ct.LastName) == "" {
		return false
	}
	return ct.ID == 0 || co.ID != 0
}

func (c *Coordinator) rejected(ctx context.Context, req BookRequest, err error) {
	reason := Reason(err)
	if reason == "" {
		logger.From(ctx).Error("booking failed", "admin_id", req.AdminID, "contact_id", req.Contact.ID, "err", err)
		return
	}
	logger.From(ctx).Info("booking rejected", "admin_id", req.AdminID, "contact_id", req.Contact.ID, "reason", reason)
	if c.audit != nil && !errors.Is(err, ErrValidation) {
		if aErr := c.audit.LogBookingRejected(context.WithoutCancel(ctx), req.AdminID, req.Company.ID, req.Contact.ID, reason); aErr != nil {
			logger.From(ctx).Warn("audit append failed", "err", aErr)
		}
	}
}

func buildEvent(admin Admin, company Company, contact Contact, m Meeting) calendar.Event {
	kind := "Sales"
	if m.Type == MeetingTypeSupport {
		kind = "Support"
	}
	who := contact.Name()
	if who == "" {
		who = contact.Email
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "%s call with %s", kind, who)
	if company.Name != "" {
		fmt.Fprintf(&desc, " (%s)", company.Name)
	}
	if contact.Phone != "" {
		fmt.Fprintf(&desc, "\nPhone: %s", contact.Phone)
	}

	attendees := []calendar.Attendee{{Email: admin.Email, Name: admin.Name()}}
	if contact.Email != "" {
		attendees = append(attendees, calendar.Attendee{Email: contact.Email, Name: contact.Name()})
	}
	return calendar.Event{
		MeetingID:   m.ID,
		AdminEmail:  admin.Email,
		Summary:     fmt.Sprintf("%s call: %s", kind, firstNonEmpty(company.Name, who)),
		Description: desc.String(),
		Start:       m.StartTime,
		End:         m.EndTime,
		Attendees:   attendees,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
