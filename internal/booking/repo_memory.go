package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"callbooker/internal/calendar"
	"callbooker/internal/mirror"
)

// MemoryRepo is an in-memory Repository and mirror.Store for tests and local
// runs. CreateMeeting enforces the same per-admin no-overlap rule as the
// Postgres exclusion constraint.
type MemoryRepo struct {
	mu        sync.Mutex
	admins    map[int64]Admin
	companies []Company
	contacts  []Contact
	meetings  []Meeting
	mirrors   map[int64]*memoryMirror
	seq       int64
	clock     func() time.Time
}

type memoryMirror struct {
	task       mirror.Task
	status     string
	externalID string
	lastErr    string
}

var (
	_ Repository   = (*MemoryRepo)(nil)
	_ mirror.Store = (*MemoryRepo)(nil)
)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		admins:  make(map[int64]Admin),
		mirrors: make(map[int64]*memoryMirror),
		clock:   time.Now,
	}
}

func (r *MemoryRepo) nextID() int64 {
	r.seq++
	return r.seq
}

// PutAdmin inserts or replaces an admin.
func (r *MemoryRepo) PutAdmin(a Admin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins[a.ID] = a
}

func (r *MemoryRepo) GetAdmin(ctx context.Context, id int64) (Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return Admin{}, ErrAdminNotFound
	}
	return a, nil
}

func (r *MemoryRepo) findCompany(match func(Company) bool) (Company, bool) {
	for _, c := range r.companies {
		if match(c) {
			return c, true
		}
	}
	return Company{}, false
}

func (r *MemoryRepo) GetCompany(ctx context.Context, id int64) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.findCompany(func(c Company) bool { return c.ID == id })
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetCompanyByExternalID(ctx context.Context, externalID int64) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.findCompany(func(c Company) bool { return externalID != 0 && c.ExternalID == externalID })
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return c, nil
}

func (r *MemoryRepo) FindCompanyByName(ctx context.Context, name string) (Company, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.findCompany(func(c Company) bool { return strings.EqualFold(c.Name, name) })
	return c, ok, nil
}

// CreateCompany stores a company on its own. Bookings create companies through
// CreateMeeting; this is for seeding.
func (r *MemoryRepo) CreateCompany(ctx context.Context, c Company) (Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.externalIDTaken(c.ExternalID) {
		return Company{}, ErrCompanyExists
	}
	return r.insertCompany(c), nil
}

func (r *MemoryRepo) externalIDTaken(externalID int64) bool {
	if externalID == 0 {
		return false
	}
	_, dup := r.findCompany(func(o Company) bool { return o.ExternalID == externalID })
	return dup
}

func (r *MemoryRepo) insertCompany(c Company) Company {
	c.ID = r.nextID()
	c.CreatedAt = r.clock()
	r.companies = append(r.companies, c)
	return c
}

func (r *MemoryRepo) findContact(match func(Contact) bool) (Contact, bool) {
	for _, c := range r.contacts {
		if match(c) {
			return c, true
		}
	}
	return Contact{}, false
}

func (r *MemoryRepo) FindContactByEmail(ctx context.Context, email string) (Contact, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.findContact(func(c Contact) bool { return email != "" && c.Email == email })
	return c, ok, nil
}

func (r *MemoryRepo) FindCompanyContact(ctx context.Context, companyID int64, email, lastName string) (Contact, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.findContact(func(c Contact) bool {
		if c.CompanyID != companyID {
			return false
		}
		return (email != "" && c.Email == email) || (lastName != "" && strings.EqualFold(c.LastName, lastName))
	})
	return c, ok, nil
}

// CreateContact stores a contact on its own, for seeding.
func (r *MemoryRepo) CreateContact(ctx context.Context, c Contact) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.findCompany(func(o Company) bool { return o.ID == c.CompanyID }); !ok {
		return Contact{}, ErrCompanyNotFound
	}
	return r.insertContact(c), nil
}

func (r *MemoryRepo) insertContact(c Contact) Contact {
	c.ID = r.nextID()
	c.CreatedAt = r.clock()
	r.contacts = append(r.contacts, c)
	return c
}

func (r *MemoryRepo) ListContactMeetings(ctx context.Context, contactID int64, from, to time.Time) ([]Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Meeting
	for _, m := range r.meetings {
		if m.ContactID == contactID && !m.StartTime.Before(from) && !m.StartTime.After(to) {
			out = append(out, m)
		}
	}
	sortMeetings(out)
	return out, nil
}

func (r *MemoryRepo) ListAdminMeetings(ctx context.Context, adminID int64, from, to time.Time) ([]Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Meeting
	for _, m := range r.meetings {
		if m.AdminID == adminID && m.StartTime.Before(to) && from.Before(m.EndTime) {
			out = append(out, m)
		}
	}
	sortMeetings(out)
	return out, nil
}

func (r *MemoryRepo) CreateMeeting(ctx context.Context, m Meeting, parties NewParties, ev calendar.Event, mirrorAfter time.Time) (Meeting, error) {
	if err := ctx.Err(); err != nil {
		return Meeting{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Every check runs before the first write.
	if _, ok := r.admins[m.AdminID]; !ok {
		return Meeting{}, ErrAdminNotFound
	}
	for _, o := range r.meetings {
		if o.AdminID == m.AdminID && m.StartTime.Before(o.EndTime) && o.StartTime.Before(m.EndTime) {
			return Meeting{}, ErrAdminNotFree
		}
	}
	if parties.Company != nil && r.externalIDTaken(parties.Company.ExternalID) {
		return Meeting{}, ErrCompanyExists
	}

	if parties.Company != nil {
		m.CompanyID = r.insertCompany(*parties.Company).ID
	}
	if parties.Contact != nil {
		ct := *parties.Contact
		ct.CompanyID = m.CompanyID
		m.ContactID = r.insertContact(ct).ID
	}

	m.ID = r.nextID()
	m.CreatedAt = r.clock()
	r.meetings = append(r.meetings, m)

	ev.MeetingID = m.ID
	r.mirrors[m.ID] = &memoryMirror{
		task:   mirror.Task{MeetingID: m.ID, Event: ev, NextAttemptAt: mirrorAfter},
		status: "pending",
	}
	return m, nil
}

// Meetings returns every stored meeting ordered by start time.
func (r *MemoryRepo) Meetings() []Meeting {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Meeting, len(r.meetings))
	copy(out, r.meetings)
	sortMeetings(out)
	return out
}

// MirrorStatus reports the outbox state for a meeting ("" if none).
func (r *MemoryRepo) MirrorStatus(meetingID int64) (status, externalID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mm, ok := r.mirrors[meetingID]
	if !ok {
		return "", ""
	}
	return mm.status, mm.externalID
}

func (r *MemoryRepo) PendingMirrors(ctx context.Context, now time.Time, limit int) ([]mirror.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []mirror.Task
	for _, mm := range r.mirrors {
		if mm.status == "pending" && !mm.task.NextAttemptAt.After(now) {
			out = append(out, mm.task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextAttemptAt.Before(out[j].NextAttemptAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) MarkMirrored(ctx context.Context, meetingID int64, externalEventID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mm, ok := r.mirrors[meetingID]; ok {
		mm.status = "done"
		mm.externalID = externalEventID
		mm.lastErr = ""
	}
	return nil
}

func (r *MemoryRepo) MarkMirrorFailed(ctx context.Context, meetingID int64, attempts int, next time.Time, lastErr string, giveUp bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mm, ok := r.mirrors[meetingID]; ok {
		mm.task.Attempts = attempts
		mm.task.NextAttemptAt = next
		mm.lastErr = lastErr
		if giveUp {
			mm.status = "failed"
		}
	}
	return nil
}

func sortMeetings(ms []Meeting) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].StartTime.Before(ms[j].StartTime) })
}
