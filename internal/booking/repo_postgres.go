package booking

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"callbooker/internal/calendar"
	"callbooker/internal/mirror"
	"callbooker/pkg/utils"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables, the meeting exclusion constraint and the
// default configs row. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// mirrorClaim is how long a swept outbox row stays invisible to other sweepers.
const mirrorClaim = 5 * time.Minute

// PostgresRepo implements Repository and mirror.Store on database/sql (pgx).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

var (
	_ Repository   = (*PostgresRepo)(nil)
	_ mirror.Store = (*PostgresRepo)(nil)
)

type rowScanner interface {
	Scan(dest ...any) error
}

const adminColumns = `id, email, first_name, last_name, timezone, call_booker_url`

func (r *PostgresRepo) GetAdmin(ctx context.Context, id int64) (Admin, error) {
	q := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	var a Admin
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID,
		&a.Email,
		&a.FirstName,
		&a.LastName,
		&a.Timezone,
		&a.CallBookerURL,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Admin{}, ErrAdminNotFound
		}
		return Admin{}, err
	}
	return a, nil
}

const companyColumns = `id, COALESCE(tc_cligency_id, 0), name, website, country, currency, price_plan, estimated_income, COALESCE(sales_person_id, 0), created_at`

func scanCompany(row rowScanner) (Company, error) {
	var c Company
	err := row.Scan(
		&c.ID,
		&c.ExternalID,
		&c.Name,
		&c.Website,
		&c.Country,
		&c.Currency,
		&c.PricePlan,
		&c.EstimatedIncome,
		&c.SalesPersonID,
		&c.CreatedAt,
	)
	return c, err
}

func (r *PostgresRepo) getCompanyWhere(ctx context.Context, where string, arg any) (Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE `+where+` LIMIT 1`, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Company{}, ErrCompanyNotFound
		}
		return Company{}, err
	}
	return c, nil
}

func (r *PostgresRepo) GetCompany(ctx context.Context, id int64) (Company, error) {
	return r.getCompanyWhere(ctx, `id = $1`, id)
}

func (r *PostgresRepo) GetCompanyByExternalID(ctx context.Context, externalID int64) (Company, error) {
	return r.getCompanyWhere(ctx, `tc_cligency_id = $1`, externalID)
}

func (r *PostgresRepo) FindCompanyByName(ctx context.Context, name string) (Company, bool, error) {
	c, err := r.getCompanyWhere(ctx, `lower(name) = lower($1) ORDER BY id`, name)
	if err != nil {
		if errors.Is(err, ErrCompanyNotFound) {
			return Company{}, false, nil
		}
		return Company{}, false, err
	}
	return c, true, nil
}

func insertCompany(ctx context.Context, tx *sql.Tx, c Company) (Company, error) {
	const q = `
INSERT INTO companies (
  tc_cligency_id, name, website, country, currency, price_plan, estimated_income, sales_person_id
) VALUES (
  NULLIF($1::bigint, 0), $2, $3, $4, $5, $6, $7, NULLIF($8::bigint, 0)
)
RETURNING id, created_at
`
	if err := tx.QueryRowContext(ctx, q,
		c.ExternalID,
		c.Name,
		c.Website,
		c.Country,
		c.Currency,
		c.PricePlan,
		c.EstimatedIncome,
		c.SalesPersonID,
	).Scan(&c.ID, &c.CreatedAt); err != nil {
		return Company{}, fmt.Errorf("insert company: %w", err)
	}
	return c, nil
}

const contactColumns = `id, company_id, first_name, last_name, email, phone, country, created_at`

func scanContact(row rowScanner) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Country,
		&c.CreatedAt,
	)
	return c, err
}

func (r *PostgresRepo) findContact(ctx context.Context, q string, args ...any) (Contact, bool, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, false, nil
		}
		return Contact{}, false, err
	}
	return c, true, nil
}

func (r *PostgresRepo) FindContactByEmail(ctx context.Context, email string) (Contact, bool, error) {
	return r.findContact(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email = $1 ORDER BY id LIMIT 1`, email)
}

func (r *PostgresRepo) FindCompanyContact(ctx context.Context, companyID int64, email, lastName string) (Contact, bool, error) {
	const where = ` FROM contacts
WHERE company_id = $1
  AND (($2 <> '' AND email = $2) OR ($3 <> '' AND lower(last_name) = lower($3)))
ORDER BY id
LIMIT 1`
	return r.findContact(ctx, `SELECT `+contactColumns+where, companyID, email, lastName)
}

func insertContact(ctx context.Context, tx *sql.Tx, c Contact) (Contact, error) {
	const q = `
INSERT INTO contacts (company_id, first_name, last_name, email, phone, country)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at
`
	if err := tx.QueryRowContext(ctx, q,
		c.CompanyID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.Country,
	).Scan(&c.ID, &c.CreatedAt); err != nil {
		return Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

const meetingColumns = `id, admin_id, contact_id, company_id, meeting_type, start_time, end_time, created_at`

func (r *PostgresRepo) listMeetings(ctx context.Context, q string, args ...any) ([]Meeting, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(
			&m.ID,
			&m.AdminID,
			&m.ContactID,
			&m.CompanyID,
			&m.Type,
			&m.StartTime,
			&m.EndTime,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListContactMeetings(ctx context.Context, contactID int64, from, to time.Time) ([]Meeting, error) {
	return r.listMeetings(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE contact_id = $1 AND start_time BETWEEN $2 AND $3 ORDER BY start_time`,
		contactID, from, to)
}

func (r *PostgresRepo) ListAdminMeetings(ctx context.Context, adminID int64, from, to time.Time) ([]Meeting, error) {
	return r.listMeetings(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE admin_id = $1 AND start_time < $3 AND end_time > $2 ORDER BY start_time`,
		adminID, from, to)
}

func (r *PostgresRepo) CreateMeeting(ctx context.Context, m Meeting, parties NewParties, ev calendar.Event, mirrorAfter time.Time) (Meeting, error) {
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if parties.Company != nil {
			co, err := insertCompany(ctx, tx, *parties.Company)
			if err != nil {
				return err
			}
			m.CompanyID = co.ID
		}
		if parties.Contact != nil {
			ct := *parties.Contact
			ct.CompanyID = m.CompanyID
			ct, err := insertContact(ctx, tx, ct)
			if err != nil {
				return err
			}
			m.ContactID = ct.ID
		}

		id, createdAt, err := insertMeeting(ctx, tx, m)
		if err != nil {
			return err
		}
		m.ID, m.CreatedAt = id, createdAt
		ev.MeetingID = id
		return insertMirror(ctx, tx, ev, mirrorAfter)
	})
	if err != nil {
		return Meeting{}, storeError(err)
	}
	return m, nil
}

// storeError maps constraint violations raised by CreateMeeting. The only
// unique key it can hit is companies.tc_cligency_id.
func storeError(err error) error {
	switch {
	case utils.IsPgCode(err, utils.PgExclusionViolation):
		return ErrAdminNotFree
	case utils.IsPgCode(err, utils.PgUniqueViolation):
		return ErrCompanyExists
	default:
		return err
	}
}

func insertMeeting(ctx context.Context, tx *sql.Tx, m Meeting) (int64, time.Time, error) {
	const q = `
INSERT INTO meetings (admin_id, contact_id, company_id, meeting_type, start_time, end_time)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at
`
	var (
		id        int64
		createdAt time.Time
	)
	err := tx.QueryRowContext(ctx, q,
		m.AdminID,
		m.ContactID,
		m.CompanyID,
		string(m.Type),
		m.StartTime,
		m.EndTime,
	).Scan(&id, &createdAt)
	return id, createdAt, err
}

func insertMirror(ctx context.Context, tx *sql.Tx, ev calendar.Event, due time.Time) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO meeting_mirrors (meeting_id, payload, next_attempt_at)
VALUES ($1, $2, $3)
`
	_, err = tx.ExecContext(ctx, q, ev.MeetingID, payload, due)
	return err
}

// PendingMirrors claims up to limit due outbox rows by pushing their
// next_attempt_at forward, skipping rows locked by another sweeper.
func (r *PostgresRepo) PendingMirrors(ctx context.Context, now time.Time, limit int) ([]mirror.Task, error) {
	const q = `
UPDATE meeting_mirrors m
SET next_attempt_at = $2, updated_at = $1
FROM (
  SELECT meeting_id FROM meeting_mirrors
  WHERE status = 'pending' AND next_attempt_at <= $1
  ORDER BY next_attempt_at
  LIMIT $3
  FOR UPDATE SKIP LOCKED
) due
WHERE m.meeting_id = due.meeting_id
RETURNING m.meeting_id, m.payload, m.attempts, m.next_attempt_at
`
	rows, err := r.db.QueryContext(ctx, q, now, now.Add(mirrorClaim), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mirror.Task
	for rows.Next() {
		var (
			t       mirror.Task
			payload []byte
		)
		if err := rows.Scan(&t.MeetingID, &payload, &t.Attempts, &t.NextAttemptAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &t.Event); err != nil {
			return nil, fmt.Errorf("decode mirror payload for meeting %d: %w", t.MeetingID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) MarkMirrored(ctx context.Context, meetingID int64, externalEventID string, at time.Time) error {
	const q = `
UPDATE meeting_mirrors
SET status = 'done', external_event_id = $2, last_error = NULL, updated_at = $3
WHERE meeting_id = $1
`
	_, err := r.db.ExecContext(ctx, q, meetingID, externalEventID, at)
	return err
}

func (r *PostgresRepo) MarkMirrorFailed(ctx context.Context, meetingID int64, attempts int, next time.Time, lastErr string, giveUp bool) error {
	const q = `
UPDATE meeting_mirrors
SET attempts = $2,
    next_attempt_at = $3,
    last_error = $4,
    status = CASE WHEN $5 THEN 'failed' ELSE 'pending' END,
    updated_at = now()
WHERE meeting_id = $1
`
	_, err := r.db.ExecContext(ctx, q, meetingID, attempts, next, lastErr, giveUp)
	return err
}
