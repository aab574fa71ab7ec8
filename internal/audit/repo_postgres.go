package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo writes to audit_events. The table has no UPDATE or DELETE path
// in this codebase.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, type, admin_id, company_id, contact_id, meeting_id, reason, ip_address, message, metadata, created_at
) VALUES (
  $1,$2,NULLIF($3::bigint,0),NULLIF($4::bigint,0),NULLIF($5::bigint,0),NULLIF($6::bigint,0),$7,$8,$9,NULLIF($10::text,'')::jsonb,$11
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		e.AdminID,
		e.CompanyID,
		e.ContactID,
		e.MeetingID,
		e.Reason,
		e.IPAddress,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}
