package booking

import (
	"context"
	"time"

	"callbooker/internal/calendar"
)

// Repository is the persistence contract for booking.
//
// Get* methods return ErrAdminNotFound / ErrCompanyNotFound when the row is
// missing; Find* methods report absence with ok=false.
type Repository interface {
	GetAdmin(ctx context.Context, id int64) (Admin, error)

	GetCompany(ctx context.Context, id int64) (Company, error)
	GetCompanyByExternalID(ctx context.Context, externalID int64) (Company, error)
	// FindCompanyByName matches name case-insensitively.
	FindCompanyByName(ctx context.Context, name string) (Company, bool, error)

	FindContactByEmail(ctx context.Context, email string) (Contact, bool, error)
	// FindCompanyContact matches email exactly or last name case-insensitively
	// within the company.
	FindCompanyContact(ctx context.Context, companyID int64, email, lastName string) (Contact, bool, error)

	// ListContactMeetings returns the contact's meetings starting in [from, to], inclusive.
	ListContactMeetings(ctx context.Context, contactID int64, from, to time.Time) ([]Meeting, error)
	// ListAdminMeetings returns the admin's meetings overlapping [from, to), by start time.
	ListAdminMeetings(ctx context.Context, adminID int64, from, to time.Time) ([]Meeting, error)

	// CreateMeeting writes the meeting, any rows in parties, and the calendar
	// outbox row atomically. An overlap with another meeting of the same admin
	// yields ErrAdminNotFree and a company whose external id was taken since
	// resolution yields ErrCompanyExists; either way nothing is written.
	CreateMeeting(ctx context.Context, m Meeting, parties NewParties, ev calendar.Event, mirrorAfter time.Time) (Meeting, error)
}

// NewParties carries the company and contact that did not exist when the
// booking was resolved. A nil field means m already references the row. A new
// contact is attached to the new company when both are set.
type NewParties struct {
	Company *Company
	Contact *Contact
}
