package booking

import (
	"fmt"
	"strings"
	"time"
)

type MeetingType string

const (
	MeetingTypeSales   MeetingType = "SALES"
	MeetingTypeSupport MeetingType = "SUPPORT"
)

func (t MeetingType) Valid() bool {
	return t == MeetingTypeSales || t == MeetingTypeSupport
}

// Admin is a staff member whose calendar is booked. Admins are owned by the
// CRM side and are read-only here.
type Admin struct {
	ID            int64  `json:"id" db:"id"`
	Email         string `json:"email" db:"email"`
	FirstName     string `json:"first_name" db:"first_name"`
	LastName      string `json:"last_name" db:"last_name"`
	Timezone      string `json:"timezone" db:"timezone"`
	CallBookerURL string `json:"call_booker_url" db:"call_booker_url"`
}

// Location resolves the admin's IANA timezone; an empty zone means UTC.
func (a Admin) Location() (*time.Location, error) {
	if strings.TrimSpace(a.Timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("admin %d timezone %q: %w", a.ID, a.Timezone, err)
	}
	return loc, nil
}

func (a Admin) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type Company struct {
	ID int64 `json:"id" db:"id"`
	// ExternalID is the CRM client id (tc_cligency_id); zero when unknown.
	ExternalID      int64     `json:"tc_cligency_id,omitempty" db:"tc_cligency_id"`
	Name            string    `json:"name" db:"name"`
	Website         string    `json:"website,omitempty" db:"website"`
	Country         string    `json:"country,omitempty" db:"country"`
	Currency        string    `json:"currency,omitempty" db:"currency"`
	PricePlan       string    `json:"price_plan,omitempty" db:"price_plan"`
	EstimatedIncome string    `json:"estimated_income,omitempty" db:"estimated_income"`
	SalesPersonID   int64     `json:"sales_person_id,omitempty" db:"sales_person_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type Contact struct {
	ID        int64     `json:"id" db:"id"`
	CompanyID int64     `json:"company_id" db:"company_id"`
	FirstName string    `json:"first_name,omitempty" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Country   string    `json:"country,omitempty" db:"country"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (c Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Meeting is written once by the coordinator and never updated here.
// EndTime is always StartTime plus the configured meeting duration.
type Meeting struct {
	ID        int64       `json:"id" db:"id"`
	AdminID   int64       `json:"admin_id" db:"admin_id"`
	ContactID int64       `json:"contact_id" db:"contact_id"`
	CompanyID int64       `json:"company_id" db:"company_id"`
	Type      MeetingType `json:"meeting_type" db:"meeting_type"`
	StartTime time.Time   `json:"start_time" db:"start_time"`
	EndTime   time.Time   `json:"end_time" db:"end_time"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// ContactDetails are the contact fields supplied by a booking form.
type ContactDetails struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Country   string
}

// CompanyDetails are the company fields supplied by a sales booking form.
type CompanyDetails struct {
	Name            string
	Website         string
	Country         string
	Currency        string
	PricePlan       string
	EstimatedIncome string
}
