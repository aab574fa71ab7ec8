package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"callbooker/pkg/logger"
)

// SalesRequest is a booking from a prospective customer. The company may not
// exist yet.
type SalesRequest struct {
	// ExternalCompanyID is the CRM client id if the caller knows it; zero otherwise.
	ExternalCompanyID int64
	Company           CompanyDetails
	Contact           ContactDetails
	AdminID           int64
	StartTime         time.Time
}

// SupportRequest is a booking for a company that must already exist.
type SupportRequest struct {
	ExternalCompanyID int64
	Contact           ContactDetails
	AdminID           int64
	StartTime         time.Time
}

// BookSales resolves the company and contact, then books. Parties that do
// not exist yet are created with the meeting, never before it.
//
// Company resolution order: the supplied external id, the company of an
// existing contact with the same email, a case-insensitive name match, and
// finally a new company owned by the requested admin as sales person. When a
// concurrent booking creates the same external company first, resolution runs
// once more and picks up that row.
func (c *Coordinator) BookSales(ctx context.Context, req SalesRequest) (Meeting, error) {
	var (
		br  BookRequest
		m   Meeting
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		br, err = c.resolveSales(ctx, req)
		if err != nil {
			return Meeting{}, err
		}
		m, err = c.book(ctx, br)
		if !errors.Is(err, ErrCompanyExists) {
			break
		}
		logger.From(ctx).Info("company created concurrently; resolving again", "external_id", req.ExternalCompanyID)
	}
	if err != nil {
		c.rejected(ctx, br, err)
		return Meeting{}, err
	}
	return m, nil
}

// BookSupport books for an existing company; an unknown external id is
// ErrCompanyNotFound.
func (c *Coordinator) BookSupport(ctx context.Context, req SupportRequest) (Meeting, error) {
	if req.ExternalCompanyID == 0 {
		return Meeting{}, ErrInvalidArgument
	}
	company, err := c.repo.GetCompanyByExternalID(ctx, req.ExternalCompanyID)
	if err != nil {
		return Meeting{}, err
	}
	contact, err := c.resolveContact(ctx, company, req.Contact)
	if err != nil {
		return Meeting{}, err
	}
	return c.Book(ctx, BookRequest{
		Company:   company,
		Contact:   contact,
		AdminID:   req.AdminID,
		Type:      MeetingTypeSupport,
		StartTime: req.StartTime,
	})
}

func (c *Coordinator) resolveSales(ctx context.Context, req SalesRequest) (BookRequest, error) {
	if strings.TrimSpace(req.Contact.Email) == "" && strings.TrimSpace(req.Contact.LastName) == "" {
		return BookRequest{}, ErrInvalidArgument
	}
	br := BookRequest{AdminID: req.AdminID, Type: MeetingTypeSales, StartTime: req.StartTime}

	if req.ExternalCompanyID != 0 {
		co, err := c.repo.GetCompanyByExternalID(ctx, req.ExternalCompanyID)
		switch {
		case err == nil:
			return c.withContact(ctx, br, co, req.Contact)
		case !errors.Is(err, ErrCompanyNotFound):
			return BookRequest{}, fmt.Errorf("company by external id: %w", err)
		}
	}

	if req.Contact.Email != "" {
		existing, ok, err := c.repo.FindContactByEmail(ctx, req.Contact.Email)
		if err != nil {
			return BookRequest{}, fmt.Errorf("contact by email: %w", err)
		}
		if ok {
			co, err := c.repo.GetCompany(ctx, existing.CompanyID)
			if err != nil {
				return BookRequest{}, err
			}
			br.Company, br.Contact = co, existing
			return br, nil
		}
	}

	co, ok, err := c.repo.FindCompanyByName(ctx, req.Company.Name)
	if err != nil {
		return BookRequest{}, fmt.Errorf("company by name: %w", err)
	}
	if ok {
		return c.withContact(ctx, br, co, req.Contact)
	}

	if strings.TrimSpace(req.Company.Name) == "" {
		return BookRequest{}, ErrInvalidArgument
	}
	// Book rejects an unknown admin before the company is written.
	br.Company = Company{
		ExternalID:      req.ExternalCompanyID,
		Name:            strings.TrimSpace(req.Company.Name),
		Website:         req.Company.Website,
		Country:         req.Company.Country,
		Currency:        req.Company.Currency,
		PricePlan:       req.Company.PricePlan,
		EstimatedIncome: req.Company.EstimatedIncome,
		SalesPersonID:   req.AdminID,
	}
	br.Contact = newContact(req.Contact)
	return br, nil
}

func (c *Coordinator) withContact(ctx context.Context, br BookRequest, company Company, d ContactDetails) (BookRequest, error) {
	contact, err := c.resolveContact(ctx, company, d)
	if err != nil {
		return BookRequest{}, err
	}
	br.Company, br.Contact = company, contact
	return br, nil
}

// resolveContact finds the company's contact by email or case-insensitive
// last name. A miss yields an unsaved contact for Book to create.
func (c *Coordinator) resolveContact(ctx context.Context, company Company, d ContactDetails) (Contact, error) {
	existing, ok, err := c.repo.FindCompanyContact(ctx, company.ID, d.Email, d.LastName)
	if err != nil {
		return Contact{}, fmt.Errorf("company contact: %w", err)
	}
	if ok {
		return existing, nil
	}
	ct := newContact(d)
	ct.CompanyID = company.ID
	return ct, nil
}

func newContact(d ContactDetails) Contact {
	return Contact{
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.Phone,
		Country:   d.Country,
	}
}
