package booking

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of these so callers
// can branch on either.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

var (
	ErrInvalidArgument     = fmt.Errorf("%w: invalid argument", ErrValidation)
	ErrAlreadyBooked       = fmt.Errorf("%w: contact already has a meeting around this time", ErrConflict)
	ErrAdminNotFree        = fmt.Errorf("%w: admin is not free at this time", ErrConflict)
	ErrAdminNotFound       = fmt.Errorf("%w: admin does not exist", ErrNotFound)
	ErrCompanyNotFound     = fmt.Errorf("%w: company does not exist", ErrNotFound)
	ErrCalendarUnavailable = fmt.Errorf("%w: calendar unavailable", ErrUpstreamUnavailable)
	ErrCompanyExists       = fmt.Errorf("%w: company was created concurrently", ErrConflict)
)

// Stable reason codes returned to clients and written to the audit log.
const (
	ReasonAlreadyBooked       = "ALREADY_BOOKED"
	ReasonAdminNotFree        = "ADMIN_NOT_FREE"
	ReasonAdminNotFound       = "ADMIN_NOT_FOUND"
	ReasonCompanyNotFound     = "COMPANY_NOT_FOUND"
	ReasonCompanyExists       = "COMPANY_EXISTS"
	ReasonCalendarUnavailable = "CALENDAR_UNAVAILABLE"
	ReasonInvalidArgument     = "INVALID_ARGUMENT"
)

// Reason maps err to its code, or "" if err is not a booking error.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyBooked):
		return ReasonAlreadyBooked
	case errors.Is(err, ErrAdminNotFree):
		return ReasonAdminNotFree
	case errors.Is(err, ErrAdminNotFound):
		return ReasonAdminNotFound
	case errors.Is(err, ErrCompanyNotFound):
		return ReasonCompanyNotFound
	case errors.Is(err, ErrCompanyExists):
		return ReasonCompanyExists
	case errors.Is(err, ErrCalendarUnavailable):
		return ReasonCalendarUnavailable
	case errors.Is(err, ErrInvalidArgument):
		return ReasonInvalidArgument
	default:
		return ""
	}
}
