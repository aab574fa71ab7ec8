package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"callbooker/internal/booking"
	"callbooker/internal/links"
	"callbooker/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// Report fields by their wire name instead of the Go field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

var reasonMessages = map[string]string{
	booking.ReasonAlreadyBooked:       "You already have a meeting booked around this time.",
	booking.ReasonAdminNotFree:        "Admin is not free at this time.",
	booking.ReasonAdminNotFound:       "Admin does not exist.",
	booking.ReasonCompanyNotFound:     "Company does not exist.",
	booking.ReasonCompanyExists:       "Company was just created by another booking, please try again.",
	booking.ReasonCalendarUnavailable: "Calendar is unavailable, please try again later.",
	booking.ReasonInvalidArgument:     "Invalid request.",
}

func abortError(c *gin.Context, status int, code, message string) {
	body := gin.H{"status": "error", "message": message}
	if code != "" {
		body["code"] = code
	}
	c.AbortWithStatusJSON(status, body)
}

// writeBookingError maps booking errors to the response contract. Admin lookups
// on the booking path are 400; elsewhere a missing admin is 404 (adminMissing).
func writeBookingError(c *gin.Context, err error, adminMissing int) {
	reason := booking.Reason(err)
	msg := reasonMessages[reason]

	switch {
	case errors.Is(err, booking.ErrAdminNotFound):
		abortError(c, adminMissing, reason, msg)
	case errors.Is(err, booking.ErrCompanyNotFound):
		abortError(c, http.StatusNotFound, reason, msg)
	case errors.Is(err, booking.ErrConflict):
		abortError(c, http.StatusBadRequest, reason, msg)
	case errors.Is(err, booking.ErrUpstreamUnavailable):
		abortError(c, http.StatusServiceUnavailable, reason, msg)
	case errors.Is(err, booking.ErrInvalidArgument):
		abortError(c, http.StatusUnprocessableEntity, reason, msg)
	case errors.Is(err, booking.ErrValidation):
		abortError(c, http.StatusUnprocessableEntity, booking.ReasonInvalidArgument, err.Error())
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		_ = c.Error(err)
		abortError(c, http.StatusInternalServerError, "", "Internal error.")
	}
}

// writeBindError reports field-level validation failures as 422 and anything
// else (malformed JSON, wrong types) as 400.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"status":  "error",
			"message": "Validation failed.",
			"code":    booking.ReasonInvalidArgument,
			"fields":  fields,
		})
		return
	}
	abortError(c, http.StatusBadRequest, booking.ReasonInvalidArgument, "Malformed request.")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func writeLinkError(c *gin.Context, err error) {
	msg := "Invalid signature"
	if errors.Is(err, links.ErrLinkExpired) {
		msg = "Link has expired"
	}
	abortError(c, http.StatusForbidden, "", msg)
}
