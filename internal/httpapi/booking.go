package httpapi

import (
	"net/http"
	"time"

	"callbooker/internal/booking"

	"github.com/gin-gonic/gin"
)

type contactFields struct {
	FirstName string `json:"first_name" binding:"max=255"`
	LastName  string `json:"last_name" binding:"required,max=255"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Phone     string `json:"phone" binding:"max=50"`
	Country   string `json:"country" binding:"max=100"`
}

func (f contactFields) details() booking.ContactDetails {
	return booking.ContactDetails{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
		Country:   f.Country,
	}
}

type salesBookRequest struct {
	contactFields

	TCCligencyID    int64     `json:"tc_cligency_id" binding:"gte=0"`
	CompanyName     string    `json:"company_name" binding:"required,max=255"`
	Website         string    `json:"website" binding:"max=255"`
	EstimatedIncome string    `json:"estimated_income" binding:"max=255"`
	Currency        string    `json:"currency" binding:"omitempty,len=3"`
	PricePlan       string    `json:"price_plan" binding:"max=255"`
	AdminID         int64     `json:"admin_id" binding:"required,gt=0"`
	MeetingDT       time.Time `json:"meeting_dt" binding:"required"`
}

type supportBookRequest struct {
	contactFields

	TCCligencyID int64     `json:"tc_cligency_id" binding:"required,gt=0"`
	AdminID      int64     `json:"admin_id" binding:"required,gt=0"`
	MeetingDT    time.Time `json:"meeting_dt" binding:"required"`
}

// SalesBook books a sales call, creating the company and contact when needed.
func (h Handlers) SalesBook(c *gin.Context) {
	var req salesBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	m, err := h.Booking.BookSales(c.Request.Context(), booking.SalesRequest{
		ExternalCompanyID: req.TCCligencyID,
		Company: booking.CompanyDetails{
			Name:            req.CompanyName,
			Website:         req.Website,
			Country:         req.Country,
			Currency:        req.Currency,
			PricePlan:       req.PricePlan,
			EstimatedIncome: req.EstimatedIncome,
		},
		Contact:   req.details(),
		AdminID:   req.AdminID,
		StartTime: req.MeetingDT,
	})
	if err != nil {
		writeBookingError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "meeting_id": m.ID})
}

// SupportBook books a support call for an existing company.
func (h Handlers) SupportBook(c *gin.Context) {
	var req supportBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	m, err := h.Booking.BookSupport(c.Request.Context(), booking.SupportRequest{
		ExternalCompanyID: req.TCCligencyID,
		Contact:           req.details(),
		AdminID:           req.AdminID,
		StartTime:         req.MeetingDT,
	})
	if err != nil {
		writeBookingError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "meeting_id": m.ID})
}
