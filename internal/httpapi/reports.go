package httpapi

import (
	"net/http"
	"time"

	"callbooker/internal/reporting"

	"github.com/gin-gonic/gin"
)

type bookingsReportQuery struct {
	AdminID int64     `form:"admin_id" binding:"required,gt=0"`
	From    time.Time `form:"from" binding:"required"`
	To      time.Time `form:"to" binding:"required"`
}

// BookingsReport summarises an admin's booked meetings in [from, to).
func (h Handlers) BookingsReport(c *gin.Context) {
	var q bookingsReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	out, err := h.Reports.BookingsSummary(c.Request.Context(), reporting.BookingsSummaryRequest{
		AdminID: q.AdminID,
		Range:   reporting.TimeRange{From: q.From, To: q.To},
	})
	if err != nil {
		writeBookingError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "summary": out})
}
