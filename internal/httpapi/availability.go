package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type availabilityRequest struct {
	AdminID int64     `json:"admin_id" binding:"required,gt=0"`
	StartDT time.Time `json:"start_dt" binding:"required"`
	EndDT   time.Time `json:"end_dt" binding:"required"`
}

// Availability lists free slots as [start, end] pairs in the caller's offset.
func (h Handlers) Availability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	slots, err := h.AvailabilityService.AdminSlots(c.Request.Context(), req.AdminID, req.StartDT, req.EndDT)
	if err != nil {
		writeBookingError(c, err, http.StatusNotFound)
		return
	}

	out := make([][2]time.Time, 0, len(slots))
	for _, s := range slots {
		out = append(out, [2]time.Time{s.Start, s.End})
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "slots": out})
}
