package httpapi

import (
	"context"
	"net/http"
	"time"

	"callbooker/internal/availability"
	"callbooker/internal/booking"
	"callbooker/internal/links"
	"callbooker/internal/reporting"
	"callbooker/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Booking             *booking.Coordinator
	AvailabilityService *availability.Service
	Directory           Directory
	Links               *links.Signer
	LinkTTL             time.Duration
	Reports             *reporting.Service
	// Ping checks backing stores for /healthz; nil means always healthy.
	Ping func(ctx context.Context) error
}

// Directory resolves the admin and company a support link is generated for.
type Directory interface {
	GetAdmin(ctx context.Context, id int64) (booking.Admin, error)
	GetCompany(ctx context.Context, id int64) (booking.Company, error)
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			logger.FromGin(c).Warn("health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
