package main

import (
	"callbooker/internal/httpapi"
	"callbooker/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", h.Health)

	// Booking page endpoints are called by the public booking form.
	r.POST("/availability", h.Availability)
	r.POST("/sales/book", h.SalesBook)
	r.POST("/support/book", h.SupportBook)
	r.GET("/support-link/validate", h.ValidateSupportLink)

	// Link issuance is for the CRM integration only.
	links := r.Group("/support-link")
	links.Use(authMW)
	links.Use(rbac.RequireAnyRole(rbac.RoleIntegration))
	{
		links.GET("/generate", h.GenerateSupportLink)
	}

	// Read-only booking reports for the CRM and ops dashboards.
	reports := r.Group("/reports")
	reports.Use(authMW)
	reports.Use(rbac.RequireAnyRole(rbac.RoleReadOnly, rbac.RoleIntegration))
	{
		reports.GET("/bookings", h.BookingsReport)
	}
}
