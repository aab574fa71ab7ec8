package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"callbooker/internal/auth"
	"callbooker/internal/booking"
	"callbooker/internal/links"
	"callbooker/pkg/logger"

	"github.com/gin-gonic/gin"
)

type generateLinkQuery struct {
	AdminID   int64 `form:"admin_id" binding:"required,gt=0"`
	CompanyID int64 `form:"company_id" binding:"required,gt=0"`
}

// GenerateSupportLink issues a signed link to the admin's booking page for a company.
func (h Handlers) GenerateSupportLink(c *gin.Context) {
	var q generateLinkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}
	ctx := c.Request.Context()

	admin, err := h.Directory.GetAdmin(ctx, q.AdminID)
	if err != nil {
		writeBookingError(c, err, http.StatusNotFound)
		return
	}
	company, err := h.Directory.GetCompany(ctx, q.CompanyID)
	if err != nil {
		writeBookingError(c, err, http.StatusNotFound)
		return
	}
	if strings.TrimSpace(admin.CallBookerURL) == "" {
		abortError(c, http.StatusUnprocessableEntity, booking.ReasonInvalidArgument, "Admin has no booking page configured.")
		return
	}

	link, err := h.Links.GenerateLink(admin.CallBookerURL, admin.ID, company.ID, h.LinkTTL)
	if err != nil {
		writeBookingError(c, err, http.StatusNotFound)
		return
	}
	issuer, _ := auth.Subject(ctx)
	logger.FromGin(c).Info("support link generated", "admin_id", admin.ID, "company_id", company.ID, "expiry", link.Expiry, "issued_by", issuer)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "link": link.URL})
}

type validateLinkQuery struct {
	AdminID   int64  `form:"admin_id" binding:"required"`
	CompanyID int64  `form:"company_id" binding:"required"`
	Expiry    int64  `form:"expiry" binding:"required"`
	Signature string `form:"s" binding:"required"`
}

// ValidateSupportLink checks a link's signature and expiry. Every failure is a
// 403; malformed parameters are reported exactly like a bad signature.
func (h Handlers) ValidateSupportLink(c *gin.Context) {
	var q validateLinkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.linkRejected(c, q, "MALFORMED")
		writeLinkError(c, links.ErrInvalidSignature)
		return
	}

	if err := h.Links.Verify(q.AdminID, q.CompanyID, q.Expiry, q.Signature); err != nil {
		reason := "INVALID_SIGNATURE"
		if errors.Is(err, links.ErrLinkExpired) {
			reason = "EXPIRED"
		}
		h.linkRejected(c, q, reason)
		writeLinkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// linkRejected only logs. The endpoint is public, so nothing a caller sends
// to it may write rows.
func (h Handlers) linkRejected(c *gin.Context, q validateLinkQuery, reason string) {
	logger.FromGin(c).Warn("support link rejected",
		"admin_id", q.AdminID,
		"company_id", q.CompanyID,
		"reason", reason,
		"client_ip", c.ClientIP(),
	)
}
