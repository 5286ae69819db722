// internal/handlers/affiliate/affiliate_handler.go
package affiliate

import (
	"net/http"

	"referral-service/internal/middleware"
	"referral-service/internal/pkg/response"
	affiliateUsecase "referral-service/internal/service/affiliate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AffiliateHandler struct {
	rosterService *affiliateUsecase.RosterService
	logger        *zap.Logger
}

func NewAffiliateHandler(rosterService *affiliateUsecase.RosterService, logger *zap.Logger) *AffiliateHandler {
	return &AffiliateHandler{
		rosterService: rosterService,
		logger:        logger,
	}
}

// Roster returns the derived affiliate list (admin only)
func (h *AffiliateHandler) Roster(c *gin.Context) {
	roster := h.rosterService.Roster()
	response.Success(c, http.StatusOK, "affiliates retrieved", gin.H{
		"affiliates": roster,
		"count":      len(roster),
	})
}

// Overview returns aggregate funnel figures across all leads (admin only)
func (h *AffiliateHandler) Overview(c *gin.Context) {
	response.Success(c, http.StatusOK, "overview retrieved", h.rosterService.Overview())
}

// MyStats returns the caller's derived figures (requires auth)
func (h *AffiliateHandler) MyStats(c *gin.Context) {
	ident := middleware.MustGetIdentity(c)
	response.Success(c, http.StatusOK, "stats retrieved", h.rosterService.StatsFor(ident.ID))
}

// MyReferralLink returns the caller's referral code and share link
// (requires auth)
func (h *AffiliateHandler) MyReferralLink(c *gin.Context) {
	ident := middleware.MustGetIdentity(c)
	code, link := h.rosterService.ReferralLink(ident.Email)
	response.Success(c, http.StatusOK, "referral link", gin.H{
		"code": code,
		"link": link,
	})
}
