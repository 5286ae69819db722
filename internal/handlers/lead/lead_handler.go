// internal/handlers/lead/lead_handler.go
package lead

import (
	"net/http"

	leaddomain "referral-service/internal/domain/lead"
	"referral-service/internal/middleware"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/pkg/response"
	leadUsecase "referral-service/internal/service/lead"
	"referral-service/internal/stream"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService *leadUsecase.LeadService
	editor      *leadUsecase.EditSessions
	logger      *zap.Logger
}

func NewLeadHandler(leadService *leadUsecase.LeadService, editor *leadUsecase.EditSessions, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		editor:      editor,
		logger:      logger,
	}
}

// scopeFor restricts non-admin callers to their own leads.
func scopeFor(c *gin.Context) stream.Scope {
	ident := middleware.MustGetIdentity(c)
	if ident.IsAdmin() {
		return stream.ScopeAll()
	}
	return stream.ScopeAffiliate(ident.ID)
}

// List returns the caller's visible leads, newest first (requires auth)
func (h *LeadHandler) List(c *gin.Context) {
	leads := leaddomain.Newest(h.leadService.List(scopeFor(c)))
	response.Success(c, http.StatusOK, "leads retrieved", gin.H{
		"leads": leads,
		"count": len(leads),
	})
}

// Get returns one lead; affiliates can only read their own (requires auth)
func (h *LeadHandler) Get(c *gin.Context) {
	l, err := h.leadService.Get(c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	if !scopeFor(c).Matches(l) {
		response.FromError(c, xerrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, "lead retrieved", l)
}

// Create registers a new lead owned by the caller (requires auth)
func (h *LeadHandler) Create(c *gin.Context) {
	var draft leaddomain.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	ident := middleware.MustGetIdentity(c)
	id, err := h.leadService.Create(c.Request.Context(), ident, draft)
	if err != nil {
		h.logger.Error("lead creation failed",
			zap.String("identity_id", ident.ID),
			zap.Error(err),
		)
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "lead created", gin.H{"id": id})
}

// Confirm advances a pending lead to confirmed (admin only)
func (h *LeadHandler) Confirm(c *gin.Context) {
	if err := h.leadService.Confirm(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "lead confirmed", nil)
}

// MarkPaid advances a confirmed lead to paid (admin only)
func (h *LeadHandler) MarkPaid(c *gin.Context) {
	if err := h.leadService.MarkPaid(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "lead marked paid", nil)
}

// amountsRequest carries raw edit-session field values. Values stay
// strings until commit so partial input never fails early.
type amountsRequest struct {
	EstimatedAmount string `json:"estimated_amount"`
	Commission      string `json:"commission"`
}

// OpenAmounts opens an edit session over a lead's monetary fields,
// prefilled with current values (admin only)
func (h *LeadHandler) OpenAmounts(c *gin.Context) {
	l, err := h.leadService.Get(c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	ident := middleware.MustGetIdentity(c)
	h.editor.Open(ident.ID, l.ID, l.EstimatedAmount, l.Commission)

	response.Success(c, http.StatusOK, "edit session opened", gin.H{
		"lead_id":          l.ID,
		"estimated_amount": l.EstimatedAmount,
		"commission":       l.Commission,
	})
}

// SetAmounts stages field values on the open edit session (admin only)
func (h *LeadHandler) SetAmounts(c *gin.Context) {
	var req amountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	ident := middleware.MustGetIdentity(c)
	if err := h.editor.SetFields(ident.ID, req.EstimatedAmount, req.Commission); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "fields staged", nil)
}

// CommitAmounts validates the staged values and writes both fields in a
// single update (admin only)
func (h *LeadHandler) CommitAmounts(c *gin.Context) {
	ident := middleware.MustGetIdentity(c)
	if err := h.editor.Commit(c.Request.Context(), ident.ID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "amounts updated", nil)
}

// DiscardAmounts abandons the open edit session (admin only)
func (h *LeadHandler) DiscardAmounts(c *gin.Context) {
	ident := middleware.MustGetIdentity(c)
	h.editor.Discard(ident.ID)
	response.Success(c, http.StatusOK, "edit session discarded", nil)
}

// ProjectTypes lists the selectable project categories (public)
func (h *LeadHandler) ProjectTypes(c *gin.Context) {
	response.Success(c, http.StatusOK, "project types", gin.H{
		"project_types": leaddomain.ProjectTypes,
	})
}
