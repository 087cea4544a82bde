package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dcarbon/emailpreview/internal/api/middleware"
	"github.com/dcarbon/emailpreview/internal/draftmode"
	"github.com/dcarbon/emailpreview/internal/metrics"
	"github.com/dcarbon/emailpreview/internal/models"
	"github.com/dcarbon/emailpreview/internal/services"
	"github.com/dcarbon/emailpreview/internal/util"
)

// AuditRecorder stores gate decisions.
type AuditRecorder interface {
	Record(entry *models.PreviewAudit) error
}

// GateHandler is the entry point the CMS "Open preview" button links to.
type GateHandler struct {
	gate  *services.GateService
	draft *draftmode.Manager
	audit AuditRecorder
}

func NewGateHandler(gate *services.GateService, draft *draftmode.Manager, audit AuditRecorder) *GateHandler {
	return &GateHandler{gate: gate, draft: draft, audit: audit}
}

// Enter validates the secret, switches the browser's draft-mode marker and
// redirects into the viewer.
func (h *GateHandler) Enter(c *gin.Context) {
	var req services.PreviewRequest
	// All fields are optional strings; binding only fails on malformed queries.
	if err := c.ShouldBindQuery(&req); err != nil {
		h.reject(c, req, models.OutcomeBadRequest, http.StatusBadRequest, "Missing template identifier")
		return
	}

	decision, err := h.gate.Authorize(req)
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		h.reject(c, req, models.OutcomeUnauthorized, http.StatusUnauthorized, "Invalid secret")
		return
	case errors.Is(err, services.ErrBadRequest):
		h.reject(c, req, models.OutcomeBadRequest, http.StatusBadRequest, "Missing template identifier")
		return
	case err != nil:
		middleware.GetRequestLogger(c).WithError(err).Error("preview gate failed")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	if decision.DraftMode {
		if err := h.draft.Enable(c.Writer); err != nil {
			middleware.GetRequestLogger(c).WithError(err).Error("failed to enable draft mode")
			c.String(http.StatusInternalServerError, "Failed to enable draft mode")
			return
		}
	} else {
		h.draft.Disable(c.Writer)
	}

	h.record(c, req, models.OutcomeAuthorized, decision.Status)
	c.Redirect(http.StatusTemporaryRedirect, decision.RedirectURL)
}

func (h *GateHandler) reject(c *gin.Context, req services.PreviewRequest, outcome string, code int, msg string) {
	h.record(c, req, outcome, req.Status)
	c.String(code, msg)
}

// record appends to the audit trail and counts the outcome. Audit failures
// never change the response.
func (h *GateHandler) record(c *gin.Context, req services.PreviewRequest, outcome, status string) {
	metrics.IncGate(outcome)

	entry := &models.PreviewAudit{
		Outcome:     outcome,
		TemplateKey: util.Truncate(req.TemplateKey, util.MaxLogValueLen),
		DocumentID:  util.Truncate(req.DocumentID, util.MaxLogValueLen),
		Status:      util.Truncate(status, 32),
		ClientIP:    c.ClientIP(),
		RequestID:   middleware.GetRequestID(c),
	}

	log := middleware.GetRequestLogger(c).WithFields(logrus.Fields{
		"outcome":      outcome,
		"template_key": util.SanitizeForLog(req.TemplateKey),
		"document_id":  util.SanitizeForLog(req.DocumentID),
	})
	if outcome == models.OutcomeAuthorized {
		log.Info("preview gate opened")
	} else {
		log.Warn("preview gate refused")
	}

	if h.audit == nil {
		return
	}
	if err := h.audit.Record(entry); err != nil {
		log.WithError(err).Error("failed to record preview audit")
	}
}
