package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dcarbon/emailpreview/internal/api/middleware"
	"github.com/dcarbon/emailpreview/internal/draftmode"
	"github.com/dcarbon/emailpreview/internal/models"
	"github.com/dcarbon/emailpreview/internal/services"
	"github.com/dcarbon/emailpreview/internal/util"
)

// PreviewHandler serves the rendered preview as a page and as JSON.
type PreviewHandler struct {
	service *services.PreviewService
	draft   *draftmode.Manager
}

func NewPreviewHandler(service *services.PreviewService, draft *draftmode.Manager) *PreviewHandler {
	return &PreviewHandler{service: service, draft: draft}
}

type previewQuery struct {
	TemplateKey string `form:"templateKey"`
	DocumentID  string `form:"documentId"`
	Status      string `form:"status"`
}

func bindPreviewQuery(c *gin.Context) (models.TemplateIdentifier, models.ContentState) {
	var q previewQuery
	_ = c.ShouldBindQuery(&q)
	id := models.TemplateIdentifier{TemplateKey: q.TemplateKey, DocumentID: q.DocumentID}
	return id, models.ParseContentState(q.Status)
}

// renderFailure maps a pipeline error to a status code and editor-facing
// text. Store failures look like a missing template to the editor; detail
// keeps the underlying message for diagnostics.
type renderFailure struct {
	code    int
	kind    services.RenderErrorKind
	title   string
	message string
	detail  string
}

func classifyRenderError(err error) renderFailure {
	var renderErr *services.RenderError
	if !errors.As(err, &renderErr) {
		return renderFailure{http.StatusInternalServerError, "internal", "Preview Failed", err.Error(), ""}
	}
	notFound := "Could not find template with key: " + renderErr.Identifier.String()
	switch renderErr.Kind {
	case services.RenderBadRequest:
		return renderFailure{http.StatusBadRequest, renderErr.Kind, "Template Not Found", "No template key provided.", ""}
	case services.RenderNotFound:
		return renderFailure{http.StatusNotFound, renderErr.Kind, "Template Not Found", notFound, ""}
	default:
		return renderFailure{http.StatusBadGateway, renderErr.Kind, "Template Not Found", notFound, renderErr.Err.Error()}
	}
}

// Page renders the viewer at GET /preview.
func (h *PreviewHandler) Page(c *gin.Context) {
	id, state := bindPreviewQuery(c)
	reloadURL := c.Request.URL.RequestURI()

	out, err := h.service.Render(c.Request.Context(), id, state)
	if err != nil {
		f := classifyRenderError(err)
		if f.code >= http.StatusInternalServerError {
			middleware.GetRequestLogger(c).WithError(err).WithField("template_key", util.SanitizeForLog(id.String())).Error("preview render failed")
		}
		c.HTML(f.code, "error.html", gin.H{
			"Title":     f.title,
			"Message":   f.message,
			"Detail":    f.detail,
			"CanReload": f.kind != services.RenderBadRequest,
			"ReloadURL": reloadURL,
		})
		return
	}

	sample, err := json.MarshalIndent(out.SampleData, "", "  ")
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to encode sample data")
	}

	c.HTML(http.StatusOK, "preview.html", gin.H{
		"Title":      out.Template.Name,
		"Status":     string(out.State),
		"DraftMode":  h.draft.IsEnabled(c.Request),
		"Preview":    out,
		"SampleJSON": string(sample),
		"ReloadURL":  reloadURL,
	})
}

type previewResponse struct {
	*services.RenderedPreview
	DraftMode bool `json:"draft_mode"`
}

// JSON renders the same pipeline at GET /api/v1/preview.
func (h *PreviewHandler) JSON(c *gin.Context) {
	id, state := bindPreviewQuery(c)

	out, err := h.service.Render(c.Request.Context(), id, state)
	if err != nil {
		f := classifyRenderError(err)
		if f.code >= http.StatusInternalServerError {
			middleware.GetRequestLogger(c).WithError(err).Error("preview render failed")
		}
		msg := f.message
		if f.detail != "" {
			msg = f.detail
		}
		c.JSON(f.code, gin.H{"error": msg, "kind": f.kind})
		return
	}

	c.JSON(http.StatusOK, previewResponse{RenderedPreview: out, DraftMode: h.draft.IsEnabled(c.Request)})
}
