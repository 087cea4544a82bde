package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dcarbon/emailpreview/internal/cms"
	"github.com/dcarbon/emailpreview/internal/logger"
	"github.com/dcarbon/emailpreview/internal/metrics"
	"github.com/dcarbon/emailpreview/internal/models"
	"github.com/dcarbon/emailpreview/internal/placeholder"
	"github.com/dcarbon/emailpreview/internal/richtext"
	"github.com/dcarbon/emailpreview/internal/util"
)

// TemplateFetcher is the store lookup the pipeline depends on.
type TemplateFetcher interface {
	FetchTemplate(ctx context.Context, id models.TemplateIdentifier, state models.ContentState) (*models.Template, error)
}

// RenderErrorKind classifies pipeline failures.
type RenderErrorKind string

const (
	RenderBadRequest RenderErrorKind = "bad_request"
	RenderNotFound   RenderErrorKind = "not_found"
	RenderStoreError RenderErrorKind = "store_error"
)

// RenderError is the only error type Render returns. Err keeps the underlying cause.
type RenderError struct {
	Kind       RenderErrorKind
	Identifier models.TemplateIdentifier
	Err        error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %q (%s): %v", e.Identifier.String(), e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// RenderedPreview is the output shown to the editor.
type RenderedPreview struct {
	Subject    string              `json:"subject"`
	Preheader  string              `json:"preheader"`
	BodyHTML   string              `json:"body_html"`
	Template   *models.Template    `json:"template"`
	State      models.ContentState `json:"status"`
	SampleData placeholder.Context `json:"sample_data"`
	// Unresolved lists tokens left verbatim because no sample value exists for them.
	Unresolved []string `json:"unresolved,omitempty"`
}

// PreviewService renders stored templates against the sample recipient.
type PreviewService struct {
	store  TemplateFetcher
	sample placeholder.Context
}

// NewPreviewService creates a pipeline backed by store.
func NewPreviewService(store TemplateFetcher) *PreviewService {
	return &PreviewService{store: store, sample: placeholder.Sample()}
}

// WithSample replaces the sample recipient placeholders resolve against.
func (s *PreviewService) WithSample(sample placeholder.Context) *PreviewService {
	s.sample = sample
	return s
}

// SampleData returns the context placeholders resolve against.
func (s *PreviewService) SampleData() placeholder.Context {
	return s.sample
}

// Render fetches the template addressed by id in the given state and
// substitutes placeholders in its subject, preheader and body. Any error
// returned is a *RenderError. An empty body is not an error.
func (s *PreviewService) Render(ctx context.Context, id models.TemplateIdentifier, state models.ContentState) (*RenderedPreview, error) {
	if id.IsZero() {
		metrics.IncRender(string(RenderBadRequest))
		return nil, &RenderError{Kind: RenderBadRequest, Identifier: id, Err: cms.ErrMissingIdentifier}
	}

	tpl, err := s.store.FetchTemplate(ctx, id, state)
	if err != nil {
		kind := RenderStoreError
		if errors.Is(err, cms.ErrNotFound) {
			kind = RenderNotFound
		}
		metrics.IncRender(string(kind))
		return nil, &RenderError{Kind: kind, Identifier: id, Err: err}
	}

	body := richtext.Extract(tpl.BodyHTML)
	out := &RenderedPreview{
		Subject:    placeholder.Substitute(tpl.Subject, s.sample),
		Preheader:  placeholder.Substitute(tpl.Preheader, s.sample),
		BodyHTML:   placeholder.Substitute(body, s.sample),
		Template:   tpl,
		State:      state,
		SampleData: s.sample,
	}
	out.Unresolved = collectUnresolved(out.Subject, out.Preheader, out.BodyHTML)

	if len(out.Unresolved) > 0 {
		logger.WithFields(logrus.Fields{
			"template_key": util.SanitizeForLog(id.String()),
			"tokens":       out.Unresolved,
		}).Warn("template references unknown placeholders")
	}
	metrics.IncRender("ok")
	return out, nil
}

func collectUnresolved(parts ...string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, p := range parts {
		for _, tok := range placeholder.Unresolved(p) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}
