package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcarbon/emailpreview/internal/cms"
	"github.com/dcarbon/emailpreview/internal/models"
	"github.com/dcarbon/emailpreview/internal/placeholder"
	"github.com/dcarbon/emailpreview/internal/richtext"
)

type stubFetcher struct {
	tpl   *models.Template
	err   error
	calls int
	gotID models.TemplateIdentifier
	gotSt models.ContentState
}

func (s *stubFetcher) FetchTemplate(_ context.Context, id models.TemplateIdentifier, state models.ContentState) (*models.Template, error) {
	s.calls++
	s.gotID, s.gotSt = id, state
	return s.tpl, s.err
}

func welcomeTemplate() *models.Template {
	return &models.Template{
		TemplateKey: "USER_WELCOME",
		Subject:     "Welcome {{user.firstName}}",
		Preheader:   "For {{facility.name}}",
		BodyHTML:    richtext.Parse([]byte(`[{"type":"paragraph","children":[{"type":"text","text":"Hello {{user.firstName}}"}]}]`)),
	}
}

func TestPreviewService_Render(t *testing.T) {
	store := &stubFetcher{tpl: welcomeTemplate()}
	svc := NewPreviewService(store)

	out, err := svc.Render(context.Background(), models.TemplateIdentifier{TemplateKey: "USER_WELCOME"}, models.StateDraft)
	require.NoError(t, err)

	assert.Equal(t, "Hello John", out.BodyHTML)
	assert.Equal(t, "Welcome John", out.Subject)
	assert.Equal(t, "For Solar Farm Alpha", out.Preheader)
	assert.Equal(t, models.StateDraft, out.State)
	assert.Equal(t, "USER_WELCOME", out.Template.TemplateKey)
	assert.Empty(t, out.Unresolved)
	assert.Equal(t, models.StateDraft, store.gotSt)
	assert.Equal(t, 1, store.calls)
}

func TestPreviewService_WithSample(t *testing.T) {
	sample := placeholder.Sample()
	sample.User.FirstName = "Ada"
	svc := NewPreviewService(&stubFetcher{tpl: welcomeTemplate()}).WithSample(sample)

	out, err := svc.Render(context.Background(), models.TemplateIdentifier{TemplateKey: "USER_WELCOME"}, models.StateDraft)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", out.BodyHTML)
	assert.Equal(t, "Ada", out.SampleData.User.FirstName)
}

func TestPreviewService_Render_EmptyBodySucceeds(t *testing.T) {
	store := &stubFetcher{tpl: &models.Template{TemplateKey: "EMPTY", Subject: "Hi"}}
	out, err := NewPreviewService(store).Render(context.Background(), models.TemplateIdentifier{TemplateKey: "EMPTY"}, models.StatePublished)
	require.NoError(t, err)
	assert.Equal(t, "", out.BodyHTML)
	assert.Equal(t, "", out.Preheader)
}

func TestPreviewService_Render_ReportsUnresolvedTokens(t *testing.T) {
	tpl := welcomeTemplate()
	tpl.Subject = "Order {{order.id}} for {{user.firstName}}"
	out, err := NewPreviewService(&stubFetcher{tpl: tpl}).Render(context.Background(), models.TemplateIdentifier{TemplateKey: "K"}, models.StateDraft)
	require.NoError(t, err)
	assert.Equal(t, "Order {{order.id}} for John", out.Subject)
	assert.Equal(t, []string{"{{order.id}}"}, out.Unresolved)
}

func TestPreviewService_Render_NotFound(t *testing.T) {
	svc := NewPreviewService(&stubFetcher{err: cms.ErrNotFound})
	_, err := svc.Render(context.Background(), models.TemplateIdentifier{TemplateKey: "MISSING"}, models.StateDraft)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, RenderNotFound, renderErr.Kind)
	assert.Equal(t, "MISSING", renderErr.Identifier.TemplateKey)
	assert.ErrorIs(t, err, cms.ErrNotFound)
}

func TestPreviewService_Render_StoreErrorKeepsCause(t *testing.T) {
	cause := &cms.StoreError{Op: "fetch template", StatusCode: 500, Err: errors.New("boom")}
	_, err := NewPreviewService(&stubFetcher{err: cause}).Render(context.Background(), models.TemplateIdentifier{TemplateKey: "K"}, models.StateDraft)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, RenderStoreError, renderErr.Kind)
	var storeErr *cms.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Contains(t, err.Error(), "boom")
}

func TestPreviewService_Render_MissingIdentifier(t *testing.T) {
	store := &stubFetcher{tpl: welcomeTemplate()}
	_, err := NewPreviewService(store).Render(context.Background(), models.TemplateIdentifier{}, models.StateDraft)

	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, RenderBadRequest, renderErr.Kind)
	assert.Zero(t, store.calls)
}

func TestPreviewService_Render_AgainstStoreClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filters[templateKey][$eq]") != "USER_WELCOME" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"templateKey":"USER_WELCOME","subject":"Welcome {{user.firstName}}",
			"bodyHtml":[{"type":"paragraph","children":[{"type":"text","text":"Hello {{user.firstName}}"}]}]}]}`))
	}))
	defer server.Close()

	svc := NewPreviewService(cms.NewClient(server.URL))

	out, err := svc.Render(context.Background(), models.TemplateIdentifier{TemplateKey: "USER_WELCOME"}, models.StateDraft)
	require.NoError(t, err)
	assert.Equal(t, "Hello John", out.BodyHTML)
	assert.Equal(t, "Welcome John", out.Subject)

	_, err = svc.Render(context.Background(), models.TemplateIdentifier{TemplateKey: "NOPE"}, models.StateDraft)
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, RenderNotFound, renderErr.Kind)
}
