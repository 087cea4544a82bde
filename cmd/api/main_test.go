package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcarbon/emailpreview/internal/database"
	"github.com/dcarbon/emailpreview/internal/models"
	"github.com/dcarbon/emailpreview/internal/services"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filters[templateKey][$eq]") != "USER_WELCOME" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		assert.Empty(t, r.URL.Query().Get("status"), "published is the store default")
		_, _ = w.Write([]byte(`{"data":[{"templateKey":"USER_WELCOME","subject":"Hi {{user.firstName}}",
			"bodyHtml":[{"type":"paragraph","children":[{"type":"text","text":"<b>{{facility.name}}</b>"}]}]}]}`))
	}))
	defer store.Close()

	t.Setenv("STRAPI_URL", store.URL)
	t.Setenv("PREVIEW_DB_PATH", filepath.Join(t.TempDir(), "preview.db"))

	out, err := runCmd(t, "render", "--key", "USER_WELCOME", "--status", "published")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Hi John", got["subject"])
	assert.Equal(t, "<b>Solar Farm Alpha</b>", got["body_html"])
	assert.Equal(t, "published", got["status"])
	assert.Contains(t, out, "<b>Solar Farm Alpha</b>")

	_, err = runCmd(t, "render", "--key", "MISSING")
	var renderErr *services.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, services.RenderNotFound, renderErr.Kind)

	_, err = runCmd(t, "render")
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, services.RenderBadRequest, renderErr.Kind)
}

func TestAuditCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "preview.db")
	t.Setenv("PREVIEW_DB_PATH", dbPath)

	db, err := database.Connect(dbPath)
	require.NoError(t, err)
	audit := services.NewAuditService(db)
	for _, key := range []string{"A", "B", "C"} {
		require.NoError(t, audit.Record(&models.PreviewAudit{Outcome: models.OutcomeAuthorized, TemplateKey: key}))
	}

	out, err := runCmd(t, "audit", "--limit", "2")
	require.NoError(t, err)

	var got []models.PreviewAudit
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].TemplateKey)
}

func TestServeRequiresSecret(t *testing.T) {
	t.Setenv("PREVIEW_SECRET", "")
	t.Setenv("PREVIEW_DB_PATH", filepath.Join(t.TempDir(), "preview.db"))

	_, err := runCmd(t, "serve")
	assert.Error(t, err)
}
