package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dcarbon/emailpreview/internal/draftmode"
	"github.com/dcarbon/emailpreview/internal/web"
)

const testSecret = "abc123"

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tmpl, err := web.Templates()
	require.NoError(t, err)
	r.SetHTMLTemplate(tmpl)
	return r
}

func newTestDraftManager(t *testing.T) *draftmode.Manager {
	t.Helper()
	m, err := draftmode.NewManager(testSecret, false)
	require.NoError(t, err)
	return m
}

// draftCookie returns a valid marker cookie issued by m.
func draftCookie(t *testing.T, m *draftmode.Manager) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, m.Enable(w))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}
