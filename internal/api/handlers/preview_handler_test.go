package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcarbon/emailpreview/internal/cms"
	"github.com/dcarbon/emailpreview/internal/draftmode"
	"github.com/dcarbon/emailpreview/internal/services"
)

// newFakeStore answers template queries like the CMS: USER_WELCOME exists,
// NULL_RECORD answers a null record, BROKEN fails with 500, everything else
// is an empty result.
func newFakeStore(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("filters[templateKey][$eq]") {
		case "USER_WELCOME":
			_, _ = w.Write([]byte(`{"data":[{"documentId":"doc-1","templateKey":"USER_WELCOME","name":"Welcome",
				"subject":"Welcome {{user.firstName}}","preheader":"Hi from {{facility.name}}",
				"bodyHtml":[{"type":"paragraph","children":[{"type":"text","text":"<p>Hello {{user.firstName}}</p>"}]}]}]}`))
		case "EMPTY":
			_, _ = w.Write([]byte(`{"data":[{"templateKey":"EMPTY","name":"Empty","subject":"Nothing"}]}`))
		case "NULL_RECORD":
			_, _ = w.Write([]byte(`{"data":[null]}`))
		case "BROKEN":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`upstream exploded`))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupPreviewRouter(t *testing.T) (*gin.Engine, *draftmode.Manager) {
	t.Helper()
	store := newFakeStore(t)
	draft := newTestDraftManager(t)
	h := NewPreviewHandler(services.NewPreviewService(cms.NewClient(store.URL)), draft)

	r := newTestEngine(t)
	r.GET("/preview", h.Page)
	r.GET("/api/v1/preview", h.JSON)
	return r, draft
}

func get(r *gin.Engine, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPreviewPage_Success(t *testing.T) {
	r, draft := setupPreviewRouter(t)

	w := get(r, "/preview?templateKey=USER_WELCOME&status=draft", draftCookie(t, draft))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Welcome John")
	assert.Contains(t, body, "Hi from Solar Farm Alpha")
	assert.Contains(t, body, "Draft Mode")
	assert.Contains(t, body, "USER_WELCOME")
	// body HTML is escaped into the srcdoc attribute, never inlined
	assert.Contains(t, body, `srcdoc="&lt;p&gt;Hello John&lt;/p&gt;"`)
	assert.Contains(t, body, `sandbox="allow-same-origin allow-popups"`)
	assert.Contains(t, body, "john.doe@example.com")
}

func TestPreviewPage_NoDraftBadgeWithoutCookie(t *testing.T) {
	r, _ := setupPreviewRouter(t)

	w := get(r, "/preview?templateKey=USER_WELCOME&status=published")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Draft Mode")
	assert.Contains(t, w.Body.String(), "badge-published")
}

func TestPreviewPage_EmptyBody(t *testing.T) {
	r, _ := setupPreviewRouter(t)

	w := get(r, "/preview?templateKey=EMPTY")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No HTML content in template")
	assert.NotContains(t, w.Body.String(), "<iframe")
}

func TestPreviewPage_NotFound(t *testing.T) {
	r, _ := setupPreviewRouter(t)

	w := get(r, "/preview?templateKey=MISSING")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Template Not Found")
	assert.Contains(t, body, "Could not find template with key: MISSING")
	assert.Contains(t, body, "Reload Preview")
}

func TestPreviewPage_NullRecordIsNotFound(t *testing.T) {
	r, _ := setupPreviewRouter(t)

	w := get(r, "/preview?templateKey=NULL_RECORD")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Could not find template with key: NULL_RECORD")
	assert.NotContains(t, w.Body.String(), "<iframe")
}

func TestPreviewPage_MissingIdentifier(t *testing.T) {
	r, _ := setupPreviewRouter(t)

	w := get(r, "/preview")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No template key provided.")
	assert.NotContains(t, w.Body.String(), "Reload Preview")
}

func TestPreviewPage_StoreError(t *testing.T) {
	r, _ := setupPreviewRouter(t)

	w := get(r, "/preview?templateKey=BROKEN")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Template Not Found")
	assert.Contains(t, w.Body.String(), "upstream exploded")
	assert.Contains(t, w.Body.String(), "Reload Preview")
}

func TestPreviewJSON_Success(t *testing.T) {
	r, draft := setupPreviewRouter(t)

	w := get(r, "/api/v1/preview?templateKey=USER_WELCOME", draftCookie(t, draft))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Welcome John", resp["subject"])
	assert.Equal(t, "<p>Hello John</p>", resp["body_html"])
	assert.Equal(t, "draft", resp["status"])
	assert.Equal(t, true, resp["draft_mode"])

	tpl, ok := resp["template"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "USER_WELCOME", tpl["templateKey"])
}

func TestPreviewJSON_Errors(t *testing.T) {
	r, _ := setupPreviewRouter(t)

	tests := []struct {
		target string
		code   int
		kind   string
	}{
		{"/api/v1/preview", http.StatusBadRequest, "bad_request"},
		{"/api/v1/preview?templateKey=MISSING", http.StatusNotFound, "not_found"},
		{"/api/v1/preview?templateKey=BROKEN", http.StatusBadGateway, "store_error"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			w := get(r, tt.target)
			assert.Equal(t, tt.code, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp["kind"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}
