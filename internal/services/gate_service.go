package services

import (
	"crypto/subtle"
	"errors"
	"net/url"

	"github.com/dcarbon/emailpreview/internal/models"
)

var (
	// ErrUnauthorized means the request secret did not match.
	ErrUnauthorized = errors.New("invalid secret")
	// ErrBadRequest means neither templateKey nor documentId was supplied.
	ErrBadRequest = errors.New("missing template identifier")
)

// DefaultViewerPath is where authorized previews are redirected.
const DefaultViewerPath = "/preview"

// PreviewRequest is one inbound gate call.
type PreviewRequest struct {
	Secret      string `form:"secret"`
	TemplateKey string `form:"templateKey"`
	DocumentID  string `form:"documentId"`
	Status      string `form:"status"`
}

// GateDecision is the outcome of a successful authorization.
type GateDecision struct {
	Identifier models.TemplateIdentifier
	// Status is echoed into the redirect; it defaults to "draft".
	Status string
	// DraftMode is true unless Status is "published".
	DraftMode   bool
	RedirectURL string
}

// GateService validates preview requests against the shared secret.
type GateService struct {
	secret     []byte
	viewerPath string
}

// NewGateService returns a gate that accepts secret.
func NewGateService(secret string) *GateService {
	return &GateService{secret: []byte(secret), viewerPath: DefaultViewerPath}
}

// Authorize checks req and computes the redirect into the viewer. It has no
// side effects; the caller applies the draft-mode switch.
func (s *GateService) Authorize(req PreviewRequest) (*GateDecision, error) {
	if len(s.secret) == 0 || subtle.ConstantTimeCompare([]byte(req.Secret), s.secret) != 1 {
		return nil, ErrUnauthorized
	}

	id := models.TemplateIdentifier{TemplateKey: req.TemplateKey, DocumentID: req.DocumentID}
	if id.IsZero() {
		return nil, ErrBadRequest
	}
	// templateKey wins; only one identifier is carried forward.
	if id.TemplateKey != "" {
		id.DocumentID = ""
	}

	status := req.Status
	if status == "" {
		status = string(models.StateDraft)
	}

	params := url.Values{}
	if id.TemplateKey != "" {
		params.Set("templateKey", id.TemplateKey)
	} else {
		params.Set("documentId", id.DocumentID)
	}
	params.Set("status", status)

	return &GateDecision{
		Identifier:  id,
		Status:      status,
		DraftMode:   status != string(models.StatePublished),
		RedirectURL: s.viewerPath + "?" + params.Encode(),
	}, nil
}
