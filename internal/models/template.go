package models

import (
	"github.com/dcarbon/emailpreview/internal/richtext"
)

// ContentState selects the draft or published view of a CMS record.
type ContentState string

const (
	StateDraft     ContentState = "draft"
	StatePublished ContentState = "published"
)

// ParseContentState maps a query value to a state. Only "published" selects
// published content; anything else, including "", is draft.
func ParseContentState(s string) ContentState {
	if s == string(StatePublished) {
		return StatePublished
	}
	return StateDraft
}

// TemplateIdentifier addresses a template by key or by CMS document id.
// TemplateKey wins when both are set.
type TemplateIdentifier struct {
	TemplateKey string `json:"templateKey,omitempty"`
	DocumentID  string `json:"documentId,omitempty"`
}

// IsZero reports whether neither identifier is set.
func (id TemplateIdentifier) IsZero() bool {
	return id.TemplateKey == "" && id.DocumentID == ""
}

// String returns the identifier used for display and logging.
func (id TemplateIdentifier) String() string {
	if id.TemplateKey != "" {
		return id.TemplateKey
	}
	return id.DocumentID
}

// Template is an email template record as served by the CMS. It is read-only here.
type Template struct {
	ID          int               `json:"id"`
	DocumentID  string            `json:"documentId"`
	TemplateKey string            `json:"templateKey"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Subject     string            `json:"subject"`
	Preheader   string            `json:"preheader,omitempty"`
	FromName    string            `json:"fromName,omitempty"`
	FromEmail   string            `json:"fromEmail,omitempty"`
	ReplyTo     string            `json:"replyTo,omitempty"`
	BodyHTML    richtext.Document `json:"bodyHtml"`
	BodyText    string            `json:"bodyText,omitempty"`
	Enabled     bool              `json:"enabled"`
	CreatedAt   string            `json:"createdAt,omitempty"`
	UpdatedAt   string            `json:"updatedAt,omitempty"`
	PublishedAt string            `json:"publishedAt,omitempty"`
}
