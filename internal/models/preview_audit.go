package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gate outcomes recorded in the audit trail.
const (
	OutcomeAuthorized   = "authorized"
	OutcomeUnauthorized = "unauthorized"
	OutcomeBadRequest   = "bad_request"
)

// PreviewAudit records one decision of the preview gate. The secret is never stored.
type PreviewAudit struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UUID        string    `json:"uuid" gorm:"uniqueIndex"`
	Outcome     string    `json:"outcome" gorm:"index"`
	TemplateKey string    `json:"template_key"`
	DocumentID  string    `json:"document_id"`
	Status      string    `json:"status"`
	ClientIP    string    `json:"client_ip"`
	RequestID   string    `json:"request_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *PreviewAudit) BeforeCreate(tx *gorm.DB) (err error) {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return
}
