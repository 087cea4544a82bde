package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dcarbon/emailpreview/internal/models"
)

// AuditService appends and lists gate decisions.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService returns an AuditService using the provided DB.
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record stores one gate decision.
func (s *AuditService) Record(entry *models.PreviewAudit) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("record preview audit: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *AuditService) Recent(limit int) ([]models.PreviewAudit, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []models.PreviewAudit
	if err := s.db.Order("created_at desc, id desc").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list preview audits: %w", err)
	}
	return list, nil
}
