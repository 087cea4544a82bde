package handlers

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dcarbon/emailpreview/internal/models"
)

// OpenTestDB creates a SQLite in-memory DB unique per test with the audit
// table migrated. The busy timeout keeps parallel tests from tripping on locks.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsnName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", dsnName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.PreviewAudit{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}
