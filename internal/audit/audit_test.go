package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/secureauth/sentinel/model"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// newTestDB opens a throwaway SQLite database migrated with the audit
// schema. A single connection keeps writes serialized under the test's
// concurrent callers.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "audit_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *AuditService {
	t.Helper()
	eventRepo := NewEventRepository(db)
	alertRepo := NewAlertRepository(db)
	return NewAuditService(eventRepo, alertRepo, DefaultRules(eventRepo, time.UTC))
}
