package report

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/secureauth/sentinel/internal/audit"
	"github.com/secureauth/sentinel/model"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "report_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, audit.EventRepository, audit.AlertRepository) {
	t.Helper()
	eventRepo := audit.NewEventRepository(db)
	alertRepo := audit.NewAlertRepository(db)
	return NewService(eventRepo, alertRepo), eventRepo, alertRepo
}

func TestSummaryEmptyStore(t *testing.T) {
	db := newTestDB(t)
	svc, _, _ := newTestService(t, db)

	summary, err := svc.Summary(context.Background(), 24)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalAttempts != 0 || summary.Successful != 0 || summary.Failed != 0 || summary.Blocked != 0 {
		t.Fatalf("empty store should yield zero counts: %+v", summary)
	}
	if len(summary.TopFailedSubjects) != 0 {
		t.Fatalf("empty store should yield empty failure ranking, got %v", summary.TopFailedSubjects)
	}
	if len(summary.ActiveAlerts) != 0 {
		t.Fatalf("empty store should yield no active alerts, got %v", summary.ActiveAlerts)
	}
	if summary.TimeWindowHours != 24 {
		t.Fatalf("window echo = %d, want 24", summary.TimeWindowHours)
	}
}

func TestSummaryCounts(t *testing.T) {
	db := newTestDB(t)
	svc, eventRepo, alertRepo := newTestService(t, db)
	now := time.Now()

	events := []struct {
		subject string
		status  string
	}{
		{"alice", model.StatusFailure},
		{"alice", model.StatusFailure},
		{"alice", model.StatusFailure},
		{"bob", model.StatusFailure},
		{"bob", model.StatusSuccess},
		{"carol", model.StatusBlocked},
	}
	for i, e := range events {
		err := eventRepo.Record(context.Background(), &model.AuditEvent{
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
			Subject:   e.subject,
			EventType: model.EventTypeLogin,
			Status:    e.status,
			Origin:    "127.0.0.1",
			RiskLevel: model.RiskLevelLow,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	_, err := alertRepo.InsertIfAbsent(context.Background(), &model.IntrusionAlert{
		Timestamp: now,
		Subject:   "alice",
		AlertType: model.AlertTypeBruteForce,
		Severity:  model.SeverityHigh,
	}, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("InsertIfAbsent failed: %v", err)
	}

	summary, err := svc.Summary(context.Background(), 24)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalAttempts != 6 {
		t.Errorf("total attempts = %d, want 6", summary.TotalAttempts)
	}
	if summary.Failed != 4 || summary.Successful != 1 || summary.Blocked != 1 {
		t.Errorf("unexpected status counts: %+v", summary)
	}
	if len(summary.TopFailedSubjects) != 2 || summary.TopFailedSubjects[0].Subject != "alice" {
		t.Errorf("unexpected failure ranking: %v", summary.TopFailedSubjects)
	}
	if summary.ActiveAlerts[model.SeverityHigh] != 1 {
		t.Errorf("unexpected alert counts: %v", summary.ActiveAlerts)
	}
}

func TestUserActivityNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc, eventRepo, _ := newTestService(t, db)
	now := time.Now()

	for i := 0; i < 5; i++ {
		err := eventRepo.Record(context.Background(), &model.AuditEvent{
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			Subject:   "alice",
			EventType: model.EventTypeLogin,
			Status:    model.StatusSuccess,
			Origin:    "127.0.0.1",
			RiskLevel: model.RiskLevelLow,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	activity, err := svc.UserActivity(context.Background(), "alice", 3)
	if err != nil {
		t.Fatalf("UserActivity failed: %v", err)
	}
	if len(activity) != 3 {
		t.Fatalf("expected 3 events, got %d", len(activity))
	}
	if !activity[0].Timestamp.After(activity[1].Timestamp) {
		t.Fatal("activity not ordered newest first")
	}
}

// Exporting and feeding the records back through ingestion must reproduce
// the same summary counts: the export is a lossless snapshot.
func TestExportRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc, eventRepo, _ := newTestService(t, db)
	now := time.Now()

	statuses := []string{
		model.StatusFailure, model.StatusFailure, model.StatusSuccess, model.StatusBlocked,
	}
	for i, status := range statuses {
		err := eventRepo.Record(context.Background(), &model.AuditEvent{
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
			Subject:   "alice",
			EventType: model.EventTypeLogin,
			Status:    status,
			Origin:    "10.0.0.8",
			Detail:    model.Detail{"seq": float64(i)},
			RiskLevel: model.RiskLevelLow,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	var buf bytes.Buffer
	count, err := svc.Export(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if count != len(statuses) {
		t.Fatalf("exported %d records, want %d", count, len(statuses))
	}

	var doc exportDocument
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.TotalEntries != len(statuses) || len(doc.Logs) != len(statuses) {
		t.Fatalf("export header disagrees with payload: %+v", doc)
	}
	if doc.ExportID == "" {
		t.Fatal("export id missing")
	}

	// re-ingest into a fresh store
	replayDB := newTestDB(t)
	replaySvc, replayRepo, _ := newTestService(t, replayDB)
	for _, record := range doc.Logs {
		err := replayRepo.Record(context.Background(), &model.AuditEvent{
			Timestamp: record.Timestamp,
			Subject:   record.Subject,
			EventType: record.EventType,
			Status:    record.Status,
			Origin:    record.Origin,
			Detail:    record.Detail,
			RiskLevel: record.RiskLevel,
		})
		if err != nil {
			t.Fatalf("replay Record failed: %v", err)
		}
	}

	original, err := svc.Summary(context.Background(), 24)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	replayed, err := replaySvc.Summary(context.Background(), 24)
	if err != nil {
		t.Fatalf("replayed Summary failed: %v", err)
	}
	if replayed.TotalAttempts != original.TotalAttempts ||
		replayed.Failed != original.Failed ||
		replayed.Successful != original.Successful ||
		replayed.Blocked != original.Blocked {
		t.Fatalf("replayed summary %+v differs from original %+v", replayed, original)
	}
}
