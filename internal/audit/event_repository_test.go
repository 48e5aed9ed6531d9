package audit

import (
	"context"
	"testing"
	"time"

	"github.com/secureauth/sentinel/model"
)

func recordEvent(t *testing.T, repo EventRepository, subject, status string, at time.Time) {
	t.Helper()
	err := repo.Record(context.Background(), &model.AuditEvent{
		Timestamp: at,
		Subject:   subject,
		EventType: model.EventTypeLogin,
		Status:    status,
		Origin:    "127.0.0.1",
		RiskLevel: model.RiskLevelLow,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
}

func TestRecentFailuresWindowAndOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	recordEvent(t, repo, "alice", model.StatusFailure, now.Add(-20*time.Minute)) // outside window
	recordEvent(t, repo, "alice", model.StatusFailure, now.Add(-10*time.Minute))
	recordEvent(t, repo, "alice", model.StatusSuccess, now.Add(-5*time.Minute)) // wrong status
	recordEvent(t, repo, "alice", model.StatusFailure, now.Add(-2*time.Minute))
	recordEvent(t, repo, "bob", model.StatusFailure, now.Add(-1*time.Minute)) // wrong subject

	failures, err := repo.RecentFailures(context.Background(), "alice", now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("RecentFailures failed: %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures in window, got %d", len(failures))
	}
	if !failures[0].Timestamp.After(failures[1].Timestamp) {
		t.Fatal("failures not ordered newest first")
	}
}

func TestHistoryLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		recordEvent(t, repo, "alice", model.StatusSuccess, now.Add(time.Duration(i)*time.Minute))
	}

	history, err := repo.History(context.Background(), "alice", 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 events, got %d", len(history))
	}
	if !history[0].Timestamp.After(history[1].Timestamp) {
		t.Fatal("history not ordered newest first")
	}
}

func TestCountByStatusAndTopFailures(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	since := now.Add(-time.Hour)

	recordEvent(t, repo, "alice", model.StatusFailure, now.Add(-10*time.Minute))
	recordEvent(t, repo, "alice", model.StatusFailure, now.Add(-9*time.Minute))
	recordEvent(t, repo, "bob", model.StatusFailure, now.Add(-8*time.Minute))
	recordEvent(t, repo, "bob", model.StatusSuccess, now.Add(-7*time.Minute))
	recordEvent(t, repo, "carol", model.StatusBlocked, now.Add(-6*time.Minute))

	counts, err := repo.CountByStatus(context.Background(), since)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[model.StatusFailure] != 3 || counts[model.StatusSuccess] != 1 || counts[model.StatusBlocked] != 1 {
		t.Fatalf("unexpected status counts: %v", counts)
	}

	top, err := repo.TopFailureSubjects(context.Background(), since, 5)
	if err != nil {
		t.Fatalf("TopFailureSubjects failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 ranked subjects, got %d", len(top))
	}
	if top[0].Subject != "alice" || top[0].Failures != 2 {
		t.Fatalf("unexpected top subject: %+v", top[0])
	}
}

func TestDetailRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)

	event := &model.AuditEvent{
		Timestamp: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Subject:   "alice",
		EventType: model.EventTypeTOTP,
		Status:    model.StatusFailure,
		Origin:    "10.0.0.8",
		Detail:    model.Detail{"reason": "code expired", "attempt": float64(2)},
		RiskLevel: model.RiskLevelLow,
	}
	if err := repo.Record(context.Background(), event); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	var stored model.AuditEvent
	if err := db.First(&stored, "id = ?", event.ID).Error; err != nil {
		t.Fatalf("stored event not found: %v", err)
	}
	if stored.Detail["reason"] != "code expired" {
		t.Errorf("detail reason = %v, want 'code expired'", stored.Detail["reason"])
	}
	if stored.Detail["attempt"] != float64(2) {
		t.Errorf("detail attempt = %v, want 2", stored.Detail["attempt"])
	}
}
