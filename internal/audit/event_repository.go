package audit

import (
	"context"
	"time"

	"github.com/secureauth/sentinel/model"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// SubjectFailures is one row of the failure ranking used by summaries.
type SubjectFailures struct {
	Subject  string `json:"subject"`
	Failures int64  `json:"failures"`
}

// EventRepository is the append-only store of authentication events.
// Record never mutates existing rows; every read reflects all writes that
// completed before it began.
type EventRepository interface {
	Record(ctx context.Context, event *model.AuditEvent) error
	RecentFailures(ctx context.Context, subject string, since time.Time) ([]model.AuditEvent, error)
	RecentActivity(ctx context.Context, subject string, since time.Time) ([]model.AuditEvent, error)
	History(ctx context.Context, subject string, limit int) ([]model.AuditEvent, error)
	CountByStatus(ctx context.Context, since time.Time) (map[string]int64, error)
	TopFailureSubjects(ctx context.Context, since time.Time, limit int) ([]SubjectFailures, error)
	All(ctx context.Context) ([]model.AuditEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

func (r *eventRepository) Record(ctx context.Context, event *model.AuditEvent) error {
	if event.ID == 0 {
		event.ID = model.GenerateID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// RecentFailures and RecentActivity feed the classifier and the detector
// rules; they pin to the primary so a lagging replica never changes a
// risk decision.
func (r *eventRepository) RecentFailures(ctx context.Context, subject string, since time.Time) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).
		Where("subject = ? AND status = ? AND timestamp > ?", subject, model.StatusFailure, since).
		Order("timestamp DESC").
		Find(&events).Error
	return events, err
}

func (r *eventRepository) RecentActivity(ctx context.Context, subject string, since time.Time) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).Clauses(dbresolver.Write).
		Where("subject = ? AND timestamp > ?", subject, since).
		Order("timestamp DESC").
		Find(&events).Error
	return events, err
}

func (r *eventRepository) History(ctx context.Context, subject string, limit int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).
		Where("subject = ?", subject).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) CountByStatus(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.AuditEvent{}).
		Select("status, COUNT(*) as count").
		Where("timestamp > ?", since).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *eventRepository) TopFailureSubjects(ctx context.Context, since time.Time, limit int) ([]SubjectFailures, error) {
	var rows []SubjectFailures
	err := r.db.WithContext(ctx).Model(&model.AuditEvent{}).
		Select("subject, COUNT(*) as failures").
		Where("status = ? AND timestamp > ?", model.StatusFailure, since).
		Group("subject").
		Order("failures DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *eventRepository) All(ctx context.Context) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	err := r.db.WithContext(ctx).Order("timestamp DESC").Find(&events).Error
	return events, err
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db}
}
