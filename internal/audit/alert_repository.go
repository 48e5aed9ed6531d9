package audit

import (
	"context"
	"errors"
	"time"

	"github.com/secureauth/sentinel/model"
	"gorm.io/gorm"
)

// AlertRepository owns the intrusion_alerts table.
type AlertRepository interface {
	// InsertIfAbsent inserts the alert unless an unresolved alert with the
	// same (subject, alert type) was created after dedupSince. Returns true
	// when the alert was stored, false when it was suppressed as a duplicate.
	InsertIfAbsent(ctx context.Context, alert *model.IntrusionAlert, dedupSince time.Time) (bool, error)
	ListUnresolved(ctx context.Context) ([]model.IntrusionAlert, error)
	Resolve(ctx context.Context, alertID uint64) error
	CountUnresolvedBySeverity(ctx context.Context) (map[string]int64, error)
}

type alertRepository struct {
	db *gorm.DB
}

// The check-then-insert runs in one transaction. Same-subject submissions
// are already serialized by the engine's subject lock; the transaction keeps
// resolve and cross-process writers from slipping between check and insert.
func (r *alertRepository) InsertIfAbsent(ctx context.Context, alert *model.IntrusionAlert, dedupSince time.Time) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.IntrusionAlert{}).
			Where("subject = ? AND alert_type = ? AND resolved = ? AND timestamp > ?",
				alert.Subject, alert.AlertType, false, dedupSince).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if alert.ID == 0 {
			alert.ID = model.GenerateID()
		}
		if alert.Timestamp.IsZero() {
			alert.Timestamp = time.Now()
		}
		if err := tx.Create(alert).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (r *alertRepository) ListUnresolved(ctx context.Context) ([]model.IntrusionAlert, error) {
	var alerts []model.IntrusionAlert
	err := r.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("timestamp DESC").
		Find(&alerts).Error
	return alerts, err
}

// Resolve marks the alert resolved. Resolving an already resolved alert is
// a no-op; an unknown id yields ErrAlertNotFound.
func (r *alertRepository) Resolve(ctx context.Context, alertID uint64) error {
	result := r.db.WithContext(ctx).Model(&model.IntrusionAlert{}).
		Where("id = ?", alertID).
		Update("resolved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.IntrusionAlert{}).
			Where("id = ?", alertID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrAlertNotFound
		}
	}
	return nil
}

func (r *alertRepository) CountUnresolvedBySeverity(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Severity string
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&model.IntrusionAlert{}).
		Select("severity, COUNT(*) as count").
		Where("resolved = ?", false).
		Group("severity").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Severity] = row.Count
	}
	return counts, nil
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db}
}

// IsNotFound reports whether err is the alert-not-found condition, from
// either this package or gorm.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAlertNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
