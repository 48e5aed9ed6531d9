package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/secureauth/sentinel/internal/audit"
	"github.com/secureauth/sentinel/model"
	"github.com/secureauth/sentinel/params"
	"github.com/valyala/bytebufferpool"
)

// Summary is the time-windowed overview served to the viewer.
type Summary struct {
	TotalAttempts     int64                   `json:"totalAttempts"`
	Successful        int64                   `json:"successful"`
	Failed            int64                   `json:"failed"`
	Blocked           int64                   `json:"blocked"`
	TopFailedSubjects []audit.SubjectFailures `json:"topFailedSubjects"`
	ActiveAlerts      map[string]int64        `json:"activeAlerts"` // unresolved count by severity
	TimeWindowHours   int                     `json:"timeWindowHours"`
}

// ExportRecord is one exported audit log entry. The shape is stable: a
// re-ingest of exported records reproduces the same summary counts.
type ExportRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	Subject   string       `json:"subject"`
	EventType string       `json:"eventType"`
	Status    string       `json:"status"`
	Origin    string       `json:"origin"`
	Detail    model.Detail `json:"detail,omitempty"`
	RiskLevel string       `json:"riskLevel"`
}

type exportDocument struct {
	ExportID     string         `json:"exportId"`
	ExportDate   time.Time      `json:"exportDate"`
	TotalEntries int            `json:"totalEntries"`
	Logs         []ExportRecord `json:"logs"`
}

// Service composes read-only aggregations over the event store and the
// alert table. It takes no subject lock and is safe to run concurrently
// with ingestion.
type Service struct {
	events audit.EventRepository
	alerts audit.AlertRepository
}

func NewService(events audit.EventRepository, alerts audit.AlertRepository) *Service {
	return &Service{events: events, alerts: alerts}
}

func (s *Service) Summary(ctx context.Context, hours int) (*Summary, error) {
	if hours <= 0 {
		hours = params.DefaultSummaryHours
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	statusCounts, err := s.events.CountByStatus(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audit.ErrStorage, err)
	}
	topFailed, err := s.events.TopFailureSubjects(ctx, since, params.TopFailureSubjects)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audit.ErrStorage, err)
	}
	alertCounts, err := s.alerts.CountUnresolvedBySeverity(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audit.ErrStorage, err)
	}

	summary := &Summary{
		Successful:        statusCounts[model.StatusSuccess],
		Failed:            statusCounts[model.StatusFailure],
		Blocked:           statusCounts[model.StatusBlocked],
		TopFailedSubjects: topFailed,
		ActiveAlerts:      alertCounts,
		TimeWindowHours:   hours,
	}
	for _, count := range statusCounts {
		summary.TotalAttempts += count
	}
	if summary.TopFailedSubjects == nil {
		summary.TopFailedSubjects = []audit.SubjectFailures{}
	}
	if summary.ActiveAlerts == nil {
		summary.ActiveAlerts = map[string]int64{}
	}
	return summary, nil
}

// UserActivity returns the subject's most recent events, newest first.
func (s *Service) UserActivity(ctx context.Context, subject string, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = params.DefaultActivityLimit
	}
	events, err := s.events.History(ctx, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audit.ErrStorage, err)
	}
	return events, nil
}

// Export writes every stored event to w as one JSON document, newest first,
// and returns the number of records exported. The document is encoded into
// a pooled buffer first so a slow sink never holds a partially written
// export.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	events, err := s.events.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", audit.ErrStorage, err)
	}

	records := make([]ExportRecord, len(events))
	for i, event := range events {
		records[i] = ExportRecord{
			Timestamp: event.Timestamp,
			Subject:   event.Subject,
			EventType: event.EventType,
			Status:    event.Status,
			Origin:    event.Origin,
			Detail:    event.Detail,
			RiskLevel: event.RiskLevel,
		}
	}
	doc := exportDocument{
		ExportID:     uuid.NewString(),
		ExportDate:   time.Now(),
		TotalEntries: len(records),
		Logs:         records,
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return 0, err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(records), nil
}
