package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/secureauth/sentinel/model"
	"github.com/secureauth/sentinel/params"
)

const defaultOrigin = "127.0.0.1"

// ReportEventOptions carries one authentication event as reported by the
// credential/MFA subsystem.
type ReportEventOptions struct {
	Subject   string
	EventType string
	Status    string
	Origin    string
	Detail    model.Detail
	Timestamp time.Time // zero means "now"
}

// AuditService is the ingestion and intrusion detection engine. ReportEvent
// runs the whole pipeline for one event: validate, classify, persist,
// detect, submit candidate alerts.
type AuditService struct {
	events EventRepository
	alerts AlertRepository
	rules  []Rule
	locks  *subjectLock
}

func NewAuditService(events EventRepository, alerts AlertRepository, rules []Rule) *AuditService {
	return &AuditService{
		events: events,
		alerts: alerts,
		rules:  rules,
		locks:  newSubjectLock(),
	}
}

// ReportEvent persists the event with a computed risk level and runs the
// detector rules for its subject. The returned id identifies the stored
// event. Validation errors reject the event before any write; storage
// errors after the event was persisted still return the id along with the
// error, since the event itself is durable at that point.
func (s *AuditService) ReportEvent(ctx context.Context, opts ReportEventOptions) (uint64, error) {
	if !model.IsValidEventType(opts.EventType) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, opts.EventType)
	}
	if !model.IsValidStatus(opts.Status) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, opts.Status)
	}
	subject := opts.Subject
	if subject == "" {
		subject = model.SubjectEmpty
	}
	origin := opts.Origin
	if origin == "" {
		origin = defaultOrigin
	}
	now := opts.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	// Same-subject pipelines must not interleave: the classifier's failure
	// count and the alert dedup check are both read-then-act.
	s.locks.Lock(subject)
	defer s.locks.Unlock(subject)

	priorFailures, err := s.events.RecentFailures(ctx, subject, now.Add(-params.RiskFailureWindow))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	event := &model.AuditEvent{
		Timestamp: now,
		Subject:   subject,
		EventType: opts.EventType,
		Status:    opts.Status,
		Origin:    origin,
		Detail:    opts.Detail,
		RiskLevel: classifyRisk(opts.EventType, opts.Status, len(priorFailures)),
	}
	if err := s.events.Record(ctx, event); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := s.detect(ctx, subject, now); err != nil {
		return event.ID, err
	}
	return event.ID, nil
}

// detect evaluates every rule and submits each candidate independently. A
// failing history read aborts the detection pass but the triggering event
// stays persisted and classified.
func (s *AuditService) detect(ctx context.Context, subject string, now time.Time) error {
	for _, rule := range s.rules {
		candidate, err := rule.Evaluate(ctx, subject, now)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if candidate == nil {
			continue
		}
		candidate.Timestamp = now
		created, err := s.alerts.InsertIfAbsent(ctx, candidate, now.Add(-params.AlertDedupWindow))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		if created {
			slog.Warn("Intrusion alert created",
				"subject", candidate.Subject,
				"type", candidate.AlertType,
				"severity", candidate.Severity)
		}
	}
	return nil
}

// ListActiveAlerts returns all unresolved alerts, newest first.
func (s *AuditService) ListActiveAlerts(ctx context.Context) ([]model.IntrusionAlert, error) {
	alerts, err := s.alerts.ListUnresolved(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return alerts, nil
}

// ResolveAlert marks the alert resolved. Idempotent for already resolved
// alerts; ErrAlertNotFound for unknown ids.
func (s *AuditService) ResolveAlert(ctx context.Context, alertID uint64) error {
	err := s.alerts.Resolve(ctx, alertID)
	if err == nil || IsNotFound(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
