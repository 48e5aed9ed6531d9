package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/secureauth/sentinel/model"
	"github.com/secureauth/sentinel/params"
)

// Rule inspects a subject's recent history and proposes at most one alert.
// Every rule runs on every ingested event; the rules are independent and
// their submission order does not affect the stored alert set, since
// deduplication is scoped per alert type.
type Rule interface {
	Evaluate(ctx context.Context, subject string, now time.Time) (*model.IntrusionAlert, error)
}

type bruteForceRule struct {
	events EventRepository
}

func (r *bruteForceRule) Evaluate(ctx context.Context, subject string, now time.Time) (*model.IntrusionAlert, error) {
	failures, err := r.events.RecentFailures(ctx, subject, now.Add(-params.BruteForceWindow))
	if err != nil {
		return nil, err
	}
	if len(failures) < params.BruteForceThreshold {
		return nil, nil
	}
	return &model.IntrusionAlert{
		Subject:   subject,
		AlertType: model.AlertTypeBruteForce,
		Severity:  model.SeverityHigh,
		Description: fmt.Sprintf("Detected %d failed login attempts in %d minutes",
			len(failures), int(params.BruteForceWindow.Minutes())),
	}, nil
}

type rapidFireRule struct {
	events EventRepository
}

func (r *rapidFireRule) Evaluate(ctx context.Context, subject string, now time.Time) (*model.IntrusionAlert, error) {
	attempts, err := r.events.RecentActivity(ctx, subject, now.Add(-params.RapidFireWindow))
	if err != nil {
		return nil, err
	}
	if len(attempts) < params.RapidFireThreshold {
		return nil, nil
	}
	return &model.IntrusionAlert{
		Subject:   subject,
		AlertType: model.AlertTypeRapidFire,
		Severity:  model.SeverityCritical,
		Description: fmt.Sprintf("Detected %d attempts in 1 minute - possible automated attack",
			len(attempts)),
	}, nil
}

// unusualTimingRule flags repeated failures between 22:00 and 06:00. The
// hour is taken in a fixed configured zone so all nodes agree on what
// "night" means.
type unusualTimingRule struct {
	events   EventRepository
	location *time.Location
}

func (r *unusualTimingRule) Evaluate(ctx context.Context, subject string, now time.Time) (*model.IntrusionAlert, error) {
	hour := now.In(r.location).Hour()
	if hour >= params.UnusualHourEnd && hour < params.UnusualHourStart {
		return nil, nil
	}
	failures, err := r.events.RecentFailures(ctx, subject, now.Add(-params.BruteForceWindow))
	if err != nil {
		return nil, err
	}
	if len(failures) < params.UnusualTimingMinFailures {
		return nil, nil
	}
	return &model.IntrusionAlert{
		Subject:   subject,
		AlertType: model.AlertTypeUnusualTiming,
		Severity:  model.SeverityMedium,
		Description: fmt.Sprintf("Multiple failed attempts detected at unusual hour (%d:00)",
			hour),
	}, nil
}

// DefaultRules returns the fixed detector rule set, in evaluation order.
func DefaultRules(events EventRepository, location *time.Location) []Rule {
	return []Rule{
		&bruteForceRule{events: events},
		&rapidFireRule{events: events},
		&unusualTimingRule{events: events, location: location},
	}
}
