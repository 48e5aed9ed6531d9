package audit

import (
	"github.com/secureauth/sentinel/model"
	"github.com/secureauth/sentinel/params"
)

// classifyRisk assigns the risk level for a single event given the number of
// FAILURE events the subject produced in the preceding classifier window.
// Rules are evaluated in order, first match wins: a BLOCKED registration is
// CRITICAL, not INFO.
func classifyRisk(eventType string, status string, priorFailures int) string {
	switch {
	case status == model.StatusBlocked:
		return model.RiskLevelCritical
	case eventType == model.EventTypeRegistration && status == model.StatusSuccess:
		return model.RiskLevelInfo
	case status == model.StatusFailure:
		if priorFailures >= params.RiskHighFailures {
			return model.RiskLevelHigh
		}
		if priorFailures >= params.RiskMediumFailures {
			return model.RiskLevelMedium
		}
		return model.RiskLevelLow
	default:
		return model.RiskLevelLow
	}
}
