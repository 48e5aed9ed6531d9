package model

import "time"

// Alert types emitted by the pattern detectors.
const (
	AlertTypeBruteForce    = "BRUTE_FORCE"
	AlertTypeRapidFire     = "RAPID_FIRE"
	AlertTypeUnusualTiming = "UNUSUAL_TIMING"
)

// Alert severities.
const (
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// IntrusionAlert is a detected pattern occurrence. It is a derived fact
// about a time window, not a foreign-keyed aggregate of specific events.
// At most one unresolved alert per (subject, alert type) may be created
// within any one hour window.
type IntrusionAlert struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
	Subject     string    `gorm:"size:64;not null;index" json:"subject"`
	AlertType   string    `gorm:"size:32;not null;index" json:"alertType"`
	Severity    string    `gorm:"size:16;not null" json:"severity"`
	Description string    `gorm:"size:512" json:"description"`
	Resolved    bool      `gorm:"not null;default:false;index" json:"resolved"`
}

func (IntrusionAlert) TableName() string {
	return "intrusion_alerts"
}
