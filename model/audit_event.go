package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Event types reported by the authentication subsystem.
const (
	EventTypeLogin        = "LOGIN"
	EventTypeTOTP         = "TOTP"
	EventTypeRegistration = "REGISTRATION"
	EventTypeLockout      = "LOCKOUT"
)

// Event statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
	StatusBlocked = "BLOCKED"
)

// Risk levels, ordered from least to most severe.
const (
	RiskLevelInfo     = "INFO"
	RiskLevelLow      = "LOW"
	RiskLevelMedium   = "MEDIUM"
	RiskLevelHigh     = "HIGH"
	RiskLevelCritical = "CRITICAL"
)

// SubjectEmpty is stored when the upstream caller supplied no subject.
// It only means "malformed submission", nothing more.
const SubjectEmpty = "EMPTY"

// Detail is an opaque structured payload attached to an event, serialized
// as JSON for persistence.
type Detail map[string]interface{}

func (d Detail) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *Detail) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported detail column type %T", value)
	}
	if len(data) == 0 {
		*d = nil
		return nil
	}
	return json.Unmarshal(data, d)
}

// AuditEvent is one reported authentication action. Rows are append-only:
// once recorded an event is never updated or deleted.
type AuditEvent struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Subject   string    `gorm:"size:64;not null;index" json:"subject"`
	EventType string    `gorm:"size:32;not null" json:"eventType"`
	Status    string    `gorm:"size:16;not null;index" json:"status"`
	Origin    string    `gorm:"size:45" json:"origin"` // IPv4/IPv6
	Detail    Detail    `gorm:"type:text" json:"detail,omitempty"`
	RiskLevel string    `gorm:"size:16;not null" json:"riskLevel"` // assigned once at ingestion
}

func (AuditEvent) TableName() string {
	return "audit_log"
}

func IsValidEventType(eventType string) bool {
	switch eventType {
	case EventTypeLogin, EventTypeTOTP, EventTypeRegistration, EventTypeLockout:
		return true
	}
	return false
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusSuccess, StatusFailure, StatusBlocked:
		return true
	}
	return false
}
