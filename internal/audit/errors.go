package audit

import "errors"

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrUnknownStatus    = errors.New("unknown event status")
	ErrAlertNotFound    = errors.New("alert not found")
	ErrStorage          = errors.New("audit storage failure")
)
