package api

const apiVersion = "1.0"

type APIResponse struct {
	APIVersion string        `json:"apiVersion"`
	Data       any           `json:"data,omitempty"`
	Error      *APIErrorInfo `json:"error,omitempty"`
}

type APIErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewDataResponse(data any) APIResponse {
	return APIResponse{
		APIVersion: apiVersion,
		Data:       data,
	}
}

func NewErrorResponse(code int, message string) APIResponse {
	return APIResponse{
		APIVersion: apiVersion,
		Error: &APIErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

type ReportEventRequest struct {
	Subject   string                 `json:"subject"`
	EventType string                 `json:"eventType"`
	Status    string                 `json:"status"`
	Origin    string                 `json:"origin,omitempty"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
}

type ReportEventResponse struct {
	EventID uint64 `json:"eventId"`
}

type ResolveAlertResponse struct {
	AlertID  uint64 `json:"alertId"`
	Resolved bool   `json:"resolved"`
}

type ExportResponse struct {
	Exported int `json:"exported"`
}
