// Package dto holds the JSON envelopes returned by the ops endpoints.
package dto

// Envelope wraps every ops response. Exactly one of Data and Error is set.
//
//	{"success": true, "data": {...}}
//	{"success": false, "error": {"code": "NOT_FOUND", "message": "...", "request_id": "..."}}
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   *Problem `json:"error,omitempty"`
}

type Problem struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func OK(data any) Envelope { return Envelope{Success: true, Data: data} }

func Fail(code, message, requestID string) Envelope {
	return Envelope{Error: &Problem{Code: code, Message: message, RequestID: requestID}}
}
