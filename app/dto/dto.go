package dto

// APIResponse is the generic response envelope
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// ErrorDetail carries a machine-readable error code plus optional details
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
