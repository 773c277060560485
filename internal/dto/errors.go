package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MessageResponse is returned by endpoints with nothing else to report
type MessageResponse struct {
	Message string `json:"message"`
}
