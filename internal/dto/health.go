package dto

// HealthResponse is returned by the health endpoints. Details reports
// per-dependency status on readiness checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Details any    `json:"details,omitempty"`
}
