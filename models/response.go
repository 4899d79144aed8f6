package models

// RunStatus is a point-in-time view of a collection run.
type RunStatus struct {
	// RunID identifies the process run.
	RunID string `json:"run_id"`

	// Phase is one of "starting", "discovering", "collecting", "widening", "done".
	Phase string `json:"phase"`

	// Strategy is the listing locator that produced the initial candidates.
	Strategy string `json:"strategy,omitempty"`

	Target     int `json:"target"`
	Candidates int `json:"candidates"`
	Processed  int `json:"processed"`
	Succeeded  int `json:"succeeded"`
	Skipped    int `json:"skipped"`
	Reloads    int `json:"reloads"`

	// Error is populated once the run ended with a fatal error.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string    `json:"status"` // "running" or "done"
	Uptime  string    `json:"uptime"`
	Run     RunStatus `json:"run"`
	Version string    `json:"version"`
}

// RecordsResponse is the response for GET /api/v1/records.
type RecordsResponse struct {
	Count   int             `json:"count"`
	Records []ProjectRecord `json:"records"`
}
