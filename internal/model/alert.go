package model

// Alert severities known to this console.
const (
	SeverityCritical = "CRITICAL"
	SeverityWarning  = "WARNING"
	SeverityInfo     = "INFO"
)

// Alert statuses. Transitions are owned by the server.
const (
	AlertOpen         = "OPEN"
	AlertAcknowledged = "ACKNOWLEDGED"
	AlertResolved     = "RESOLVED"
)

// Alert is one row of GET /alerts. Severity and status stay plain strings so a
// value the console has never heard of still decodes.
type Alert struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	AlertType string    `json:"alert_type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	AssetID   *string   `json:"asset_id,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// AlertAction is the body of POST /alerts/{id}/acknowledge and /resolve.
type AlertAction struct {
	WorkerID       string  `json:"worker_id"`
	ResolutionNote *string `json:"resolution_note,omitempty"`
}
