package model

// CustodyRecord is one outstanding checkout from GET /dashboard/active-custody.
type CustodyRecord struct {
	ID               string     `json:"id"`
	WorkerName       string     `json:"worker_name"`
	WorkerEmployeeID string     `json:"worker_employee_id"`
	AssetName        string     `json:"asset_name"`
	AssetCode        string     `json:"asset_code"`
	IsKit            bool       `json:"is_kit"`
	CheckedOutAt     Timestamp  `json:"checked_out_at"`
	ExpectedReturnAt *Timestamp `json:"expected_return_at"`
	IsOverdue        bool       `json:"is_overdue"`
	OverdueHours     *float64   `json:"overdue_hours"`
	HoursElapsed     float64    `json:"hours_elapsed"`
}

// HistoryRecord is one row of GET /custody/history. Worker and asset are optional
// because the API nulls them when the referenced entity is gone.
type HistoryRecord struct {
	ID           string     `json:"id"`
	EventType    string     `json:"event_type"`
	Worker       *string    `json:"worker"`
	Asset        *string    `json:"asset"`
	AssetName    *string    `json:"asset_name"`
	CheckedOutAt *Timestamp `json:"checked_out_at"`
	ReturnedAt   *Timestamp `json:"returned_at"`
	IsOverdue    bool       `json:"is_overdue"`
	OverdueHours *float64   `json:"overdue_hours"`
}

// ScanRequest is the body of POST /custody/checkout and POST /custody/return.
type ScanRequest struct {
	WorkerQR string `json:"worker_qr"`
	AssetQR  string `json:"asset_qr"`
}

// ScanResult is the confirmation returned by a successful scan transaction.
type ScanResult struct {
	Success          bool       `json:"success"`
	Message          string     `json:"message"`
	RecordID         string     `json:"record_id"`
	Asset            string     `json:"asset"`
	ExpectedReturnAt *Timestamp `json:"expected_return_at"`
	OverdueHours     *float64   `json:"overdue_hours"`
}
