package model

// SummaryMetrics are the dashboard KPIs reported by GET /dashboard/summary.
type SummaryMetrics struct {
	TotalAssets        int `json:"total_assets"`
	Available          int `json:"available"`
	InCustody          int `json:"in_custody"`
	Overdue            int `json:"overdue"`
	Suspended          int `json:"suspended"`
	KitsInCustody      int `json:"kits_in_custody"`
	TotalKits          int `json:"total_kits"`
	OpenAlerts         int `json:"open_alerts"`
	CriticalAlerts     int `json:"critical_alerts"`
	CalibrationOverdue int `json:"calibration_overdue"`
	CalibrationDueSoon int `json:"calibration_due_soon"`
	ActiveWorkersToday int `json:"active_workers_today"`
}
