package model

// Asset and kit lifecycle states.
const (
	StateAvailable       = "AVAILABLE"
	StateInCustody       = "IN_CUSTODY"
	StateOverdue         = "OVERDUE"
	StateSuspended       = "SUSPENDED"
	StateOverrideCustody = "OVERRIDE_CUSTODY"
	StateWithdrawn       = "WITHDRAWN"
)

// Calibration statuses.
const (
	CalibrationValid       = "VALID"
	CalibrationDueSoon     = "DUE_SOON"
	CalibrationOverdue     = "OVERDUE"
	CalibrationNotRequired = "NOT_REQUIRED"
	CalibrationUnknown     = "UNKNOWN"
)

// KnownStates lists the states offered by the inventory state filter.
var KnownStates = []string{
	StateAvailable, StateInCustody, StateOverdue,
	StateSuspended, StateOverrideCustody, StateWithdrawn,
}

// Category is the optional grouping attached to assets and kits.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Asset is one tracked tool.
type Asset struct {
	ID                string     `json:"id"`
	AssetCode         string     `json:"asset_code"`
	Name              string     `json:"name"`
	Category          *Category  `json:"category"`
	Manufacturer      *string    `json:"manufacturer"`
	State             string     `json:"state"`
	CalibrationStatus string     `json:"calibration_status"`
	CalibrationDueAt  *Timestamp `json:"calibration_due_at"`
}

// AssetPage is the envelope of GET /assets.
type AssetPage struct {
	Items []Asset `json:"items"`
}

// Kit is a bundle of pieces checked out as one unit.
type Kit struct {
	ID            string    `json:"id"`
	KitCode       string    `json:"kit_code"`
	Name          string    `json:"name"`
	Category      *Category `json:"category"`
	ExpectedCount int       `json:"expected_count"`
	State         string    `json:"state"`
}
