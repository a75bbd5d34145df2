package model

import "time"

// Scan journal outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
)

// ScanJournalEntry records what this station submitted and what it was told.
// It never mirrors custody state; the API stays the system of record.
type ScanJournalEntry struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Mode       string    `gorm:"size:16;not null" json:"mode"`
	WorkerCode string    `gorm:"size:128;not null" json:"worker_code"`
	AssetCode  string    `gorm:"size:128;not null" json:"asset_code"`
	Outcome    string    `gorm:"size:16;not null;index" json:"outcome"`
	Message    string    `gorm:"size:512;not null" json:"message"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}
