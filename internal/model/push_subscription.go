package model

import "time"

// PushSubscription holds the information for a browser push subscription that wants
// to hear about new critical alerts.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	Label     string    `gorm:"size:128" json:"label"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
