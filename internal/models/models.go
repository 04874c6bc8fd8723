package models

import "time"

// Visit is the running visit count of one visitor.
type Visit struct {
	VisitorID string `gorm:"primaryKey;size:64"`
	Count     int64  `gorm:"not null;default:0"`
	FirstSeen time.Time
	LastSeen  time.Time
}
