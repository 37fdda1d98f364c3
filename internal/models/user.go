package models

import "time"

type User struct {
	ID                 uint   `gorm:"primaryKey"`
	Name               string `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash       string `gorm:"size:255;not null"`
	IsAdmin            bool   `gorm:"not null;default:false"`
	MustChangePassword bool   `gorm:"not null;default:false"`
	// Wird genau einmal gesetzt: Zeitpunkt der ersten Sammelabgabe,
	// ab dann existiert der Snapshot dieses Benutzers.
	FirstSubmissionAt *time.Time
	CreatedAt         time.Time

	ShiftRequests []ShiftRequest         `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Snapshots     []ShiftRequestSnapshot `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
