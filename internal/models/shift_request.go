package models

import "time"

const StatusPending = "pending"

type ShiftRequest struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex:idx_shift_requests_user_date"`
	User   User
	// Nur das Datum zählt, Uhrzeit immer 00:00. Pro Benutzer und Tag
	// maximal ein Wunsch.
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_shift_requests_user_date"`
	ShiftType string    `gorm:"size:20;not null"` // z.B. "T", "N10", "T10"
	Remarks   string    `gorm:"type:text"`
	Status    string    `gorm:"size:20;not null;default:pending"`
	Confirmed bool      `gorm:"not null;default:false"` // nur durch Admin schaltbar
	CreatedAt time.Time
	UpdatedAt time.Time

	Notes []ShiftNote `gorm:"foreignKey:ShiftRequestID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
