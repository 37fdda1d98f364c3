package models

import "time"

// ShiftNote: Kommentar zu einem Dienstwunsch. Append-only, wird nur über
// das Cascade-Delete des Wunsches entfernt.
type ShiftNote struct {
	ID             uint   `gorm:"primaryKey"`
	ShiftRequestID uint   `gorm:"index;not null"`
	UserID         uint   `gorm:"not null"`
	User           User   `gorm:"foreignKey:UserID"`
	Content        string `gorm:"type:text;not null"`
	CreatedAt      time.Time
}
