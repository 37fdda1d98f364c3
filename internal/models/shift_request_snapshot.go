package models

import "time"

// ShiftRequestSnapshot: unveränderlicher Stand der Wünsche eines Benutzers
// zum Zeitpunkt seiner ersten Abgabe. Wird nie aktualisiert.
type ShiftRequestSnapshot struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Date      time.Time `gorm:"type:date;not null"`
	ShiftType string    `gorm:"size:20;not null"`
	CreatedAt time.Time
}
