package database

import (
	"strings"

	"dienstwunsch-backend/internal/config"
	"dienstwunsch-backend/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect öffnet je nach Konfiguration Postgres (DATABASE_URL gesetzt)
// oder die lokale SQLite-Datei, wie die ursprüngliche Installation.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		// Render/Supabase liefern teils "postgres://", der Treiber
		// versteht beide Schreibweisen der URL.
		dsn := strings.Replace(cfg.DatabaseURL, "postgres://", "postgresql://", 1)
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.ShiftRequest{},
		&models.ShiftRequestSnapshot{},
		&models.ShiftNote{},
	)
}

// SeedInitialAdmin legt einen ersten Administrator an, falls noch gar keine
// Benutzer existieren. Ohne konfiguriertes Passwort wird nichts angelegt.
func SeedInitialAdmin(db *gorm.DB, cfg *config.Config, logger *zap.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.InitialAdminPassword == "" {
		logger.Warn("Keine Benutzer vorhanden und INITIAL_ADMIN_PASSWORD nicht gesetzt, Initial-Admin wird nicht angelegt")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:               cfg.InitialAdminName,
		PasswordHash:       string(hash),
		IsAdmin:            true,
		MustChangePassword: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("Initial-Admin angelegt", zap.String("name", admin.Name))
	return nil
}
