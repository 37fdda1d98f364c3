package config

import (
	"log"
	"os"
)

type Config struct {
	HTTPPort    string
	DatabaseURL string // leer = lokale SQLite-Datei
	SQLitePath  string
	JWTSecret   string
	CORSOrigins string
	// Initial-Admin wird nur angelegt, wenn die users-Tabelle leer ist.
	InitialAdminName     string
	InitialAdminPassword string
}

func Load() *Config {
	cfg := &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		SQLitePath:           getEnv("SQLITE_PATH", "dienstwuensche.db"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		CORSOrigins:          getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		InitialAdminName:     getEnv("INITIAL_ADMIN_NAME", "admin"),
		InitialAdminPassword: getEnv("INITIAL_ADMIN_PASSWORD", ""),
	}

	// Produktions-Sicherheitschecks
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET ist nicht gesetzt! Für den Betrieb zwingend erforderlich.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET muss mindestens 32 Zeichen lang sein!")
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL nicht gesetzt, lokale SQLite-Datenbank wird verwendet:", cfg.SQLitePath)
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS verwendet den Standardwert, für den Betrieb eigene Domain eintragen.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
