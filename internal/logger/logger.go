package logger

import (
	"os"

	"go.uber.org/zap"
)

// New baut den zentralen Logger. In Produktion JSON, lokal lesbar.
func New() (*zap.Logger, error) {
	if os.Getenv("APP_ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
