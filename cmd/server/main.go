package main

import (
	"log"
	"strings"

	"dienstwunsch-backend/internal/admin"
	"dienstwunsch-backend/internal/auth"
	"dienstwunsch-backend/internal/config"
	"dienstwunsch-backend/internal/database"
	"dienstwunsch-backend/internal/logger"
	"dienstwunsch-backend/internal/shiftplan"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Keine .env-Datei gefunden, Umgebungsvariablen werden direkt verwendet")
	}

	cfg := config.Load()

	zlog, err := logger.New()
	if err != nil {
		log.Fatalf("Logger konnte nicht erstellt werden: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		zlog.Fatal("Verbindung zur Datenbank fehlgeschlagen", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("Migration fehlgeschlagen", zap.Error(err))
	}
	if err := database.SeedInitialAdmin(db, cfg, zlog); err != nil {
		zlog.Fatal("Initial-Admin konnte nicht angelegt werden", zap.Error(err))
	}

	planService := shiftplan.NewService(db, zlog)
	adminService := admin.NewService(db, zlog)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			zlog.Error("Unerwarteter Fehler", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unerwarteter Serverfehler",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public
	api.Post("/auth/login", auth.LoginHandler(cfg, db, zlog))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))
	protected.Post("/auth/change-password", auth.ChangePasswordHandler(db))

	// Dienstwünsche (Mitglieder, immer Planungsmonat)
	protected.Get("/shift-requests", shiftplan.ListOwnRequestsHandler(planService))
	protected.Post("/shift-requests", shiftplan.CreateRequestHandler(planService))
	protected.Post("/shift-requests/batch", shiftplan.SubmitBatchHandler(planService))
	protected.Delete("/shift-requests/:id", shiftplan.DeleteRequestHandler(planService))
	protected.Post("/shift-requests/:id/notes", shiftplan.AddNoteHandler(planService))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireAdmin())

	adminRoutes.Get("/shift-requests", admin.ListAllRequestsHandler(planService))
	adminRoutes.Get("/available-months", admin.AvailableMonthsHandler())
	adminRoutes.Post("/shift-requests/:id/confirm", admin.ToggleConfirmedHandler(planService))
	adminRoutes.Post("/users/:id/confirm-all", admin.ConfirmAllHandler(planService))

	// Benutzerverwaltung
	adminRoutes.Get("/users", admin.ListUsersHandler(adminService))
	adminRoutes.Post("/users", admin.CreateUserHandler(adminService))
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler(adminService))
	adminRoutes.Put("/users/:id/admin", admin.SetAdminHandler(adminService))
	adminRoutes.Post("/users/:id/reset-password", admin.ResetPasswordHandler(adminService))

	zlog.Info("Server startet", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		zlog.Fatal("Server beendet", zap.Error(err))
	}
}
