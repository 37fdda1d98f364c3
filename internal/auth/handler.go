package auth

import (
	"strings"

	"dienstwunsch-backend/internal/config"
	"dienstwunsch-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

func userResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":                   user.ID,
		"name":                 user.Name,
		"is_admin":             user.IsAdmin,
		"must_change_password": user.MustChangePassword,
	}
}

// POST /api/auth/login
// Bekannter Name: Passwort prüfen. Unbekannter Name: Konto wird direkt
// als Mitglied angelegt, wie es die Mannschaft von Anfang an gewohnt ist.
func LoginHandler(cfg *config.Config, db *gorm.DB, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ungültiger Request-Body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Name und Passwort sind erforderlich")
		}

		var user models.User
		err := db.Where("name = ?", body.Name).First(&user).Error
		switch {
		case err == nil:
			if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "Falsches Passwort")
			}
		case err == gorm.ErrRecordNotFound:
			hash, hashErr := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
			if hashErr != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Passwort konnte nicht gespeichert werden")
			}
			user = models.User{
				Name:         body.Name,
				PasswordHash: string(hash),
				IsAdmin:      false,
			}
			if err := db.Create(&user).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Benutzer konnte nicht angelegt werden")
			}
			logger.Info("Neues Mitglied beim Login angelegt", zap.String("name", user.Name))
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "Anmeldung fehlgeschlagen")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token konnte nicht erstellt werden")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  userResponse(&user),
		})
	}
}

// POST /api/auth/change-password
// Setzt auch das Zwangs-Reset-Flag zurück.
func ChangePasswordHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return err
		}

		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ungültiger Request-Body")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Neues Passwort muss mindestens 8 Zeichen haben")
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Benutzer nicht gefunden")
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)) != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Aktuelles Passwort ist falsch")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Passwort konnte nicht gespeichert werden")
		}

		updates := map[string]interface{}{
			"password_hash":        string(hash),
			"must_change_password": false,
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Passwort konnte nicht gespeichert werden")
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Benutzer nicht gefunden")
		}

		resp := userResponse(&user)
		if user.FirstSubmissionAt != nil {
			resp["first_submission_at"] = user.FirstSubmissionAt
		}
		return c.JSON(resp)
	}
}
