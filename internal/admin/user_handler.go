package admin

import (
	"errors"
	"time"

	"dienstwunsch-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	IsAdmin  bool   `json:"is_admin"`
}

type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type UserResponse struct {
	ID                 uint    `json:"id"`
	Name               string  `json:"name"`
	IsAdmin            bool    `json:"is_admin"`
	MustChangePassword bool    `json:"must_change_password"`
	FirstSubmissionAt  *string `json:"first_submission_at"`
	CreatedAt          string  `json:"created_at"`
}

func newUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		IsAdmin:            u.IsAdmin,
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt.Format(time.RFC3339),
	}
	if u.FirstSubmissionAt != nil {
		s := u.FirstSubmissionAt.Format(time.RFC3339)
		resp.FirstSubmissionAt = &s
	}
	return resp
}

func fiberError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrLastAdmin):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrNameTaken), errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Unerwarteter Serverfehler")
	}
}

// -------------------------------------------------
// GET /api/admin/users
// -------------------------------------------------
func ListUsersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.ListUsers()
		if err != nil {
			return fiberError(err)
		}

		resp := make([]UserResponse, 0, len(users))
		for i := range users {
			resp = append(resp, newUserResponse(&users[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// POST /api/admin/users
// -------------------------------------------------
func CreateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ungültiger Request-Body")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Name und Passwort (mindestens 8 Zeichen) sind erforderlich")
		}

		user, err := svc.CreateUser(body.Name, body.Password, body.IsAdmin)
		if err != nil {
			return fiberError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(newUserResponse(user))
	}
}

// -------------------------------------------------
// DELETE /api/admin/users/:id
// -------------------------------------------------
func DeleteUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		if err := svc.DeleteUser(id); err != nil {
			return fiberError(err)
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// -------------------------------------------------
// PUT /api/admin/users/:id/admin
// -------------------------------------------------
func SetAdminHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body SetAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ungültiger Request-Body")
		}

		user, err := svc.SetAdmin(id, body.IsAdmin)
		if err != nil {
			return fiberError(err)
		}

		return c.JSON(newUserResponse(user))
	}
}

// -------------------------------------------------
// POST /api/admin/users/:id/reset-password
// -------------------------------------------------
func ResetPasswordHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body ResetPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ungültiger Request-Body")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Passwort (mindestens 8 Zeichen) ist erforderlich")
		}

		if err := svc.ResetPassword(id, body.Password); err != nil {
			return fiberError(err)
		}

		return c.JSON(fiber.Map{"success": true})
	}
}
