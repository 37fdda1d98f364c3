package shiftplan

import (
	"fmt"
	"time"

	"dienstwunsch-backend/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type CreateShiftRequestRequest struct {
	Date      string `json:"date" validate:"required"`
	ShiftType string `json:"shiftType" validate:"required"`
	Remarks   string `json:"remarks"`
}

type SubmitBatchRequest struct {
	// Datum ("2025-03-10") -> Schichtart ("T", "N10", ...)
	Shifts map[string]string `json:"shifts" validate:"required"`
}

type AddNoteRequest struct {
	Content string `json:"content" validate:"required"`
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params(name), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Ungültige ID")
	}
	return id, nil
}

// -------------------------------------------------
// GET /api/shift-requests
// Eigene Wünsche, immer für den Planungsmonat.
// -------------------------------------------------
func ListOwnRequestsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		year, month := OperatingMonth(time.Now())
		requests, err := svc.ListForUser(userID, year, month)
		if err != nil {
			return FiberError(err)
		}

		resp := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, NewRequestResponse(&requests[i]))
		}

		return c.JSON(fiber.Map{
			"year":     year,
			"month":    month,
			"requests": resp,
		})
	}
}

// -------------------------------------------------
// POST /api/shift-requests
// -------------------------------------------------
func CreateRequestHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body CreateShiftRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ungültiger Request-Body")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datum und Schichtart sind erforderlich")
		}

		req, err := svc.CreateSingle(userID, body.Date, body.ShiftType, body.Remarks)
		if err != nil {
			return FiberError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(NewRequestResponse(req))
	}
}

// -------------------------------------------------
// POST /api/shift-requests/batch
// Komplette Abgabe für den Planungsmonat.
// -------------------------------------------------
func SubmitBatchHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		var body SubmitBatchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ungültiger Request-Body")
		}
		if body.Shifts == nil {
			return fiber.NewError(fiber.StatusBadRequest, "shifts ist erforderlich")
		}

		res, err := svc.SubmitBatch(userID, body.Shifts)
		if err != nil {
			return FiberError(err)
		}

		return c.JSON(res)
	}
}

// -------------------------------------------------
// DELETE /api/shift-requests/:id
// -------------------------------------------------
func DeleteRequestHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		if err := svc.DeleteSingle(userID, id); err != nil {
			return FiberError(err)
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// -------------------------------------------------
// POST /api/shift-requests/:id/notes
// -------------------------------------------------
func AddNoteHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		var body AddNoteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ungültiger Request-Body")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Inhalt ist erforderlich")
		}

		note, err := svc.AddNote(id, userID, auth.IsAdmin(c), body.Content)
		if err != nil {
			return FiberError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(NewNoteResponse(note))
	}
}
