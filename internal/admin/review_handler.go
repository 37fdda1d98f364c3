package admin

import (
	"fmt"
	"time"

	"dienstwunsch-backend/internal/shiftplan"

	"github.com/gofiber/fiber/v2"
)

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params(name), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Ungültige ID")
	}
	return id, nil
}

// monthFromQuery: explizite Monatswahl über ?month=&year=, sonst der
// Planungsmonat. Nur Administratoren dürfen den Monat überhaupt wählen.
func monthFromQuery(c *fiber.Ctx) (int, int, error) {
	year, month := shiftplan.OperatingMonth(time.Now())

	if ys := c.Query("year"); ys != "" {
		if _, err := fmt.Sscan(ys, &year); err != nil || year < 2000 {
			return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Ungültiges Jahr")
		}
	}
	if ms := c.Query("month"); ms != "" {
		if _, err := fmt.Sscan(ms, &month); err != nil || month < 1 || month > 12 {
			return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Ungültiger Monat")
		}
	}
	return year, month, nil
}

// -------------------------------------------------
// GET /api/admin/shift-requests?month=&year=
// Monatsübersicht über alle Benutzer, mit Divergenz-Flag.
// -------------------------------------------------
func ListAllRequestsHandler(svc *shiftplan.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, month, err := monthFromQuery(c)
		if err != nil {
			return err
		}

		entries, err := svc.ListAll(year, month)
		if err != nil {
			return shiftplan.FiberError(err)
		}

		resp := make([]shiftplan.ReviewEntryResponse, 0, len(entries))
		for i := range entries {
			resp = append(resp, shiftplan.NewReviewEntryResponse(&entries[i]))
		}

		return c.JSON(fiber.Map{
			"year":     year,
			"month":    month,
			"requests": resp,
		})
	}
}

// -------------------------------------------------
// GET /api/admin/available-months
// -------------------------------------------------
func AvailableMonthsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(shiftplan.AvailableMonths(time.Now()))
	}
}

// -------------------------------------------------
// POST /api/admin/shift-requests/:id/confirm
// -------------------------------------------------
func ToggleConfirmedHandler(svc *shiftplan.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		req, err := svc.ToggleConfirmed(id)
		if err != nil {
			return shiftplan.FiberError(err)
		}

		return c.JSON(shiftplan.NewRequestResponse(req))
	}
}

// -------------------------------------------------
// POST /api/admin/users/:id/confirm-all
// -------------------------------------------------
func ConfirmAllHandler(svc *shiftplan.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		if err != nil {
			return err
		}

		count, err := svc.ConfirmAllForUser(id)
		if err != nil {
			return shiftplan.FiberError(err)
		}

		return c.JSON(fiber.Map{"confirmed_count": count})
	}
}
