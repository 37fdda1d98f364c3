package shiftplan

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNotFound      = errors.New("Wunsch nicht gefunden")
	ErrUserNotFound  = errors.New("Benutzer nicht gefunden")
	ErrForbidden     = errors.New("Nicht autorisiert")
	ErrDuplicateDate = errors.New("Sie haben bereits einen Wunsch für dieses Datum eingereicht")
	ErrPastDate      = errors.New("Das Datum darf nicht in der Vergangenheit liegen")
	ErrValidation    = errors.New("Ungültige Eingabe")
)

// FiberError übersetzt Service-Fehler in HTTP-Antworten. Unerwartete
// Speicherfehler gehen ohne Details nach außen.
func FiberError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrDuplicateDate), errors.Is(err, ErrPastDate), errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Unerwarteter Serverfehler")
	}
}
