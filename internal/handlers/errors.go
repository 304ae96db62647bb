package handlers

import (
	"errors"

	"github.com/2002jaebin-rgb/PTLog/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Error kinds let clients tell an informational outcome from a refusal,
// a lost race and a failure of the service itself.
const (
	kindNothingToDo = "nothing_to_do"
	kindRejected    = "rejected"
	kindConflict    = "conflict"
	kindSystem      = "system"
)

func errorResponse(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message, "kind": kind})
}

func mapServiceError(c *fiber.Ctx, err error) error {
	var confirmErr *services.ConfirmationRequiredError
	switch {
	case errors.As(err, &confirmErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":       services.ErrConfirmationRequired.Error(),
			"kind":        kindConflict,
			"replaceable": confirmErr.Replaceable,
			"protected":   confirmErr.Protected,
		})
	case errors.Is(err, services.ErrEmptySelection), errors.Is(err, services.ErrInvalidInput):
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return errorResponse(c, fiber.StatusForbidden, kindRejected, "Forbidden")
	case errors.Is(err, services.ErrSessionNotFound):
		return errorResponse(c, fiber.StatusNotFound, kindRejected, "Session not found")
	case errors.Is(err, services.ErrReservationNotFound):
		return errorResponse(c, fiber.StatusNotFound, kindRejected, "Reservation not found")
	case errors.Is(err, services.ErrMemberNotFound):
		return errorResponse(c, fiber.StatusNotFound, kindRejected, "Member not found")
	case errors.Is(err, services.ErrWorkoutLogNotFound):
		return errorResponse(c, fiber.StatusNotFound, kindRejected, "Workout log not found")
	case errors.Is(err, pgx.ErrNoRows):
		return errorResponse(c, fiber.StatusNotFound, kindRejected, "Not found")
	case errors.Is(err, services.ErrSlotTaken),
		errors.Is(err, services.ErrAlreadyPending),
		errors.Is(err, services.ErrAlreadyHandled),
		errors.Is(err, services.ErrSessionUnavailable),
		errors.Is(err, services.ErrAlreadyLogged),
		errors.Is(err, services.ErrLogAlreadyAccepted):
		return errorResponse(c, fiber.StatusConflict, kindConflict, err.Error())
	case errors.Is(err, services.ErrConflict):
		return errorResponse(c, fiber.StatusConflict, kindConflict, "Requested time conflicts with another session")
	case errors.Is(err, services.ErrNoSessionsRemaining), errors.Is(err, services.ErrInvalidStateTransition):
		return errorResponse(c, fiber.StatusUnprocessableEntity, kindRejected, err.Error())
	default:
		return errorResponse(c, fiber.StatusInternalServerError, kindSystem, "Failed to process request")
	}
}

func unauthorized(c *fiber.Ctx) error {
	return errorResponse(c, fiber.StatusUnauthorized, kindRejected, "Invalid token")
}
