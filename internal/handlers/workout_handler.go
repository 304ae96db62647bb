package handlers

import (
	"context"

	"github.com/2002jaebin-rgb/PTLog/internal/middleware"
	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type WorkoutHandler struct {
	service workoutApplicationService
}

type workoutApplicationService interface {
	ListLoggableSessions(ctx context.Context, actor models.Identity) ([]models.LoggableSession, error)
	LogWorkout(ctx context.Context, actor models.Identity, input services.LogWorkoutInput) (*models.WorkoutLog, error)
	AcceptLog(ctx context.Context, actor models.Identity, logID int64) (*models.WorkoutLog, error)
	ListMemberLogs(ctx context.Context, actor models.Identity, memberID uuid.UUID) ([]models.WorkoutLog, error)
}

func NewWorkoutHandler(service *services.WorkoutLogService) *WorkoutHandler {
	return &WorkoutHandler{service: service}
}

type logWorkoutRequest struct {
	SessionID int64             `json:"session_id"`
	Notes     *string           `json:"notes"`
	Exercises []models.Exercise `json:"exercises"`
}

func (h *WorkoutHandler) ListLoggable(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	sessions, err := h.service.ListLoggableSessions(c.Context(), actor)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *WorkoutHandler) Log(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req logWorkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "Invalid request body")
	}
	if req.SessionID <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "session_id is required")
	}

	log, err := h.service.LogWorkout(c.Context(), actor, services.LogWorkoutInput{
		SessionID: req.SessionID,
		Notes:     req.Notes,
		Exercises: req.Exercises,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"workout_log": log})
}

// Accept is the member confirming a log; it consumes one session credit.
func (h *WorkoutHandler) Accept(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	logID, ok := parseIDParam(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "Invalid workout log id")
	}

	log, err := h.service.AcceptLog(c.Context(), actor, logID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workout_log": log})
}

func (h *WorkoutHandler) ListMemberLogs(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	memberID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "Invalid member id")
	}

	logs, err := h.service.ListMemberLogs(c.Context(), actor, memberID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"workout_logs": logs})
}
