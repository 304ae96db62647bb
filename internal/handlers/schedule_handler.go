package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/2002jaebin-rgb/PTLog/internal/middleware"
	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/internal/services"
	"github.com/2002jaebin-rgb/PTLog/pkg/timegrid"
	"github.com/gofiber/fiber/v2"
)

type ScheduleHandler struct {
	service scheduleApplicationService
	loc     *time.Location
	now     func() time.Time
}

type scheduleApplicationService interface {
	WeekSchedule(ctx context.Context, actor models.Identity, day time.Time) (*models.WeekSchedule, error)
	Preview(ctx context.Context, actor models.Identity, input services.PublishInput) (*services.PublishPreview, error)
	Publish(ctx context.Context, actor models.Identity, input services.PublishInput) (*models.ReconcileResult, error)
	DeleteSessions(ctx context.Context, actor models.Identity, sessionIDs []int64) (*models.DeleteSessionsResult, error)
}

func NewScheduleHandler(service *services.ScheduleService, loc *time.Location) *ScheduleHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ScheduleHandler{service: service, loc: loc, now: time.Now}
}

type publishRequest struct {
	Week           string        `json:"week"`
	Cells          []models.Cell `json:"cells"`
	SessionLength  float64       `json:"session_length"`
	ConfirmReplace bool          `json:"confirm_replace"`
}

type deleteSessionsRequest struct {
	SessionIDs []int64 `json:"session_ids"`
}

// parseDay reads an optional YYYY-MM-DD value; empty means today.
func (h *ScheduleHandler) parseDay(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return h.now().In(h.loc), true
	}
	day, err := timegrid.ParseDate(value, h.loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// publishInput decodes the body; a non-empty message means a bad request.
func (h *ScheduleHandler) publishInput(c *fiber.Ctx) (services.PublishInput, string) {
	var req publishRequest
	if err := c.BodyParser(&req); err != nil {
		return services.PublishInput{}, "Invalid request body"
	}
	week, ok := h.parseDay(req.Week)
	if !ok {
		return services.PublishInput{}, "week must be a YYYY-MM-DD date"
	}
	return services.PublishInput{
		Week:               week,
		Cells:              req.Cells,
		SessionLengthHours: req.SessionLength,
		ConfirmReplace:     req.ConfirmReplace,
	}, ""
}

func (h *ScheduleHandler) GetWeek(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	day, ok := h.parseDay(c.Query("date"))
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "date must be a YYYY-MM-DD date")
	}

	week, err := h.service.WeekSchedule(c.Context(), actor, day)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"schedule": week})
}

func (h *ScheduleHandler) Preview(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	input, problem := h.publishInput(c)
	if problem != "" {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, problem)
	}

	preview, err := h.service.Preview(c.Context(), actor, input)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"preview": preview})
}

func (h *ScheduleHandler) Publish(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	input, problem := h.publishInput(c)
	if problem != "" {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, problem)
	}

	result, err := h.service.Publish(c.Context(), actor, input)
	if err != nil {
		return mapServiceError(c, err)
	}

	if result.Nothing {
		return c.JSON(fiber.Map{
			"result":  result,
			"kind":    kindNothingToDo,
			"message": "nothing new to add",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"result": result})
}

func (h *ScheduleHandler) DeleteSessions(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req deleteSessionsRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "Invalid request body")
	}

	result, err := h.service.DeleteSessions(c.Context(), actor, req.SessionIDs)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"result": result})
}
