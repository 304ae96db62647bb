package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/2002jaebin-rgb/PTLog/internal/middleware"
	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReservationHandler struct {
	service reservationApplicationService
	now     func() time.Time
}

type reservationApplicationService interface {
	RequestReservation(ctx context.Context, actor models.Identity, sessionID int64) (*models.Reservation, error)
	RequestReservationAt(ctx context.Context, actor models.Identity, date string, hhmm string) (*models.Reservation, error)
	AcceptReservation(ctx context.Context, actor models.Identity, reservationID int64, sessionID int64) (*models.Reservation, error)
	RejectReservation(ctx context.Context, actor models.Identity, reservationID int64) (*models.Reservation, error)
	ListPendingForTrainer(ctx context.Context, actor models.Identity, from time.Time) ([]models.ReservationDetail, error)
	ListForMember(ctx context.Context, actor models.Identity) ([]models.ReservationDetail, error)
}

func NewReservationHandler(service *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service, now: time.Now}
}

// createReservationRequest names a session either by id or by calendar cell.
type createReservationRequest struct {
	SessionID int64  `json:"session_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type acceptReservationRequest struct {
	SessionID int64 `json:"session_id"`
}

func parseIDParam(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var req createReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "Invalid request body")
	}

	var (
		reservation *models.Reservation
		err         error
	)
	switch {
	case req.SessionID > 0:
		reservation, err = h.service.RequestReservation(c.Context(), actor, req.SessionID)
	case strings.TrimSpace(req.Date) != "" && strings.TrimSpace(req.Time) != "":
		reservation, err = h.service.RequestReservationAt(c.Context(), actor, strings.TrimSpace(req.Date), strings.TrimSpace(req.Time))
	default:
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "session_id or date and time are required")
	}
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reservation": reservation})
}

func (h *ReservationHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	var (
		reservations []models.ReservationDetail
		err          error
	)
	if actor.IsTrainer() {
		reservations, err = h.service.ListPendingForTrainer(c.Context(), actor, h.now())
	} else {
		reservations, err = h.service.ListForMember(c.Context(), actor)
	}
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"reservations": reservations})
}

func (h *ReservationHandler) Accept(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	reservationID, ok := parseIDParam(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "Invalid reservation id")
	}

	var req acceptReservationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, kindRejected, "Invalid request body")
		}
	}

	reservation, err := h.service.AcceptReservation(c.Context(), actor, reservationID, req.SessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"reservation": reservation})
}

func (h *ReservationHandler) Reject(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	reservationID, ok := parseIDParam(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, kindRejected, "Invalid reservation id")
	}

	reservation, err := h.service.RejectReservation(c.Context(), actor, reservationID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"reservation": reservation})
}
