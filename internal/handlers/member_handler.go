package handlers

import (
	"context"

	"github.com/2002jaebin-rgb/PTLog/internal/middleware"
	"github.com/2002jaebin-rgb/PTLog/internal/models"
	"github.com/2002jaebin-rgb/PTLog/internal/services"
	"github.com/gofiber/fiber/v2"
)

type MemberHandler struct {
	service memberApplicationService
}

type memberApplicationService interface {
	ListMembers(ctx context.Context, actor models.Identity) ([]models.Member, error)
}

func NewMemberHandler(service *services.MemberService) *MemberHandler {
	return &MemberHandler{service: service}
}

func (h *MemberHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	members, err := h.service.ListMembers(c.Context(), actor)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"members": members})
}
