package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/orgchart-service/internal/service"
)

// RestoreHandler serves point-in-time snapshots. Nothing is written.
type RestoreHandler struct {
	service *service.OrgService
}

func NewRestoreHandler(orgService *service.OrgService) *RestoreHandler {
	return &RestoreHandler{service: orgService}
}

// Corporation GET /restore/corp/:commit_id/:c_id.
func (h *RestoreHandler) Corporation(c *fiber.Ctx) error {
	commitID, err := paramID(c, "commit_id")
	if err != nil {
		return err
	}
	id, err := paramID(c, "c_id")
	if err != nil {
		return err
	}
	snapshot, err := h.service.CorporationAsOf(c.UserContext(), id, commitID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}

// Team GET /restore/team/:commit_id/:t_id.
func (h *RestoreHandler) Team(c *fiber.Ctx) error {
	commitID, err := paramID(c, "commit_id")
	if err != nil {
		return err
	}
	id, err := paramID(c, "t_id")
	if err != nil {
		return err
	}
	snapshot, err := h.service.TeamAsOf(c.UserContext(), id, commitID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}
