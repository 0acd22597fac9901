package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/orgchart-service/internal/api/dto"
	"github.com/spec-kit/orgchart-service/internal/service"
)

// DraftsHandler serves the caller's edit drafts.
type DraftsHandler struct {
	service *service.OrgService
}

func NewDraftsHandler(orgService *service.OrgService) *DraftsHandler {
	return &DraftsHandler{service: orgService}
}

// Save POST /edit/draft. Responds 201 for a new draft and 200 for an overwrite.
func (h *DraftsHandler) Save(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var req dto.SaveDraftRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	draft, err := h.service.SaveDraft(c.UserContext(), actor, service.SaveDraftInput{
		ID:            req.ID,
		CorporationID: req.CorporationID,
		Title:         req.Title,
		Payload:       req.Payload,
	})
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if req.ID == nil {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.NewDraftResponse(draft)})
}

// List GET /edit/draft?corp_id=.
func (h *DraftsHandler) List(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	corpID, err := queryID(c, "corp_id")
	if err != nil {
		return err
	}
	drafts, err := h.service.ListDrafts(c.UserContext(), actor, corpID)
	if err != nil {
		return err
	}
	items := make([]dto.DraftResponse, 0, len(drafts))
	for i := range drafts {
		items = append(items, dto.NewDraftResponse(&drafts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /edit/draft/:d_id.
func (h *DraftsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	draftID, err := paramID(c, "d_id")
	if err != nil {
		return err
	}
	draft, err := h.service.GetDraft(c.UserContext(), actor, draftID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDraftResponse(draft)})
}

// Delete DELETE /edit/draft/:d_id.
func (h *DraftsHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	draftID, err := paramID(c, "d_id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteDraft(c.UserContext(), actor, draftID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
