package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/orgchart-service/internal/api/dto"
	"github.com/spec-kit/orgchart-service/internal/service"
)

// CorporationsHandler serves corporation endpoints.
type CorporationsHandler struct {
	service *service.OrgService
}

func NewCorporationsHandler(orgService *service.OrgService) *CorporationsHandler {
	return &CorporationsHandler{service: orgService}
}

// Create POST /corp.
func (h *CorporationsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var req dto.CreateCorporationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	corp, commit, err := h.service.CreateCorporation(c.UserContext(), actor, req.Commit.Selector(), service.CreateCorporationInput{
		Name:     req.Name,
		IsMaster: req.IsMaster,
	})
	if err != nil {
		return err
	}
	return created(c, dto.NewCorporationResponse(corp, nil), commit)
}

// Get GET /corp/:c_id.
func (h *CorporationsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "c_id")
	if err != nil {
		return err
	}
	detail, err := h.service.GetCorporation(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCorporationResponse(&detail.Corporation, detail.SubTeams)})
}

// Tree GET /corp/:c_id/tree.
func (h *CorporationsHandler) Tree(c *fiber.Ctx) error {
	id, err := paramID(c, "c_id")
	if err != nil {
		return err
	}
	tree, err := h.service.CorporationTree(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tree})
}

// Update PATCH /corp/:c_id.
func (h *CorporationsHandler) Update(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "c_id")
	if err != nil {
		return err
	}
	var req dto.UpdateCorporationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	corp, commit, err := h.service.UpdateCorporation(c.UserContext(), actor, id, req.Commit.Selector(), service.PatchCorporationInput{
		Name: req.Name,
		UpdateCorporationInput: service.UpdateCorporationInput{
			IsMaster:    req.IsMaster,
			HRTeamID:    req.HRTeamID,
			ClearHRTeam: req.ClearHRTeam,
		},
	})
	if err != nil {
		return err
	}
	detail, err := h.service.GetCorporation(c.UserContext(), corp.ID)
	if err != nil {
		return err
	}
	return withCommit(c, dto.NewCorporationResponse(&detail.Corporation, detail.SubTeams), commit)
}

// Deactivate DELETE /corp/:c_id.
func (h *CorporationsHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "c_id")
	if err != nil {
		return err
	}
	var req dto.CommitOnlyRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ids, commit, err := h.service.DeactivateCorporation(c.UserContext(), actor, id, req.Commit.Selector())
	if err != nil {
		return err
	}
	return withCommit(c, dto.DeactivationResponse{DeactivatedTeams: ids}, commit)
}
