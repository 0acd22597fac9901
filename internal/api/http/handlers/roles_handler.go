package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/orgchart-service/internal/api/dto"
	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/service"
)

// RolesHandler serves a person's roles.
type RolesHandler struct {
	service *service.OrgService
}

func NewRolesHandler(orgService *service.OrgService) *RolesHandler {
	return &RolesHandler{service: orgService}
}

// List GET /roles/:p_id.
func (h *RolesHandler) List(c *fiber.Ctx) error {
	personID, err := paramID(c, "p_id")
	if err != nil {
		return err
	}
	roles, err := h.service.RolesOf(c.UserContext(), personID)
	if err != nil {
		return err
	}
	items := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		items = append(items, dto.NewRoleResponse(&roles[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /roles/:p_id.
func (h *RolesHandler) Create(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	personID, err := paramID(c, "p_id")
	if err != nil {
		return err
	}
	var req dto.CreateRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	role, err := h.service.CreateRole(c.UserContext(), actor, service.CreateRoleInput{
		PersonID:       personID,
		TeamID:         req.TeamID,
		Designation:    domain.RoleDesignation(req.Designation),
		SupervisorID:   req.SupervisorID,
		OldRoleID:      req.OldRoleID,
		JobDescription: req.JobDescription,
		StartDate:      req.StartDate,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewRoleResponse(role)})
}

// Update PATCH /roles/:p_id/:r_id.
func (h *RolesHandler) Update(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	personID, roleID, err := roleParams(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.UpdateRoleInput{SupervisorID: req.SupervisorID, JobDescription: req.JobDescription}
	if req.Designation != nil {
		designation := domain.RoleDesignation(*req.Designation)
		in.Designation = &designation
	}
	role, err := h.service.UpdateRole(c.UserContext(), actor, personID, roleID, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoleResponse(role)})
}

// Close DELETE /roles/:p_id/:r_id.
func (h *RolesHandler) Close(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	personID, roleID, err := roleParams(c)
	if err != nil {
		return err
	}
	role, err := h.service.CloseRole(c.UserContext(), actor, personID, roleID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoleResponse(role)})
}

// Supervisors GET /roles/:p_id/:r_id/supervisors.
func (h *RolesHandler) Supervisors(c *fiber.Ctx) error {
	personID, roleID, err := roleParams(c)
	if err != nil {
		return err
	}
	entries, err := h.service.SupervisorHistory(c.UserContext(), personID, roleID)
	if err != nil {
		return err
	}
	items := make([]dto.SupervisorChangeResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.NewSupervisorChangeResponse(e))
	}
	return c.JSON(fiber.Map{"data": items})
}

func roleParams(c *fiber.Ctx) (int64, int64, error) {
	personID, err := paramID(c, "p_id")
	if err != nil {
		return 0, 0, err
	}
	roleID, err := paramID(c, "r_id")
	if err != nil {
		return 0, 0, err
	}
	return personID, roleID, nil
}
