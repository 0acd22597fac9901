package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/orgchart-service/internal/api/dto"
	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/service"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// TeamsHandler serves team endpoints.
type TeamsHandler struct {
	service *service.OrgService
}

func NewTeamsHandler(orgService *service.OrgService) *TeamsHandler {
	return &TeamsHandler{service: orgService}
}

// Create POST /team.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTeamRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	team, commit, err := h.service.CreateTeam(c.UserContext(), actor, req.Commit.Selector(), service.CreateTeamInput{
		Name:          req.Name,
		ParentIDs:     req.ParentTeams,
		CorporationID: req.CorporationID,
	})
	if err != nil {
		return err
	}
	return h.respondDetail(c, fiber.StatusCreated, team.ID, commit)
}

// Get GET /team/:t_id.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "t_id")
	if err != nil {
		return err
	}
	detail, err := h.service.GetTeam(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(detail)})
}

// Update PATCH /team/:t_id renames and/or reparents.
func (h *TeamsHandler) Update(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "t_id")
	if err != nil {
		return err
	}
	var req dto.UpdateTeamRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.UpdateTeamInput{Name: req.Name}
	if req.ParentTeams != nil {
		parents := *req.ParentTeams
		if len(parents) > 1 {
			return apperrors.NewValidationError("a team has at most one parent team", map[string]any{"parent_teams": parents})
		}
		in.Reparent = true
		if len(parents) == 1 {
			in.ParentID = &parents[0]
		}
	}
	team, commit, err := h.service.UpdateTeam(c.UserContext(), actor, id, req.Commit.Selector(), in)
	if err != nil {
		return err
	}
	return h.respondDetail(c, fiber.StatusOK, team.ID, commit)
}

// Deactivate DELETE /team/:t_id.
func (h *TeamsHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "t_id")
	if err != nil {
		return err
	}
	var req dto.CommitOnlyRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ids, commit, err := h.service.DeactivateTeam(c.UserContext(), actor, id, req.Commit.Selector())
	if err != nil {
		return err
	}
	return withCommit(c, dto.DeactivationResponse{DeactivatedTeams: ids}, commit)
}

// respondDetail answers a write with the team's fresh detail view.
func (h *TeamsHandler) respondDetail(c *fiber.Ctx, status int, teamID int64, commit *domain.Commit) error {
	detail, err := h.service.GetTeam(c.UserContext(), teamID)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{"data": teamResponse(detail), "commit": commitResponse(commit)})
}

func teamResponse(detail *service.TeamDetail) dto.TeamResponse {
	return dto.NewTeamResponse(&detail.Team, detail.Ancestors, detail.SubTeams, detail.MemberIDs)
}
