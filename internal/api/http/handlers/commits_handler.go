package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/orgchart-service/internal/api/dto"
	"github.com/spec-kit/orgchart-service/internal/service"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// CommitsHandler serves commit log endpoints.
type CommitsHandler struct {
	service *service.OrgService
}

func NewCommitsHandler(orgService *service.OrgService) *CommitsHandler {
	return &CommitsHandler{service: orgService}
}

// List GET /commit/list?corp_id=.
func (h *CommitsHandler) List(c *fiber.Ctx) error {
	corpID, err := queryID(c, "corp_id")
	if err != nil {
		return err
	}
	commits, err := h.service.ListCommits(c.UserContext(), corpID)
	if err != nil {
		return err
	}
	items := make([]dto.CommitResponse, 0, len(commits))
	for i := range commits {
		items = append(items, dto.NewCommitResponse(&commits[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Latest GET /commit/latest.
func (h *CommitsHandler) Latest(c *fiber.Ctx) error {
	commit, err := h.service.LatestCommit(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommitResponse(commit)})
}

// Get GET /commit/:commit_id.
func (h *CommitsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "commit_id")
	if err != nil {
		return err
	}
	commit, err := h.service.GetCommit(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommitResponse(commit)})
}

// Compare GET /commit/compare?from=&to=.
func (h *CommitsHandler) Compare(c *fiber.Ctx) error {
	from, err := queryID(c, "from")
	if err != nil {
		return err
	}
	to, err := queryID(c, "to")
	if err != nil {
		return err
	}
	if from == nil || to == nil {
		return apperrors.NewValidationError("from and to are required", nil)
	}
	diff, err := h.service.CompareCommits(c.UserContext(), *from, *to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CommitDiffResponse{
		From:    diff.From,
		To:      diff.To,
		Actions: dto.NewCommitActionResponses(diff.Actions),
	}})
}

// Annotate PATCH /commit/:commit_id.
func (h *CommitsHandler) Annotate(c *fiber.Ctx) error {
	if _, err := actorID(c); err != nil {
		return err
	}
	id, err := paramID(c, "commit_id")
	if err != nil {
		return err
	}
	var req dto.AnnotateCommitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	commit, err := h.service.AnnotateCommit(c.UserContext(), id, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommitResponse(commit)})
}
