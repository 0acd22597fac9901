package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/orgchart-service/internal/api/dto"
	"github.com/spec-kit/orgchart-service/internal/auth"
	"github.com/spec-kit/orgchart-service/internal/domain"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// actorID returns the person behind the request.
func actorID(c *fiber.Ctx) (int64, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Person == nil {
		return 0, apperrors.NewUnauthorized("person required")
	}
	return principal.Person.ID, nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid path parameter", map[string]any{name: c.Params(name)})
	}
	return id, nil
}

func queryID(c *fiber.Ctx, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.NewValidationError("invalid query parameter", map[string]any{name: raw})
	}
	return &id, nil
}

// parseBody decodes and validates a JSON request body.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(dst)
}

// parseOptionalBody is parseBody for verbs whose body may be empty.
func parseOptionalBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return parseBody(c, dst)
}

func created(c *fiber.Ctx, data any, commit *domain.Commit) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data, "commit": commitResponse(commit)})
}

func withCommit(c *fiber.Ctx, data any, commit *domain.Commit) error {
	return c.JSON(fiber.Map{"data": data, "commit": commitResponse(commit)})
}

// commitResponse renders null when a no-op write left no commit behind.
func commitResponse(commit *domain.Commit) *dto.CommitResponse {
	if commit == nil {
		return nil
	}
	resp := dto.NewCommitResponse(commit)
	return &resp
}
