package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrapped(t *testing.T) {
	base := NewNotFound("team", map[string]any{"team_id": int64(4)})
	wrapped := fmt.Errorf("load: %w", base)

	got := ToDomainError(wrapped)
	require.Equal(t, CodeNotFound, got.Code)
	require.Equal(t, http.StatusNotFound, got.HTTPStatus)
	require.Equal(t, "team not found", got.Message)
	require.Equal(t, int64(4), got.Details["team_id"])
}

func TestToDomainError_FiberError(t *testing.T) {
	got := ToDomainError(fiber.NewError(http.StatusForbidden, "nope"))
	require.Equal(t, CodeForbidden, got.Code)
	require.Equal(t, http.StatusForbidden, got.HTTPStatus)
}

func TestToDomainError_UnknownIsInternal(t *testing.T) {
	cause := errors.New("boom")
	got := ToDomainError(cause)
	require.Equal(t, CodeInternal, got.Code)
	require.ErrorIs(t, got, cause)
}

func TestIsCode(t *testing.T) {
	err := NewInvariantViolation("cycle", nil)
	require.True(t, IsCode(err, CodeInvariant))
	require.False(t, IsCode(err, CodeValidation))
	require.False(t, IsCode(errors.New("x"), CodeInvariant))
	require.Nil(t, ToDomainError(nil))
}
