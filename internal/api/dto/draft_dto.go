package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// SaveDraftRequest payload. d_id, when given, overwrites that draft.
type SaveDraftRequest struct {
	ID            *int64          `json:"d_id" validate:"omitempty,gt=0"`
	CorporationID *int64          `json:"corporation" validate:"omitempty,gt=0"`
	Title         string          `json:"title" validate:"required,max=200"`
	Payload       json.RawMessage `json:"payload" validate:"required"`
}

// DraftResponse represents a saved draft.
type DraftResponse struct {
	ID            int64           `json:"d_id"`
	PersonID      int64           `json:"p_id"`
	CorporationID *int64          `json:"corporation"`
	Title         string          `json:"title"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func NewDraftResponse(draft *domain.Draft) DraftResponse {
	return DraftResponse{
		ID:            draft.ID,
		PersonID:      draft.PersonID,
		CorporationID: draft.CorporationID,
		Title:         draft.Title,
		Payload:       draft.Payload,
		CreatedAt:     draft.CreatedAt,
		UpdatedAt:     draft.UpdatedAt,
	}
}
