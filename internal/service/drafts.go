package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

const maxDraftPayloadBytes = 1 << 20

// SaveDraftInput creates a draft, or replaces draft ID when set.
type SaveDraftInput struct {
	ID            *int64
	CorporationID *int64
	Title         string
	Payload       json.RawMessage
}

// DraftBook keeps each person's pending reorganizations. Drafts are private
// to their author.
type DraftBook struct {
	drafts    repository.DraftRepository
	hierarchy *Hierarchy
}

func NewDraftBook(drafts repository.DraftRepository, hierarchy *Hierarchy) *DraftBook {
	return &DraftBook{drafts: drafts, hierarchy: hierarchy}
}

func (b *DraftBook) Save(ctx context.Context, personID int64, in SaveDraftInput) (*domain.Draft, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("draft title is required", nil)
	}
	payload, err := compactPayload(in.Payload)
	if err != nil {
		return nil, err
	}
	if in.CorporationID != nil {
		if _, err := b.hierarchy.GetCorporation(ctx, *in.CorporationID); err != nil {
			return nil, err
		}
	}

	if in.ID == nil {
		draft := &domain.Draft{
			PersonID:      personID,
			CorporationID: in.CorporationID,
			Title:         title,
			Payload:       payload,
		}
		if err := b.drafts.Create(ctx, draft); err != nil {
			return nil, apperrors.MapError(err)
		}
		return draft, nil
	}

	draft, err := b.Get(ctx, personID, *in.ID)
	if err != nil {
		return nil, err
	}
	draft.CorporationID = in.CorporationID
	draft.Title = title
	draft.Payload = payload
	if err := b.drafts.Update(ctx, draft); err != nil {
		return nil, notFound(err, "draft", map[string]any{"draft_id": draft.ID})
	}
	return draft, nil
}

// Get returns one of personID's drafts. Another person's draft is reported
// as missing.
func (b *DraftBook) Get(ctx context.Context, personID, draftID int64) (*domain.Draft, error) {
	draft, err := b.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, notFound(err, "draft", map[string]any{"draft_id": draftID})
	}
	if draft.PersonID != personID {
		return nil, apperrors.NewNotFound("draft", map[string]any{"draft_id": draftID})
	}
	return draft, nil
}

func (b *DraftBook) List(ctx context.Context, personID int64, corporationID *int64) ([]domain.Draft, error) {
	drafts, err := b.drafts.ListByPerson(ctx, personID, corporationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return drafts, nil
}

func (b *DraftBook) Delete(ctx context.Context, personID, draftID int64) error {
	if _, err := b.Get(ctx, personID, draftID); err != nil {
		return err
	}
	if err := b.drafts.Delete(ctx, draftID); err != nil {
		return notFound(err, "draft", map[string]any{"draft_id": draftID})
	}
	return nil
}

// compactPayload accepts a JSON object of bounded size and strips its whitespace.
func compactPayload(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) > maxDraftPayloadBytes {
		return nil, apperrors.NewValidationError("draft payload is too large", map[string]any{"max_bytes": maxDraftPayloadBytes})
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, apperrors.NewValidationError("draft payload must be a JSON object", nil)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, apperrors.NewValidationError("draft payload must be a JSON object", nil)
	}
	return buf.Bytes(), nil
}
