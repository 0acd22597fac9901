package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
)

type draftRepo struct{ s *Store }

func (r *draftRepo) Create(ctx context.Context, draft *domain.Draft) error {
	return r.s.with(ctx, func(st *state) error {
		draft.ID = st.next("edit_drafts")
		draft.CreatedAt = r.s.now()
		draft.UpdatedAt = draft.CreatedAt
		st.drafts[draft.ID] = copyDraft(*draft)
		return nil
	})
}

func (r *draftRepo) Update(ctx context.Context, draft *domain.Draft) error {
	return r.s.with(ctx, func(st *state) error {
		stored, ok := st.drafts[draft.ID]
		if !ok {
			return fmt.Errorf("update draft %d: %w", draft.ID, repository.ErrNotFound)
		}
		stored.CorporationID = draft.CorporationID
		stored.Title = draft.Title
		stored.Payload = draft.Payload
		stored.UpdatedAt = r.s.now()
		draft.UpdatedAt = stored.UpdatedAt
		st.drafts[draft.ID] = copyDraft(stored)
		return nil
	})
}

func (r *draftRepo) GetByID(ctx context.Context, id int64) (*domain.Draft, error) {
	var out *domain.Draft
	err := r.s.with(ctx, func(st *state) error {
		stored, ok := st.drafts[id]
		if !ok {
			return fmt.Errorf("get draft %d: %w", id, repository.ErrNotFound)
		}
		draft := copyDraft(stored)
		out = &draft
		return nil
	})
	return out, err
}

func (r *draftRepo) ListByPerson(ctx context.Context, personID int64, corporationID *int64) ([]domain.Draft, error) {
	var out []domain.Draft
	err := r.s.with(ctx, func(st *state) error {
		for _, d := range st.drafts {
			if d.PersonID != personID {
				continue
			}
			if corporationID != nil && !domain.EqualID(d.CorporationID, corporationID) {
				continue
			}
			out = append(out, copyDraft(d))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r *draftRepo) Delete(ctx context.Context, id int64) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.drafts[id]; !ok {
			return fmt.Errorf("delete draft %d: %w", id, repository.ErrNotFound)
		}
		delete(st.drafts, id)
		return nil
	})
}

// copyDraft detaches the payload bytes from the caller's slice.
func copyDraft(d domain.Draft) domain.Draft {
	d.Payload = append(json.RawMessage(nil), d.Payload...)
	return d
}
