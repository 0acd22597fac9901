package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
)

type commitRepo struct{ s *Store }

func (r *commitRepo) Create(ctx context.Context, commit *domain.Commit) error {
	return r.s.with(ctx, func(st *state) error {
		commit.ID = st.next("commits")
		if commit.CreatedAt.IsZero() {
			commit.CreatedAt = r.s.now()
		}
		stored := *commit
		stored.Actions = nil
		st.commits[commit.ID] = stored
		return nil
	})
}

func (r *commitRepo) UpdateMessage(ctx context.Context, id int64, message string) error {
	return r.s.with(ctx, func(st *state) error {
		commit, ok := st.commits[id]
		if !ok {
			return fmt.Errorf("update commit %d: %w", id, repository.ErrNotFound)
		}
		commit.Message = message
		st.commits[id] = commit
		return nil
	})
}

func (r *commitRepo) GetByID(ctx context.Context, id int64) (*domain.Commit, error) {
	var out *domain.Commit
	err := r.s.with(ctx, func(st *state) error {
		commit, ok := st.commits[id]
		if !ok {
			return fmt.Errorf("get commit %d: %w", id, repository.ErrNotFound)
		}
		out = &commit
		return nil
	})
	return out, err
}

func (r *commitRepo) Latest(ctx context.Context) (*domain.Commit, error) {
	commits, err := r.List(ctx, repository.CommitFilter{})
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, fmt.Errorf("latest commit: %w", repository.ErrNotFound)
	}
	return &commits[0], nil
}

func (r *commitRepo) List(ctx context.Context, filter repository.CommitFilter) ([]domain.Commit, error) {
	var out []domain.Commit
	err := r.s.with(ctx, func(st *state) error {
		scoped := map[int64]bool{}
		if filter.CorporationID != nil {
			for _, action := range st.actions {
				if domain.EqualID(action.CorporationID, filter.CorporationID) {
					scoped[action.CommitID] = true
				}
			}
		}
		for id, commit := range st.commits {
			if filter.CorporationID != nil && !scoped[id] {
				continue
			}
			out = append(out, commit)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (r *commitRepo) AppendAction(ctx context.Context, action *domain.CommitAction) error {
	return r.s.with(ctx, func(st *state) error {
		action.ID = st.next("commit_actions")
		action.CreatedAt = r.s.now()
		st.actions = append(st.actions, *action)
		return nil
	})
}

func (r *commitRepo) ListActions(ctx context.Context, commitID int64) ([]domain.CommitAction, error) {
	return r.filter(ctx, func(a domain.CommitAction) bool { return a.CommitID == commitID })
}

func (r *commitRepo) ListActionsBetween(ctx context.Context, fromExclusive, toInclusive int64) ([]domain.CommitAction, error) {
	out, err := r.filter(ctx, func(a domain.CommitAction) bool {
		return a.CommitID > fromExclusive && a.CommitID <= toInclusive
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CommitID != out[j].CommitID {
			return out[i].CommitID < out[j].CommitID
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *commitRepo) filter(ctx context.Context, keep func(domain.CommitAction) bool) ([]domain.CommitAction, error) {
	var out []domain.CommitAction
	err := r.s.with(ctx, func(st *state) error {
		for _, action := range st.actions {
			if keep(action) {
				out = append(out, action)
			}
		}
		return nil
	})
	return out, err
}
