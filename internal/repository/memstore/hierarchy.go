package memstore

import (
	"context"
	"fmt"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
)

type corporationRepo struct{ s *Store }

func (r *corporationRepo) Create(ctx context.Context, corp *domain.Corporation) error {
	return r.s.with(ctx, func(st *state) error {
		corp.ID = st.next("corporations")
		if corp.CreatedAt.IsZero() {
			corp.CreatedAt = r.s.now()
		}
		st.corporations[corp.ID] = *corp
		return nil
	})
}

func (r *corporationRepo) Update(ctx context.Context, corp *domain.Corporation) error {
	return r.s.with(ctx, func(st *state) error {
		current, ok := st.corporations[corp.ID]
		if !ok {
			return fmt.Errorf("update corporation %d: %w", corp.ID, repository.ErrNotFound)
		}
		updated := *corp
		updated.CreatedAt = current.CreatedAt
		st.corporations[corp.ID] = updated
		return nil
	})
}

func (r *corporationRepo) GetByID(ctx context.Context, id int64) (*domain.Corporation, error) {
	var out *domain.Corporation
	err := r.s.with(ctx, func(st *state) error {
		corp, ok := st.corporations[id]
		if !ok {
			return fmt.Errorf("get corporation %d: %w", id, repository.ErrNotFound)
		}
		out = &corp
		return nil
	})
	return out, err
}

func (r *corporationRepo) List(ctx context.Context) ([]domain.Corporation, error) {
	var out []domain.Corporation
	err := r.s.with(ctx, func(st *state) error {
		for id := int64(1); id <= st.seq["corporations"]; id++ {
			if corp, ok := st.corporations[id]; ok {
				out = append(out, corp)
			}
		}
		return nil
	})
	return out, err
}

type teamRepo struct{ s *Store }

func (r *teamRepo) Create(ctx context.Context, team *domain.Team) error {
	return r.s.with(ctx, func(st *state) error {
		team.ID = st.next("teams")
		if team.CreatedAt.IsZero() {
			team.CreatedAt = r.s.now()
		}
		st.teams[team.ID] = *team
		return nil
	})
}

func (r *teamRepo) Update(ctx context.Context, team *domain.Team) error {
	return r.s.with(ctx, func(st *state) error {
		current, ok := st.teams[team.ID]
		if !ok {
			return fmt.Errorf("update team %d: %w", team.ID, repository.ErrNotFound)
		}
		updated := *team
		updated.CreatedAt = current.CreatedAt
		st.teams[team.ID] = updated
		return nil
	})
}

func (r *teamRepo) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	var out *domain.Team
	err := r.s.with(ctx, func(st *state) error {
		team, ok := st.teams[id]
		if !ok {
			return fmt.Errorf("get team %d: %w", id, repository.ErrNotFound)
		}
		out = &team
		return nil
	})
	return out, err
}

func (r *teamRepo) ListByCorporation(ctx context.Context, corporationID *int64) ([]domain.Team, error) {
	return r.filter(ctx, func(t domain.Team) bool {
		return domain.EqualID(t.CorporationID, corporationID)
	})
}

func (r *teamRepo) ListChildren(ctx context.Context, parentID int64) ([]domain.Team, error) {
	return r.filter(ctx, func(t domain.Team) bool {
		return t.ParentID != nil && *t.ParentID == parentID
	})
}

func (r *teamRepo) ListTopLevel(ctx context.Context, corporationID int64) ([]domain.Team, error) {
	return r.filter(ctx, func(t domain.Team) bool {
		return t.ParentID == nil && t.CorporationID != nil && *t.CorporationID == corporationID
	})
}

func (r *teamRepo) ListActiveByName(ctx context.Context, corporationID *int64, name string) ([]domain.Team, error) {
	return r.filter(ctx, func(t domain.Team) bool {
		return t.IsActive && t.Name == name && domain.EqualID(t.CorporationID, corporationID)
	})
}

func (r *teamRepo) AddMember(ctx context.Context, teamID, personID int64) error {
	return r.s.with(ctx, func(st *state) error {
		st.members[memberKey{teamID: teamID, personID: personID}] = struct{}{}
		return nil
	})
}

func (r *teamRepo) ListMemberIDs(ctx context.Context, teamID int64) ([]int64, error) {
	ids := []int64{}
	err := r.s.with(ctx, func(st *state) error {
		for key := range st.members {
			if key.teamID == teamID {
				ids = append(ids, key.personID)
			}
		}
		return nil
	})
	sortIDs(ids)
	return ids, err
}

func (r *teamRepo) filter(ctx context.Context, keep func(domain.Team) bool) ([]domain.Team, error) {
	var out []domain.Team
	err := r.s.with(ctx, func(st *state) error {
		for _, team := range st.teams {
			if keep(team) {
				out = append(out, team)
			}
		}
		return nil
	})
	return sortTeams(out), err
}

type personRepo struct{ s *Store }

func (r *personRepo) Create(ctx context.Context, person *domain.Person) error {
	return r.s.with(ctx, func(st *state) error {
		person.ID = st.next("persons")
		if person.CreatedAt.IsZero() {
			person.CreatedAt = r.s.now()
		}
		st.persons[person.ID] = *person
		return nil
	})
}

func (r *personRepo) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	var out *domain.Person
	err := r.s.with(ctx, func(st *state) error {
		person, ok := st.persons[id]
		if !ok {
			return fmt.Errorf("get person %d: %w", id, repository.ErrNotFound)
		}
		out = &person
		return nil
	})
	return out, err
}
