package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
)

type roleRepo struct{ s *Store }

func (r *roleRepo) Create(ctx context.Context, role *domain.Role) error {
	return r.s.with(ctx, func(st *state) error {
		role.ID = st.next("roles")
		st.roles[role.ID] = *role
		return nil
	})
}

func (r *roleRepo) Update(ctx context.Context, role *domain.Role) error {
	return r.s.with(ctx, func(st *state) error {
		current, ok := st.roles[role.ID]
		if !ok {
			return fmt.Errorf("update role %d: %w", role.ID, repository.ErrNotFound)
		}
		updated := *role
		updated.PersonID = current.PersonID
		updated.TeamID = current.TeamID
		updated.StartDate = current.StartDate
		st.roles[role.ID] = updated
		return nil
	})
}

func (r *roleRepo) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	var out *domain.Role
	err := r.s.with(ctx, func(st *state) error {
		role, ok := st.roles[id]
		if !ok {
			return fmt.Errorf("get role %d: %w", id, repository.ErrNotFound)
		}
		out = &role
		return nil
	})
	return out, err
}

func (r *roleRepo) ListOpenByTeam(ctx context.Context, teamID int64) ([]domain.Role, error) {
	return r.filter(ctx, func(role domain.Role) bool {
		return role.TeamID == teamID && role.IsOpen()
	})
}

func (r *roleRepo) ListOpenByPersonAndTeam(ctx context.Context, personID, teamID int64) ([]domain.Role, error) {
	return r.filter(ctx, func(role domain.Role) bool {
		return role.PersonID == personID && role.TeamID == teamID && role.IsOpen()
	})
}

func (r *roleRepo) ListByPerson(ctx context.Context, personID int64) ([]domain.Role, error) {
	roles, err := r.filter(ctx, func(role domain.Role) bool { return role.PersonID == personID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(roles, func(i, j int) bool {
		if !roles[i].StartDate.Equal(roles[j].StartDate) {
			return roles[i].StartDate.After(roles[j].StartDate)
		}
		return roles[i].ID > roles[j].ID
	})
	return roles, nil
}

func (r *roleRepo) AppendSupervisorChange(ctx context.Context, entry *domain.RoleSupervisorHistory) error {
	return r.s.with(ctx, func(st *state) error {
		entry.ID = st.next("role_supervisor_history")
		st.supervisors = append(st.supervisors, *entry)
		return nil
	})
}

func (r *roleRepo) ListSupervisorHistory(ctx context.Context, roleID int64) ([]domain.RoleSupervisorHistory, error) {
	var out []domain.RoleSupervisorHistory
	err := r.s.with(ctx, func(st *state) error {
		for _, entry := range st.supervisors {
			if entry.RoleID == roleID {
				out = append(out, entry)
			}
		}
		return nil
	})
	return out, err
}

func (r *roleRepo) filter(ctx context.Context, keep func(domain.Role) bool) ([]domain.Role, error) {
	var out []domain.Role
	err := r.s.with(ctx, func(st *state) error {
		for _, role := range st.roles {
			if keep(role) {
				out = append(out, role)
			}
		}
		return nil
	})
	return sortRoles(out), err
}
