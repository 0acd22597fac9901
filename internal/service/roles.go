package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/events"
	"github.com/spec-kit/orgchart-service/internal/repository"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// RoleEngine applies role assignments and keeps team leaders and supervisor
// pointers consistent with them.
type RoleEngine struct {
	roles        repository.RoleRepository
	persons      repository.PersonRepository
	teams        repository.TeamRepository
	corporations repository.CorporationRepository
	hierarchy    *Hierarchy
	now          func() time.Time
}

// CreateRoleInput describes a new assignment. OldRoleID, when set, is closed first.
type CreateRoleInput struct {
	PersonID       int64
	TeamID         int64
	Designation    domain.RoleDesignation
	SupervisorID   *int64
	OldRoleID      *int64
	JobDescription string
	StartDate      *time.Time
}

// UpdateRoleInput carries optional changes to an open role.
type UpdateRoleInput struct {
	Designation    *domain.RoleDesignation
	SupervisorID   *int64
	JobDescription *string
}

// NewRoleEngine wires the engine.
func NewRoleEngine(repos repository.Repositories, hierarchy *Hierarchy, now func() time.Time) *RoleEngine {
	return &RoleEngine{
		roles:        repos.Roles,
		persons:      repos.Persons,
		teams:        repos.Teams,
		corporations: repos.Corporations,
		hierarchy:    hierarchy,
		now:          now,
	}
}

func (e *RoleEngine) CreateRole(ctx context.Context, in CreateRoleInput) (*domain.Role, error) {
	if !in.Designation.Valid() {
		return nil, apperrors.NewValidationError("unknown role designation", map[string]any{"designation": in.Designation})
	}
	if _, err := e.persons.GetByID(ctx, in.PersonID); err != nil {
		return nil, notFound(err, "person", map[string]any{"person_id": in.PersonID})
	}
	team, err := e.hierarchy.GetTeam(ctx, in.TeamID)
	if err != nil {
		return nil, err
	}
	if !team.IsActive {
		return nil, apperrors.NewValidationError("team is inactive", map[string]any{"team_id": team.ID})
	}

	if in.OldRoleID != nil {
		old, err := e.roles.GetByID(ctx, *in.OldRoleID)
		if err != nil {
			return nil, notFound(err, "role", map[string]any{"role_id": *in.OldRoleID})
		}
		if old.PersonID != in.PersonID {
			return nil, apperrors.NewValidationError("old role belongs to another person", map[string]any{"role_id": old.ID})
		}
		if err := e.close(ctx, old); err != nil {
			return nil, err
		}
		// the team may have lost its leader just now
		if team, err = e.hierarchy.GetTeam(ctx, in.TeamID); err != nil {
			return nil, err
		}
	}

	open, err := e.roles.ListOpenByPersonAndTeam(ctx, in.PersonID, team.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(open) > 0 {
		return nil, apperrors.NewInvariantViolation("person already holds an open role on this team", map[string]any{
			"person_id": in.PersonID,
			"team_id":   team.ID,
			"role_id":   open[0].ID,
		})
	}

	supervisor := in.SupervisorID
	if supervisor != nil {
		if err := e.checkSupervisor(ctx, *supervisor); err != nil {
			return nil, err
		}
	} else {
		if supervisor, err = e.defaultSupervisor(ctx, team, in.Designation, in.PersonID); err != nil {
			return nil, err
		}
	}

	isHR, err := e.isHRTeam(ctx, team)
	if err != nil {
		return nil, err
	}
	start := e.now()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	role := &domain.Role{
		PersonID:       in.PersonID,
		TeamID:         team.ID,
		Designation:    in.Designation,
		SupervisorID:   supervisor,
		StartDate:      start,
		JobDescription: strings.TrimSpace(in.JobDescription),
		IsHRRole:       isHR,
	}
	if err := e.roles.Create(ctx, role); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.teams.AddMember(ctx, team.ID, in.PersonID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if role.Designation == domain.RoleHead {
		if err := e.promote(ctx, team, role); err != nil {
			return nil, err
		}
	}
	emitRole(ctx, role)
	return role, nil
}

// UpdateRole changes an open role of personID. Designation changes run the
// leader bookkeeping before an explicit supervisor is applied.
func (e *RoleEngine) UpdateRole(ctx context.Context, personID, roleID int64, in UpdateRoleInput) (*domain.Role, error) {
	role, err := e.ownedRole(ctx, personID, roleID)
	if err != nil {
		return nil, err
	}
	if !role.IsOpen() {
		return nil, apperrors.NewValidationError("role is closed", map[string]any{"role_id": roleID})
	}
	team, err := e.hierarchy.GetTeam(ctx, role.TeamID)
	if err != nil {
		return nil, err
	}

	if in.Designation != nil && *in.Designation != role.Designation {
		if !in.Designation.Valid() {
			return nil, apperrors.NewValidationError("unknown role designation", map[string]any{"designation": *in.Designation})
		}
		if !team.IsActive {
			return nil, apperrors.NewValidationError("team is inactive", map[string]any{"team_id": team.ID})
		}
		previous := role.Designation
		role.Designation = *in.Designation
		if err := e.roles.Update(ctx, role); err != nil {
			return nil, apperrors.MapError(err)
		}
		switch {
		case role.Designation == domain.RoleHead:
			if err := e.promote(ctx, team, role); err != nil {
				return nil, err
			}
		case previous == domain.RoleHead:
			if err := e.demote(ctx, team, role.PersonID, role.ID); err != nil {
				return nil, err
			}
		}
		if role, err = e.roles.GetByID(ctx, role.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	if in.SupervisorID != nil && !domain.EqualID(role.SupervisorID, in.SupervisorID) {
		if err := e.checkSupervisor(ctx, *in.SupervisorID); err != nil {
			return nil, err
		}
		if err := e.changeSupervisor(ctx, role, in.SupervisorID); err != nil {
			return nil, err
		}
	}

	if in.JobDescription != nil {
		role.JobDescription = strings.TrimSpace(*in.JobDescription)
		if err := e.roles.Update(ctx, role); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	emitRole(ctx, role)
	return role, nil
}

// CloseRole ends a role now. Closing a closed role is a no-op.
func (e *RoleEngine) CloseRole(ctx context.Context, personID, roleID int64) (*domain.Role, error) {
	role, err := e.ownedRole(ctx, personID, roleID)
	if err != nil {
		return nil, err
	}
	if !role.IsOpen() {
		return role, nil
	}
	if err := e.close(ctx, role); err != nil {
		return nil, err
	}
	emitRole(ctx, role)
	return role, nil
}

// RolesOf lists every role a person held, newest first.
func (e *RoleEngine) RolesOf(ctx context.Context, personID int64) ([]domain.Role, error) {
	if _, err := e.persons.GetByID(ctx, personID); err != nil {
		return nil, notFound(err, "person", map[string]any{"person_id": personID})
	}
	roles, err := e.roles.ListByPerson(ctx, personID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return roles, nil
}

// SupervisorHistory lists supervisor changes of a person's role, oldest first.
func (e *RoleEngine) SupervisorHistory(ctx context.Context, personID, roleID int64) ([]domain.RoleSupervisorHistory, error) {
	role, err := e.ownedRole(ctx, personID, roleID)
	if err != nil {
		return nil, err
	}
	entries, err := e.roles.ListSupervisorHistory(ctx, role.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// promote makes the role's person the team leader. Other open roles on the
// team report to the new leader; the previous leader's open role is closed.
// Child team heads and leaderless child teams report to the new leader too.
func (e *RoleEngine) promote(ctx context.Context, team *domain.Team, role *domain.Role) error {
	previous := team.LeaderID
	leader := role.PersonID
	team.LeaderID = &leader
	if err := e.teams.Update(ctx, team); err != nil {
		return apperrors.MapError(err)
	}

	open, err := e.roles.ListOpenByTeam(ctx, team.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for i := range open {
		other := open[i]
		if other.ID == role.ID {
			continue
		}
		if previous != nil && *previous != leader && other.PersonID == *previous {
			end := e.now()
			other.EndDate = &end
			if err := e.roles.Update(ctx, &other); err != nil {
				return apperrors.MapError(err)
			}
			continue
		}
		if other.PersonID == leader || domain.EqualID(other.SupervisorID, &leader) {
			continue
		}
		if err := e.changeSupervisor(ctx, &other, domain.IDPtr(leader)); err != nil {
			return err
		}
	}
	return e.repointChildren(ctx, team, domain.IDPtr(leader))
}

// demote clears the leader when personID leads the team and points the
// remaining open roles at the parent team's leader. Roles on child teams
// that reported to the old leader lose their supervisor.
func (e *RoleEngine) demote(ctx context.Context, team *domain.Team, personID, roleID int64) error {
	if team.LeaderID == nil || *team.LeaderID != personID {
		return nil
	}
	team.LeaderID = nil
	if err := e.teams.Update(ctx, team); err != nil {
		return apperrors.MapError(err)
	}

	fallback, err := e.parentLeader(ctx, team)
	if err != nil {
		return err
	}
	open, err := e.roles.ListOpenByTeam(ctx, team.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for i := range open {
		other := open[i]
		if other.ID == roleID || domain.EqualID(other.SupervisorID, fallback) {
			continue
		}
		if err := e.changeSupervisor(ctx, &other, fallback); err != nil {
			return err
		}
	}
	return e.repointChildren(ctx, team, nil)
}

// repointChildren updates the roles of child teams that report to team's
// leader: every child head, and everyone on a child team without a leader.
func (e *RoleEngine) repointChildren(ctx context.Context, team *domain.Team, supervisor *int64) error {
	children, err := e.hierarchy.ChildrenOf(ctx, team.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if !child.IsActive {
			continue
		}
		open, err := e.roles.ListOpenByTeam(ctx, child.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		for i := range open {
			role := open[i]
			if role.Designation != domain.RoleHead && child.LeaderID != nil {
				continue
			}
			target := supervisor
			if target != nil && *target == role.PersonID {
				target = nil
			}
			if domain.EqualID(role.SupervisorID, target) {
				continue
			}
			if err := e.changeSupervisor(ctx, &role, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *RoleEngine) close(ctx context.Context, role *domain.Role) error {
	if !role.IsOpen() {
		return nil
	}
	end := e.now()
	role.EndDate = &end
	if err := e.roles.Update(ctx, role); err != nil {
		return apperrors.MapError(err)
	}
	if role.Designation != domain.RoleHead {
		return nil
	}
	team, err := e.hierarchy.GetTeam(ctx, role.TeamID)
	if err != nil {
		return err
	}
	return e.demote(ctx, team, role.PersonID, role.ID)
}

func (e *RoleEngine) changeSupervisor(ctx context.Context, role *domain.Role, supervisor *int64) error {
	old := role.SupervisorID
	role.SupervisorID = supervisor
	if err := e.roles.Update(ctx, role); err != nil {
		return apperrors.MapError(err)
	}
	if err := e.roles.AppendSupervisorChange(ctx, &domain.RoleSupervisorHistory{
		RoleID:          role.ID,
		OldSupervisorID: old,
		NewSupervisorID: supervisor,
		ChangedAt:       e.now(),
	}); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// defaultSupervisor: members report to the team leader, falling back to the
// parent team's leader; heads report to the parent team's leader.
func (e *RoleEngine) defaultSupervisor(ctx context.Context, team *domain.Team, designation domain.RoleDesignation, personID int64) (*int64, error) {
	if designation == domain.RoleMember && team.LeaderID != nil && *team.LeaderID != personID {
		return domain.IDPtr(*team.LeaderID), nil
	}
	return e.parentLeader(ctx, team)
}

func (e *RoleEngine) parentLeader(ctx context.Context, team *domain.Team) (*int64, error) {
	if team.ParentID == nil {
		return nil, nil
	}
	parent, err := e.hierarchy.GetTeam(ctx, *team.ParentID)
	if err != nil {
		return nil, err
	}
	if parent.LeaderID == nil {
		return nil, nil
	}
	return domain.IDPtr(*parent.LeaderID), nil
}

func (e *RoleEngine) isHRTeam(ctx context.Context, team *domain.Team) (bool, error) {
	if team.CorporationID == nil {
		return false, nil
	}
	corp, err := e.hierarchy.GetCorporation(ctx, *team.CorporationID)
	if err != nil {
		return false, err
	}
	return corp.HRTeamID != nil && *corp.HRTeamID == team.ID, nil
}

func (e *RoleEngine) checkSupervisor(ctx context.Context, personID int64) error {
	if _, err := e.persons.GetByID(ctx, personID); err != nil {
		if errorIsNotFound(err) {
			return apperrors.NewValidationError("supervisor does not exist", map[string]any{"supervisor_id": personID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (e *RoleEngine) ownedRole(ctx context.Context, personID, roleID int64) (*domain.Role, error) {
	role, err := e.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, notFound(err, "role", map[string]any{"role_id": roleID})
	}
	if role.PersonID != personID {
		return nil, apperrors.NewNotFound("role", map[string]any{"role_id": roleID, "person_id": personID})
	}
	return role, nil
}

func emitRole(ctx context.Context, role *domain.Role) {
	emit(ctx, events.Event{
		Type:     events.EventRoleChanged,
		TargetID: role.TeamID,
		Target:   domain.EntityTeam,
		Payload: events.RoleChangedPayload{
			RoleID:       role.ID,
			PersonID:     role.PersonID,
			TeamID:       role.TeamID,
			Designation:  role.Designation,
			SupervisorID: role.SupervisorID,
			Closed:       !role.IsOpen(),
		},
	})
}
