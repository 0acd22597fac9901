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

// MutationEngine is the only writer of hierarchy state. Every change it makes
// is mirrored into the ledger and recorded as a commit action. Callers run it
// inside a transaction.
type MutationEngine struct {
	corporations   repository.CorporationRepository
	teams          repository.TeamRepository
	roles          repository.RoleRepository
	hierarchy      *Hierarchy
	ledger         *Ledger
	commits        *CommitManager
	rejectDupNames bool
	now            func() time.Time
}

// CreateTeamInput describes a new team.
type CreateTeamInput struct {
	Name          string
	ParentIDs     []int64
	CorporationID *int64
}

// UpdateCorporationInput carries the non-structural corporation fields.
type UpdateCorporationInput struct {
	IsMaster    *bool
	HRTeamID    *int64
	ClearHRTeam bool
}

// NewMutationEngine wires the engine over the shared repositories.
func NewMutationEngine(repos repository.Repositories, hierarchy *Hierarchy, ledger *Ledger, commits *CommitManager, rejectDupNames bool, now func() time.Time) *MutationEngine {
	return &MutationEngine{
		corporations:   repos.Corporations,
		teams:          repos.Teams,
		roles:          repos.Roles,
		hierarchy:      hierarchy,
		ledger:         ledger,
		commits:        commits,
		rejectDupNames: rejectDupNames,
		now:            now,
	}
}

func (e *MutationEngine) CreateCorporation(ctx context.Context, commit *domain.Commit, name string, isMaster bool) (*domain.Corporation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	corp := &domain.Corporation{Name: name, IsActive: true, IsMaster: isMaster}
	if err := e.corporations.Create(ctx, corp); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.ledger.RecordNameChange(ctx, domain.EntityCorporation, corp.ID, corp.Name, commit); err != nil {
		return nil, err
	}
	if err := e.commits.RecordAction(ctx, commit, domain.CommitAction{
		Action:        domain.ActionCreate,
		TargetKind:    domain.EntityCorporation,
		TargetID:      corp.ID,
		CorporationID: &corp.ID,
		NewName:       namePtr(corp.Name),
	}); err != nil {
		return nil, err
	}
	emit(ctx, events.Event{
		Type:     events.EventCorporationCreated,
		Target:   domain.EntityCorporation,
		TargetID: corp.ID,
		Payload:  events.CorporationPayload{Name: corp.Name, IsActive: true, IsMaster: corp.IsMaster},
	})
	return corp, nil
}

func (e *MutationEngine) RenameCorporation(ctx context.Context, commit *domain.Commit, corpID int64, newName string) (*domain.Corporation, error) {
	corp, err := e.hierarchy.GetCorporation(ctx, corpID)
	if err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if !corp.IsActive {
		return nil, apperrors.NewValidationError("corporation is inactive", map[string]any{"corporation_id": corpID})
	}
	if corp.Name == newName {
		return corp, nil
	}

	oldName := corp.Name
	corp.Name = newName
	if err := e.corporations.Update(ctx, corp); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.ledger.RecordNameChange(ctx, domain.EntityCorporation, corp.ID, newName, commit); err != nil {
		return nil, err
	}
	if err := e.commits.RecordAction(ctx, commit, domain.CommitAction{
		Action:        domain.ActionUpdate,
		TargetKind:    domain.EntityCorporation,
		TargetID:      corp.ID,
		CorporationID: &corp.ID,
		OldName:       namePtr(oldName),
		NewName:       namePtr(newName),
	}); err != nil {
		return nil, err
	}
	emit(ctx, events.Event{
		Type:     events.EventCorporationUpdated,
		Target:   domain.EntityCorporation,
		TargetID: corp.ID,
		Payload:  events.CorporationPayload{Name: corp.Name, IsActive: corp.IsActive, IsMaster: corp.IsMaster},
	})
	return corp, nil
}

// UpdateCorporation changes fields that are not tracked by the ledger.
func (e *MutationEngine) UpdateCorporation(ctx context.Context, corpID int64, in UpdateCorporationInput) (*domain.Corporation, error) {
	corp, err := e.hierarchy.GetCorporation(ctx, corpID)
	if err != nil {
		return nil, err
	}
	if !corp.IsActive {
		return nil, apperrors.NewValidationError("corporation is inactive", map[string]any{"corporation_id": corpID})
	}
	if in.IsMaster != nil {
		corp.IsMaster = *in.IsMaster
	}
	switch {
	case in.ClearHRTeam:
		corp.HRTeamID = nil
	case in.HRTeamID != nil:
		team, err := e.teams.GetByID(ctx, *in.HRTeamID)
		if err != nil {
			return nil, notFound(err, "team", map[string]any{"team_id": *in.HRTeamID})
		}
		if team.CorporationID == nil || *team.CorporationID != corp.ID || !team.IsActive {
			return nil, apperrors.NewValidationError("hr team must be an active team of the corporation", map[string]any{"team_id": team.ID})
		}
		corp.HRTeamID = &team.ID
	}
	if err := e.corporations.Update(ctx, corp); err != nil {
		return nil, apperrors.MapError(err)
	}
	emit(ctx, events.Event{
		Type:     events.EventCorporationUpdated,
		Target:   domain.EntityCorporation,
		TargetID: corp.ID,
		Payload:  events.CorporationPayload{Name: corp.Name, IsActive: corp.IsActive, IsMaster: corp.IsMaster},
	})
	return corp, nil
}

// DeactivateCorporation soft-deletes the corporation and every team it owns.
// It returns the ids of the teams switched off; an inactive corporation is left alone.
func (e *MutationEngine) DeactivateCorporation(ctx context.Context, commit *domain.Commit, corpID int64) ([]int64, error) {
	corp, err := e.hierarchy.GetCorporation(ctx, corpID)
	if err != nil {
		return nil, err
	}
	if !corp.IsActive {
		return nil, nil
	}

	now := e.now()
	corp.IsActive = false
	corp.DeletedAt = &now
	if err := e.corporations.Update(ctx, corp); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.ledger.RecordNameChange(ctx, domain.EntityCorporation, corp.ID, "", commit); err != nil {
		return nil, err
	}
	if err := e.commits.RecordAction(ctx, commit, domain.CommitAction{
		Action:        domain.ActionDelete,
		TargetKind:    domain.EntityCorporation,
		TargetID:      corp.ID,
		CorporationID: &corp.ID,
		OldName:       namePtr(corp.Name),
	}); err != nil {
		return nil, err
	}

	teams, err := e.teams.ListByCorporation(ctx, &corp.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	var deactivated []int64
	for _, t := range teams {
		// top-level trees first; their cascades cover the nested teams
		if t.ParentID != nil {
			continue
		}
		ids, err := e.DeactivateTeam(ctx, commit, t.ID)
		if err != nil {
			return nil, err
		}
		deactivated = append(deactivated, ids...)
	}
	// anything still active was detached from the forest
	for _, t := range teams {
		if t.ParentID == nil {
			continue
		}
		ids, err := e.DeactivateTeam(ctx, commit, t.ID)
		if err != nil {
			return nil, err
		}
		deactivated = append(deactivated, ids...)
	}

	emit(ctx, events.Event{
		Type:     events.EventCorporationDeactivated,
		Target:   domain.EntityCorporation,
		TargetID: corp.ID,
		Payload:  events.DeactivatedPayload{TeamIDs: nonNilIDs(deactivated)},
	})
	return deactivated, nil
}

func (e *MutationEngine) CreateTeam(ctx context.Context, commit *domain.Commit, in CreateTeamInput) (*domain.Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if len(in.ParentIDs) > 1 {
		return nil, apperrors.NewValidationError("a team has at most one parent team", map[string]any{"parent_teams": in.ParentIDs})
	}

	team := &domain.Team{Name: name, CorporationID: in.CorporationID, IsActive: true}
	if len(in.ParentIDs) == 1 {
		parentID := in.ParentIDs[0]
		parent, err := e.teams.GetByID(ctx, parentID)
		if err != nil {
			if errorIsNotFound(err) {
				return nil, apperrors.NewValidationError("parent team does not exist", map[string]any{"parent_team_id": parentID})
			}
			return nil, apperrors.MapError(err)
		}
		if !parent.IsActive {
			return nil, apperrors.NewValidationError("parent team is inactive", map[string]any{"parent_team_id": parentID})
		}
		if in.CorporationID == nil {
			team.CorporationID = parent.CorporationID
		} else if !domain.EqualID(in.CorporationID, parent.CorporationID) {
			return nil, apperrors.NewValidationError("parent team belongs to another corporation", map[string]any{"parent_team_id": parentID})
		}
		team.ParentID = &parent.ID
	}
	if team.CorporationID == nil {
		return nil, apperrors.NewValidationError("corporation or parent team is required", nil)
	}
	corp, err := e.hierarchy.GetCorporation(ctx, *team.CorporationID)
	if err != nil {
		return nil, err
	}
	if !corp.IsActive {
		return nil, apperrors.NewValidationError("corporation is inactive", map[string]any{"corporation_id": corp.ID})
	}
	if err := e.checkDuplicateName(ctx, team.CorporationID, name, 0); err != nil {
		return nil, err
	}

	if err := e.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.ledger.RecordNameChange(ctx, domain.EntityTeam, team.ID, team.Name, commit); err != nil {
		return nil, err
	}
	if team.ParentID != nil {
		if err := e.ledger.RecordParentChange(ctx, team.ID, team.ParentID, commit); err != nil {
			return nil, err
		}
	}
	if err := e.commits.RecordAction(ctx, commit, domain.CommitAction{
		Action:        domain.ActionCreate,
		TargetKind:    domain.EntityTeam,
		TargetID:      team.ID,
		CorporationID: team.CorporationID,
		NewName:       namePtr(team.Name),
		NewParentID:   team.ParentID,
	}); err != nil {
		return nil, err
	}
	emit(ctx, events.Event{
		Type:     events.EventTeamCreated,
		Target:   domain.EntityTeam,
		TargetID: team.ID,
		Payload: events.TeamChangedPayload{
			CorporationID: team.CorporationID,
			NewName:       namePtr(team.Name),
			NewParentID:   team.ParentID,
		},
	})
	return team, nil
}

func (e *MutationEngine) RenameTeam(ctx context.Context, commit *domain.Commit, teamID int64, newName string) (*domain.Team, error) {
	team, err := e.activeTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if team.Name == newName {
		return team, nil
	}
	if err := e.checkDuplicateName(ctx, team.CorporationID, newName, team.ID); err != nil {
		return nil, err
	}

	oldName := team.Name
	team.Name = newName
	if err := e.teams.Update(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := e.ledger.RecordNameChange(ctx, domain.EntityTeam, team.ID, newName, commit); err != nil {
		return nil, err
	}
	if err := e.commits.RecordAction(ctx, commit, domain.CommitAction{
		Action:        domain.ActionUpdate,
		TargetKind:    domain.EntityTeam,
		TargetID:      team.ID,
		CorporationID: team.CorporationID,
		OldName:       namePtr(oldName),
		NewName:       namePtr(newName),
	}); err != nil {
		return nil, err
	}
	emit(ctx, events.Event{
		Type:     events.EventTeamUpdated,
		Target:   domain.EntityTeam,
		TargetID: team.ID,
		Payload: events.TeamChangedPayload{
			CorporationID: team.CorporationID,
			OldName:       namePtr(oldName),
			NewName:       namePtr(newName),
		},
	})
	return team, nil
}

// ReparentTeam moves the team under parentID, or to the top level when nil.
func (e *MutationEngine) ReparentTeam(ctx context.Context, commit *domain.Commit, teamID int64, parentID *int64) (*domain.Team, error) {
	team, err := e.activeTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if domain.EqualID(team.ParentID, parentID) {
		return team, nil
	}

	oldParent := team.ParentID
	if err := e.hierarchy.SetParent(ctx, team, parentID); err != nil {
		return nil, err
	}
	if err := e.ledger.RecordParentChange(ctx, team.ID, parentID, commit); err != nil {
		return nil, err
	}
	if err := e.commits.RecordAction(ctx, commit, domain.CommitAction{
		Action:        domain.ActionUpdate,
		TargetKind:    domain.EntityTeam,
		TargetID:      team.ID,
		CorporationID: team.CorporationID,
		OldParentID:   oldParent,
		NewParentID:   parentID,
	}); err != nil {
		return nil, err
	}
	emit(ctx, events.Event{
		Type:     events.EventTeamUpdated,
		Target:   domain.EntityTeam,
		TargetID: team.ID,
		Payload: events.TeamChangedPayload{
			CorporationID: team.CorporationID,
			OldParentID:   oldParent,
			NewParentID:   parentID,
		},
	})
	return team, nil
}

// DeactivateTeam soft-deletes the team and its whole subtree and closes their
// open roles. The subtree is collected before anything changes. It returns the
// ids switched off; an inactive team is left alone.
func (e *MutationEngine) DeactivateTeam(ctx context.Context, commit *domain.Commit, teamID int64) ([]int64, error) {
	root, err := e.hierarchy.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !root.IsActive {
		return nil, nil
	}
	descendants, err := e.hierarchy.DescendantsOf(ctx, root.ID)
	if err != nil {
		return nil, err
	}
	subtree := append([]domain.Team{*root}, descendants...)

	now := e.now()
	var ids []int64
	for i := range subtree {
		t := subtree[i]
		if !t.IsActive {
			continue
		}
		oldParent := t.ParentID
		t.IsActive = false
		t.DeletedAt = &now
		t.ParentID = nil
		t.LeaderID = nil
		if err := e.teams.Update(ctx, &t); err != nil {
			return nil, apperrors.MapError(err)
		}
		if err := e.closeOpenRoles(ctx, t.ID, now); err != nil {
			return nil, err
		}
		if err := e.ledger.RecordNameChange(ctx, domain.EntityTeam, t.ID, "", commit); err != nil {
			return nil, err
		}
		if err := e.ledger.RecordParentChange(ctx, t.ID, nil, commit); err != nil {
			return nil, err
		}
		if err := e.commits.RecordAction(ctx, commit, domain.CommitAction{
			Action:        domain.ActionDelete,
			TargetKind:    domain.EntityTeam,
			TargetID:      t.ID,
			CorporationID: t.CorporationID,
			OldName:       namePtr(t.Name),
			OldParentID:   oldParent,
		}); err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}

	emit(ctx, events.Event{
		Type:     events.EventTeamDeactivated,
		Target:   domain.EntityTeam,
		TargetID: root.ID,
		Payload:  events.DeactivatedPayload{TeamIDs: nonNilIDs(ids)},
	})
	return ids, nil
}

func (e *MutationEngine) closeOpenRoles(ctx context.Context, teamID int64, at time.Time) error {
	open, err := e.roles.ListOpenByTeam(ctx, teamID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for i := range open {
		role := open[i]
		end := at
		role.EndDate = &end
		if err := e.roles.Update(ctx, &role); err != nil {
			return apperrors.MapError(err)
		}
	}
	return nil
}

func (e *MutationEngine) activeTeam(ctx context.Context, teamID int64) (*domain.Team, error) {
	team, err := e.hierarchy.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.IsActive {
		return nil, apperrors.NewValidationError("team is inactive", map[string]any{"team_id": teamID})
	}
	return team, nil
}

func (e *MutationEngine) checkDuplicateName(ctx context.Context, corporationID *int64, name string, exceptID int64) error {
	if !e.rejectDupNames {
		return nil
	}
	existing, err := e.teams.ListActiveByName(ctx, corporationID, name)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, t := range existing {
		if t.ID != exceptID {
			return apperrors.NewValidationError("an active team with this name already exists in the corporation", map[string]any{
				"name":    name,
				"team_id": t.ID,
			})
		}
	}
	return nil
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
