package service

import (
	"context"
	"sort"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// Reconstructor projects corporations and teams as they were at a commit.
// It only reads.
type Reconstructor struct {
	corporations repository.CorporationRepository
	teams        repository.TeamRepository
	history      repository.HistoryRepository
	hierarchy    *Hierarchy
	ledger       *Ledger
	commits      *CommitManager
}

// NewReconstructor wires the reconstructor.
func NewReconstructor(repos repository.Repositories, hierarchy *Hierarchy, ledger *Ledger, commits *CommitManager) *Reconstructor {
	return &Reconstructor{
		corporations: repos.Corporations,
		teams:        repos.Teams,
		history:      repos.History,
		hierarchy:    hierarchy,
		ledger:       ledger,
		commits:      commits,
	}
}

// teamState is a team resolved against the ledger at one commit.
type teamState struct {
	team    domain.Team
	name    string
	active  bool
	parent  *int64
	tracked bool
}

func (r *Reconstructor) CorporationAsOf(ctx context.Context, corpID, commitID int64) (*domain.CorporationSnapshot, error) {
	if _, err := r.commits.get(ctx, commitID); err != nil {
		return nil, err
	}
	corp, err := r.hierarchy.GetCorporation(ctx, corpID)
	if err != nil {
		return nil, err
	}
	name, active, err := r.entityAsOf(ctx, domain.EntityCorporation, corp.ID, commitID, corp.Name, corp.IsActive)
	if err != nil {
		return nil, err
	}

	teams, err := r.teams.ListByCorporation(ctx, &corp.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	states, err := r.resolveTeams(ctx, teams, commitID)
	if err != nil {
		return nil, err
	}

	subTeams := []domain.TeamRef{}
	for _, st := range orderedStates(states) {
		if st.active && st.parent == nil {
			subTeams = append(subTeams, domain.TeamRef{ID: st.team.ID, Name: st.name})
		}
	}
	return &domain.CorporationSnapshot{
		CommitID: commitID,
		ID:       corp.ID,
		Name:     name,
		IsActive: active,
		SubTeams: subTeams,
	}, nil
}

func (r *Reconstructor) TeamAsOf(ctx context.Context, teamID, commitID int64) (*domain.TeamSnapshot, error) {
	if _, err := r.commits.get(ctx, commitID); err != nil {
		return nil, err
	}
	team, err := r.hierarchy.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	name, active, err := r.entityAsOf(ctx, domain.EntityTeam, team.ID, commitID, team.Name, team.IsActive)
	if err != nil {
		return nil, err
	}

	teams, err := r.teams.ListByCorporation(ctx, team.CorporationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	states, err := r.resolveTeams(ctx, teams, commitID)
	if err != nil {
		return nil, err
	}

	subTeams := []domain.TeamRef{}
	for _, st := range orderedStates(states) {
		if st.active && st.parent != nil && *st.parent == team.ID {
			subTeams = append(subTeams, domain.TeamRef{ID: st.team.ID, Name: st.name})
		}
	}

	ancestors := []domain.AncestorRef{}
	visited := map[int64]bool{team.ID: true}
	for next := states[team.ID].parent; next != nil; {
		if visited[*next] {
			return nil, apperrors.NewInvariantViolation("team history contains a parent cycle", map[string]any{
				"team_id":   team.ID,
				"commit_id": commitID,
			})
		}
		visited[*next] = true

		st, ok := states[*next]
		if !ok {
			// ancestor outside the corporation's team list
			outsider, err := r.hierarchy.GetTeam(ctx, *next)
			if err != nil {
				return nil, err
			}
			resolved, err := r.resolveTeams(ctx, []domain.Team{*outsider}, commitID)
			if err != nil {
				return nil, err
			}
			st = resolved[outsider.ID]
			states[outsider.ID] = st
		}
		ancestorName := st.name
		if ancestorName == "" {
			ancestorName = st.team.Name
		}
		ancestors = append(ancestors, domain.AncestorRef{ID: st.team.ID, Name: ancestorName, Order: len(ancestors)})
		next = st.parent
	}

	return &domain.TeamSnapshot{
		CommitID:      commitID,
		ID:            team.ID,
		Name:          name,
		CorporationID: team.CorporationID,
		IsActive:      active,
		SubTeams:      subTeams,
		ParentTeams:   ancestors,
	}, nil
}

// entityAsOf overlays the name of a single entity. An entity without any
// ledger entry keeps its live state; one whose first entry comes after the
// commit did not exist yet. A deleted entity keeps its last real name.
func (r *Reconstructor) entityAsOf(ctx context.Context, kind domain.EntityKind, id, commitID int64, liveName string, liveActive bool) (string, bool, error) {
	entry, err := r.ledger.LatestNameAsOf(ctx, kind, id, commitID)
	if err != nil {
		return "", false, err
	}
	if entry == nil {
		tracked, err := r.history.EntitiesWithNameHistory(ctx, kind, []int64{id})
		if err != nil {
			return "", false, apperrors.MapError(err)
		}
		if tracked[id] {
			return "", false, apperrors.NewNotFound(resourceName(kind), map[string]any{
				"id":        id,
				"commit_id": commitID,
				"reason":    "did not exist at this commit",
			})
		}
		return liveName, liveActive, nil
	}
	if !entry.IsDeletion() {
		return entry.Name, true, nil
	}

	entries, err := r.ledger.NameHistory(ctx, kind, id)
	if err != nil {
		return "", false, err
	}
	name := liveName
	for _, e := range entries {
		if e.CommitID > commitID || (e.CommitID == commitID && e.ID > entry.ID) {
			break
		}
		if !e.IsDeletion() {
			name = e.Name
		}
	}
	return name, false, nil
}

// resolveTeams resolves name, existence and parent of many teams with the
// bulk latest-per-group reads.
func (r *Reconstructor) resolveTeams(ctx context.Context, teams []domain.Team, commitID int64) (map[int64]teamState, error) {
	ids := make([]int64, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	names, err := r.history.LatestNamesAsOf(ctx, domain.EntityTeam, commitID, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	parents, err := r.history.LatestParentsAsOf(ctx, commitID, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	tracked, err := r.history.EntitiesWithNameHistory(ctx, domain.EntityTeam, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	states := make(map[int64]teamState, len(teams))
	for _, t := range teams {
		st := teamState{team: t, tracked: tracked[t.ID]}
		if st.tracked {
			if entry, ok := names[t.ID]; ok {
				st.active = !entry.IsDeletion()
				st.name = entry.Name
			}
		} else {
			st.active = t.IsActive
			st.name = t.Name
		}

		switch entry, ok := parents[t.ID]; {
		case ok:
			st.parent = entry.ParentTeamID
		case st.tracked:
			// created top-level: creation writes a parent entry whenever a parent is set
			st.parent = nil
		default:
			st.parent = t.ParentID
		}
		states[t.ID] = st
	}
	return states, nil
}

func orderedStates(states map[int64]teamState) []teamState {
	out := make([]teamState, 0, len(states))
	for _, st := range states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].team.ID < out[j].team.ID })
	return out
}

func resourceName(kind domain.EntityKind) string {
	if kind == domain.EntityCorporation {
		return "corporation"
	}
	return "team"
}
