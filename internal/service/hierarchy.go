package service

import (
	"context"
	"errors"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// Hierarchy is the live corporation/team graph.
type Hierarchy struct {
	corporations repository.CorporationRepository
	teams        repository.TeamRepository
}

// NewHierarchy creates the store view.
func NewHierarchy(corporations repository.CorporationRepository, teams repository.TeamRepository) *Hierarchy {
	return &Hierarchy{corporations: corporations, teams: teams}
}

// TreeNode is one team in the live nested view of a corporation.
type TreeNode struct {
	ID       int64      `json:"t_id"`
	Name     string     `json:"name"`
	LeaderID *int64     `json:"leader_id,omitempty"`
	Children []TreeNode `json:"sub_teams"`
}

func (h *Hierarchy) GetTeam(ctx context.Context, id int64) (*domain.Team, error) {
	team, err := h.teams.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "team", map[string]any{"team_id": id})
	}
	return team, nil
}

func (h *Hierarchy) GetCorporation(ctx context.Context, id int64) (*domain.Corporation, error) {
	corp, err := h.corporations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "corporation", map[string]any{"corporation_id": id})
	}
	return corp, nil
}

// SetParent replaces the team's parent pointer after validating the target.
// The caller persists nothing else; the team row is updated here.
func (h *Hierarchy) SetParent(ctx context.Context, team *domain.Team, parentID *int64) error {
	if parentID != nil {
		if *parentID == team.ID {
			return apperrors.NewInvariantViolation("team cannot be its own parent", map[string]any{"team_id": team.ID})
		}
		parent, err := h.teams.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewValidationError("parent team does not exist", map[string]any{"parent_team_id": *parentID})
			}
			return apperrors.MapError(err)
		}
		if !parent.IsActive {
			return apperrors.NewValidationError("parent team is inactive", map[string]any{"parent_team_id": *parentID})
		}
		if !parent.SameCorporation(*team) {
			return apperrors.NewValidationError("parent team belongs to another corporation", map[string]any{"parent_team_id": *parentID})
		}
		descendants, err := h.DescendantsOf(ctx, team.ID)
		if err != nil {
			return err
		}
		for _, d := range descendants {
			if d.ID == *parentID {
				return apperrors.NewInvariantViolation("parent team is a descendant of the team", map[string]any{
					"team_id":        team.ID,
					"parent_team_id": *parentID,
				})
			}
		}
	}

	team.ParentID = parentID
	if err := h.teams.Update(ctx, team); err != nil {
		return notFound(err, "team", map[string]any{"team_id": team.ID})
	}
	return nil
}

// TopLevelTeamsOf returns the corporation's teams that have no parent.
func (h *Hierarchy) TopLevelTeamsOf(ctx context.Context, corporationID int64) ([]domain.Team, error) {
	teams, err := h.teams.ListTopLevel(ctx, corporationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// ChildrenOf returns the teams whose parent is teamID.
func (h *Hierarchy) ChildrenOf(ctx context.Context, teamID int64) ([]domain.Team, error) {
	children, err := h.teams.ListChildren(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return children, nil
}

func (h *Hierarchy) MemberIDs(ctx context.Context, teamID int64) ([]int64, error) {
	ids, err := h.teams.ListMemberIDs(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ids, nil
}

// DescendantsOf walks child links depth first with an explicit stack. The
// root is not part of the result. Reaching a team twice means the graph is
// not a forest and is reported instead of looping.
func (h *Hierarchy) DescendantsOf(ctx context.Context, teamID int64) ([]domain.Team, error) {
	visited := map[int64]bool{teamID: true}
	stack := []int64{teamID}
	var out []domain.Team

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := h.teams.ListChildren(ctx, current)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		// push in reverse so children come out in id order
		for i := len(children) - 1; i >= 0; i-- {
			child := children[i]
			if visited[child.ID] {
				return nil, apperrors.NewInvariantViolation("team hierarchy contains a cycle", map[string]any{
					"team_id": child.ID,
				})
			}
			visited[child.ID] = true
			stack = append(stack, child.ID)
		}
		out = append(out, children...)
	}
	return out, nil
}

// Ancestors returns the live parent chain, order 0 being the immediate parent.
func (h *Hierarchy) Ancestors(ctx context.Context, team *domain.Team) ([]domain.AncestorRef, error) {
	visited := map[int64]bool{team.ID: true}
	var out []domain.AncestorRef
	for next := team.ParentID; next != nil; {
		if visited[*next] {
			return nil, apperrors.NewInvariantViolation("team hierarchy contains a cycle", map[string]any{"team_id": *next})
		}
		visited[*next] = true
		parent, err := h.GetTeam(ctx, *next)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.AncestorRef{ID: parent.ID, Name: parent.Name, Order: len(out)})
		next = parent.ParentID
	}
	return out, nil
}

// Tree builds the nested view of a corporation's active teams.
func (h *Hierarchy) Tree(ctx context.Context, corporationID int64) ([]TreeNode, error) {
	if _, err := h.GetCorporation(ctx, corporationID); err != nil {
		return nil, err
	}
	teams, err := h.teams.ListByCorporation(ctx, &corporationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	children := map[int64][]domain.Team{}
	var roots []domain.Team
	for _, t := range teams {
		if !t.IsActive {
			continue
		}
		if t.ParentID == nil {
			roots = append(roots, t)
			continue
		}
		children[*t.ParentID] = append(children[*t.ParentID], t)
	}

	visited := map[int64]bool{}
	var build func(t domain.Team) (TreeNode, error)
	build = func(t domain.Team) (TreeNode, error) {
		if visited[t.ID] {
			return TreeNode{}, apperrors.NewInvariantViolation("team hierarchy contains a cycle", map[string]any{"team_id": t.ID})
		}
		visited[t.ID] = true
		node := TreeNode{ID: t.ID, Name: t.Name, LeaderID: t.LeaderID, Children: []TreeNode{}}
		for _, c := range children[t.ID] {
			child, err := build(c)
			if err != nil {
				return TreeNode{}, err
			}
			node.Children = append(node.Children, child)
		}
		return node, nil
	}

	out := make([]TreeNode, 0, len(roots))
	for _, r := range roots {
		node, err := build(r)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}
