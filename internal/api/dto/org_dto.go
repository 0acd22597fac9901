package dto

import (
	"time"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// CommitRequest selects the commit a write belongs to. New starts a commit,
// ID reuses one, neither falls back to the latest commit.
type CommitRequest struct {
	New     bool   `json:"new"`
	ID      *int64 `json:"id" validate:"omitempty,gt=0"`
	Message string `json:"message" validate:"max=500"`
}

// Selector converts the request into the service selector.
func (r CommitRequest) Selector() domain.CommitSelector {
	return domain.CommitSelector{New: r.New, ID: r.ID, Message: r.Message}
}

// CommitOnlyRequest is the body of DELETE calls.
type CommitOnlyRequest struct {
	Commit CommitRequest `json:"commit"`
}

// CreateCorporationRequest payload.
type CreateCorporationRequest struct {
	Name     string        `json:"name" validate:"required,max=255"`
	IsMaster bool          `json:"is_master"`
	Commit   CommitRequest `json:"commit"`
}

// UpdateCorporationRequest payload. Only name changes are tracked by the ledger.
type UpdateCorporationRequest struct {
	Name        *string       `json:"name" validate:"omitempty,min=1,max=255"`
	IsMaster    *bool         `json:"is_master"`
	HRTeamID    *int64        `json:"hr_team" validate:"omitempty,gt=0"`
	ClearHRTeam bool          `json:"clear_hr_team"`
	Commit      CommitRequest `json:"commit"`
}

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name          string        `json:"name" validate:"required,max=255"`
	ParentTeams   []int64       `json:"parent_teams" validate:"dive,gt=0"`
	CorporationID *int64        `json:"corporation" validate:"omitempty,gt=0"`
	Commit        CommitRequest `json:"commit"`
}

// UpdateTeamRequest payload. A present parent_teams reparents the team; an
// empty list moves it to the top level.
type UpdateTeamRequest struct {
	Name        *string       `json:"name" validate:"omitempty,min=1,max=255"`
	ParentTeams *[]int64      `json:"parent_teams"`
	Commit      CommitRequest `json:"commit"`
}

// TeamRefResponse is a team reference inside another resource.
type TeamRefResponse struct {
	ID   int64  `json:"t_id"`
	Name string `json:"name"`
}

// CorporationResponse represents a corporation with its top-level teams.
type CorporationResponse struct {
	ID        int64             `json:"c_id"`
	Name      string            `json:"name"`
	IsActive  bool              `json:"is_active"`
	IsMaster  bool              `json:"is_master"`
	HRTeamID  *int64            `json:"hr_team"`
	SubTeams  []TeamRefResponse `json:"sub_teams"`
	CreatedAt time.Time         `json:"created_at"`
	DeletedAt *time.Time        `json:"deleted_at"`
}

// TeamResponse represents a team with its neighbourhood.
type TeamResponse struct {
	ID            int64                `json:"t_id"`
	Name          string               `json:"name"`
	CorporationID *int64               `json:"corporation"`
	LeaderID      *int64               `json:"leader"`
	IsActive      bool                 `json:"is_active"`
	ParentTeams   []domain.AncestorRef `json:"parent_teams"`
	SubTeams      []TeamRefResponse    `json:"sub_teams"`
	Members       []int64              `json:"members"`
	CreatedAt     time.Time            `json:"created_at"`
	DeletedAt     *time.Time           `json:"deleted_at"`
}

// DeactivationResponse lists the teams switched off by a cascade.
type DeactivationResponse struct {
	DeactivatedTeams []int64 `json:"deactivated_teams"`
}

// NewCorporationResponse maps a corporation and its live top-level teams.
func NewCorporationResponse(corp *domain.Corporation, subTeams []domain.Team) CorporationResponse {
	return CorporationResponse{
		ID:        corp.ID,
		Name:      corp.Name,
		IsActive:  corp.IsActive,
		IsMaster:  corp.IsMaster,
		HRTeamID:  corp.HRTeamID,
		SubTeams:  teamRefs(subTeams),
		CreatedAt: corp.CreatedAt,
		DeletedAt: corp.DeletedAt,
	}
}

// NewTeamResponse maps a team. Neighbourhood slices may be nil.
func NewTeamResponse(team *domain.Team, ancestors []domain.AncestorRef, subTeams []domain.Team, members []int64) TeamResponse {
	if ancestors == nil {
		ancestors = []domain.AncestorRef{}
	}
	if members == nil {
		members = []int64{}
	}
	return TeamResponse{
		ID:            team.ID,
		Name:          team.Name,
		CorporationID: team.CorporationID,
		LeaderID:      team.LeaderID,
		IsActive:      team.IsActive,
		ParentTeams:   ancestors,
		SubTeams:      teamRefs(subTeams),
		Members:       members,
		CreatedAt:     team.CreatedAt,
		DeletedAt:     team.DeletedAt,
	}
}

func teamRefs(teams []domain.Team) []TeamRefResponse {
	out := make([]TeamRefResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamRefResponse{ID: t.ID, Name: t.Name})
	}
	return out
}
