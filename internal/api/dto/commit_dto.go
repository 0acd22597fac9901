package dto

import (
	"time"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// AnnotateCommitRequest payload.
type AnnotateCommitRequest struct {
	Message string `json:"message" validate:"max=500"`
}

// CommitResponse represents a commit, with actions on detail views.
type CommitResponse struct {
	ID        int64                  `json:"commit_id"`
	CreatedBy int64                  `json:"created_by"`
	Message   string                 `json:"message"`
	CreatedAt time.Time              `json:"created_at"`
	Actions   []CommitActionResponse `json:"actions,omitempty"`
}

// CommitActionResponse represents one recorded change.
type CommitActionResponse struct {
	ID            int64             `json:"id"`
	CommitID      int64             `json:"commit_id"`
	Action        domain.ActionKind `json:"action"`
	TargetKind    domain.EntityKind `json:"target_kind"`
	TargetID      int64             `json:"target_id"`
	CorporationID *int64            `json:"corporation"`
	OldName       *string           `json:"old_name"`
	NewName       *string           `json:"new_name"`
	OldParentID   *int64            `json:"old_parent"`
	NewParentID   *int64            `json:"new_parent"`
	CreatedAt     time.Time         `json:"created_at"`
}

// CommitDiffResponse lists actions between two commits.
type CommitDiffResponse struct {
	From    int64                  `json:"from"`
	To      int64                  `json:"to"`
	Actions []CommitActionResponse `json:"actions"`
}

// NewCommitResponse maps a commit and any actions loaded with it.
func NewCommitResponse(commit *domain.Commit) CommitResponse {
	return CommitResponse{
		ID:        commit.ID,
		CreatedBy: commit.CreatedByID,
		Message:   commit.Message,
		CreatedAt: commit.CreatedAt,
		Actions:   NewCommitActionResponses(commit.Actions),
	}
}

// NewCommitActionResponses maps actions; nil stays nil so summaries omit them.
func NewCommitActionResponses(actions []domain.CommitAction) []CommitActionResponse {
	if actions == nil {
		return nil
	}
	out := make([]CommitActionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, CommitActionResponse{
			ID:            a.ID,
			CommitID:      a.CommitID,
			Action:        a.Action,
			TargetKind:    a.TargetKind,
			TargetID:      a.TargetID,
			CorporationID: a.CorporationID,
			OldName:       a.OldName,
			NewName:       a.NewName,
			OldParentID:   a.OldParentID,
			NewParentID:   a.NewParentID,
			CreatedAt:     a.CreatedAt,
		})
	}
	return out
}
