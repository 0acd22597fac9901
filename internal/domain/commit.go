package domain

import "time"

// ActionKind enumerates the structural change recorded by a commit action.
type ActionKind string

const (
	ActionCreate ActionKind = "CREATE"
	ActionUpdate ActionKind = "UPDATE"
	ActionDelete ActionKind = "DELETE"
)

// Commit groups the structural changes of one or more requests.
type Commit struct {
	ID          int64
	CreatedByID int64
	Message     string
	CreatedAt   time.Time
	Actions     []CommitAction
}

// CommitAction is an immutable record of a single change inside a commit.
type CommitAction struct {
	ID            int64
	CommitID      int64
	Action        ActionKind
	TargetKind    EntityKind
	TargetID      int64
	CorporationID *int64
	OldName       *string
	NewName       *string
	OldParentID   *int64
	NewParentID   *int64
	CreatedAt     time.Time
}

// CommitSelector tells the commit manager which commit a mutation belongs to.
// New wins over ID; when neither is set the latest commit is used.
type CommitSelector struct {
	New     bool
	ID      *int64
	Message string
}
