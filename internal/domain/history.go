package domain

import "time"

// NameHistoryEntry records the name an entity carried as of a commit.
// An empty name marks the entity as deleted from that commit on.
type NameHistoryEntry struct {
	ID         int64
	CommitID   int64
	EntityKind EntityKind
	EntityID   int64
	Name       string
	CreatedAt  time.Time
}

// IsDeletion reports whether the entry is the deletion sentinel.
func (e NameHistoryEntry) IsDeletion() bool {
	return e.Name == ""
}

// ParentHistoryEntry records a team's parent as of a commit. A nil parent means top-level.
type ParentHistoryEntry struct {
	ID           int64
	CommitID     int64
	TeamID       int64
	ParentTeamID *int64
	CreatedAt    time.Time
}

// Later reports whether e orders after other in ledger order (commit, then append order).
func (e ParentHistoryEntry) Later(other ParentHistoryEntry) bool {
	if e.CommitID != other.CommitID {
		return e.CommitID > other.CommitID
	}
	return e.ID > other.ID
}

// Later reports whether e orders after other in ledger order (commit, then append order).
func (e NameHistoryEntry) Later(other NameHistoryEntry) bool {
	if e.CommitID != other.CommitID {
		return e.CommitID > other.CommitID
	}
	return e.ID > other.ID
}
