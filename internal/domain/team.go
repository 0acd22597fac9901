package domain

import "time"

// Team is a node in a corporation's forest. A nil ParentID makes the team
// top-level in its corporation.
type Team struct {
	ID            int64
	Name          string
	CorporationID *int64
	ParentID      *int64
	LeaderID      *int64
	IsActive      bool
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// IsTopLevel reports whether the team hangs directly off its corporation.
func (t Team) IsTopLevel() bool {
	return t.ParentID == nil
}

// SameCorporation reports whether both teams belong to the same corporation (or both to none).
func (t Team) SameCorporation(other Team) bool {
	return EqualID(t.CorporationID, other.CorporationID)
}

// EqualID compares optional identifiers.
func EqualID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IDPtr returns a pointer to a copy of id.
func IDPtr(id int64) *int64 {
	return &id
}
