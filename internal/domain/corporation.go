package domain

import "time"

// EntityKind names the kind of hierarchy node a history entry or commit action targets.
type EntityKind string

const (
	EntityCorporation EntityKind = "CORPORATION"
	EntityTeam        EntityKind = "TEAM"
)

// Corporation is the root of a team forest.
type Corporation struct {
	ID        int64
	Name      string
	IsActive  bool
	IsMaster  bool
	HRTeamID  *int64
	CreatedAt time.Time
	DeletedAt *time.Time
}
