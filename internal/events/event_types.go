package events

import (
	"time"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCorporationCreated     EventType = "org.corporation.created"
	EventCorporationUpdated     EventType = "org.corporation.updated"
	EventCorporationDeactivated EventType = "org.corporation.deactivated"
	EventTeamCreated            EventType = "org.team.created"
	EventTeamUpdated            EventType = "org.team.updated"
	EventTeamDeactivated        EventType = "org.team.deactivated"
	EventRoleChanged            EventType = "org.role.changed"
)

// AllEventTypes lists every type the organization service emits.
var AllEventTypes = []EventType{
	EventCorporationCreated,
	EventCorporationUpdated,
	EventCorporationDeactivated,
	EventTeamCreated,
	EventTeamUpdated,
	EventTeamDeactivated,
	EventRoleChanged,
}

// Actor identifies the person behind a change.
type Actor struct {
	PersonID int64 `json:"person_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	CommitID  int64             `json:"commit_id"`
	Target    domain.EntityKind `json:"target_kind,omitempty"`
	TargetID  int64             `json:"target_id"`
	Actor     Actor             `json:"actor"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   interface{}       `json:"payload"`
}

// CorporationPayload payload.
type CorporationPayload struct {
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
	IsMaster bool   `json:"is_master"`
}

// TeamChangedPayload payload.
type TeamChangedPayload struct {
	CorporationID *int64  `json:"corporation_id,omitempty"`
	OldName       *string `json:"old_name,omitempty"`
	NewName       *string `json:"new_name,omitempty"`
	OldParentID   *int64  `json:"old_parent_id,omitempty"`
	NewParentID   *int64  `json:"new_parent_id,omitempty"`
}

// DeactivatedPayload lists every team switched off by a cascade.
type DeactivatedPayload struct {
	TeamIDs []int64 `json:"team_ids"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	RoleID       int64                  `json:"role_id"`
	PersonID     int64                  `json:"person_id"`
	TeamID       int64                  `json:"team_id"`
	Designation  domain.RoleDesignation `json:"designation"`
	SupervisorID *int64                 `json:"supervisor_id,omitempty"`
	Closed       bool                   `json:"closed"`
}
