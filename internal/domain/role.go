package domain

import "time"

// RoleDesignation distinguishes ordinary members from team heads.
type RoleDesignation string

const (
	RoleMember RoleDesignation = "MEMBER"
	RoleHead   RoleDesignation = "HEAD"
)

// Valid reports whether the designation is known.
func (d RoleDesignation) Valid() bool {
	return d == RoleMember || d == RoleHead
}

// Role is a time-boxed assignment of a person to a team.
type Role struct {
	ID             int64
	PersonID       int64
	TeamID         int64
	Designation    RoleDesignation
	SupervisorID   *int64
	StartDate      time.Time
	EndDate        *time.Time
	JobDescription string
	IsHRRole       bool
}

// IsOpen reports whether the role is currently active.
func (r Role) IsOpen() bool {
	return r.EndDate == nil
}

// RoleSupervisorHistory records one supervisor change on a role.
type RoleSupervisorHistory struct {
	ID              int64
	RoleID          int64
	OldSupervisorID *int64
	NewSupervisorID *int64
	ChangedAt       time.Time
}
