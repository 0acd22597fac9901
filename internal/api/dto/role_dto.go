package dto

import (
	"time"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// CreateRoleRequest payload. old_role, when given, is closed first.
type CreateRoleRequest struct {
	TeamID         int64      `json:"team" validate:"required,gt=0"`
	Designation    string     `json:"role" validate:"required,oneof=MEMBER HEAD"`
	SupervisorID   *int64     `json:"supervisor" validate:"omitempty,gt=0"`
	OldRoleID      *int64     `json:"old_role" validate:"omitempty,gt=0"`
	JobDescription string     `json:"job_description" validate:"max=2000"`
	StartDate      *time.Time `json:"start_date"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Designation    *string `json:"role" validate:"omitempty,oneof=MEMBER HEAD"`
	SupervisorID   *int64  `json:"supervisor" validate:"omitempty,gt=0"`
	JobDescription *string `json:"job_description" validate:"omitempty,max=2000"`
}

// RoleResponse represents a role.
type RoleResponse struct {
	ID             int64                  `json:"r_id"`
	PersonID       int64                  `json:"p_id"`
	TeamID         int64                  `json:"team"`
	Designation    domain.RoleDesignation `json:"role"`
	SupervisorID   *int64                 `json:"supervisor"`
	StartDate      time.Time              `json:"start_date"`
	EndDate        *time.Time             `json:"end_date"`
	JobDescription string                 `json:"job_description"`
	IsHRRole       bool                   `json:"is_hr_role"`
}

// SupervisorChangeResponse represents one supervisor history entry.
type SupervisorChangeResponse struct {
	ID              int64     `json:"id"`
	RoleID          int64     `json:"r_id"`
	OldSupervisorID *int64    `json:"old_supervisor"`
	NewSupervisorID *int64    `json:"new_supervisor"`
	ChangedAt       time.Time `json:"changed_at"`
}

func NewRoleResponse(role *domain.Role) RoleResponse {
	return RoleResponse{
		ID:             role.ID,
		PersonID:       role.PersonID,
		TeamID:         role.TeamID,
		Designation:    role.Designation,
		SupervisorID:   role.SupervisorID,
		StartDate:      role.StartDate,
		EndDate:        role.EndDate,
		JobDescription: role.JobDescription,
		IsHRRole:       role.IsHRRole,
	}
}

func NewSupervisorChangeResponse(entry domain.RoleSupervisorHistory) SupervisorChangeResponse {
	return SupervisorChangeResponse{
		ID:              entry.ID,
		RoleID:          entry.RoleID,
		OldSupervisorID: entry.OldSupervisorID,
		NewSupervisorID: entry.NewSupervisorID,
		ChangedAt:       entry.ChangedAt,
	}
}
