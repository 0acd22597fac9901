package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// RoleRepository manages role assignments and the supervisor change log.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	ListOpenByTeam(ctx context.Context, teamID int64) ([]domain.Role, error)
	ListOpenByPersonAndTeam(ctx context.Context, personID, teamID int64) ([]domain.Role, error)
	ListByPerson(ctx context.Context, personID int64) ([]domain.Role, error)
	AppendSupervisorChange(ctx context.Context, entry *domain.RoleSupervisorHistory) error
	ListSupervisorHistory(ctx context.Context, roleID int64) ([]domain.RoleSupervisorHistory, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository builds repository.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

const roleColumns = `id, person_id, team_id, designation, supervisor_id, start_date, end_date, job_description, is_hr_role`

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	const query = `
        INSERT INTO roles (person_id, team_id, designation, supervisor_id, start_date, end_date, job_description, is_hr_role)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		role.PersonID,
		role.TeamID,
		role.Designation,
		role.SupervisorID,
		role.StartDate,
		role.EndDate,
		role.JobDescription,
		role.IsHRRole,
	).Scan(&role.ID); err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	const query = `
        UPDATE roles SET designation=$1, supervisor_id=$2, end_date=$3, job_description=$4, is_hr_role=$5
        WHERE id=$6`
	tag, err := conn(ctx, r.pool).Exec(ctx, query,
		role.Designation,
		role.SupervisorID,
		role.EndDate,
		role.JobDescription,
		role.IsHRRole,
		role.ID,
	)
	return execExpectOne(tag, err, "update role %d", role.ID)
}

func (r *roleRepository) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id=$1`
	role, err := scanRole(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundWrap(err, "get role %d", id)
	}
	return &role, nil
}

func (r *roleRepository) ListOpenByTeam(ctx context.Context, teamID int64) ([]domain.Role, error) {
	return r.list(ctx, `SELECT `+roleColumns+` FROM roles WHERE team_id=$1 AND end_date IS NULL ORDER BY id`, teamID)
}

func (r *roleRepository) ListOpenByPersonAndTeam(ctx context.Context, personID, teamID int64) ([]domain.Role, error) {
	return r.list(ctx, `SELECT `+roleColumns+` FROM roles WHERE person_id=$1 AND team_id=$2 AND end_date IS NULL ORDER BY id`, personID, teamID)
}

func (r *roleRepository) ListByPerson(ctx context.Context, personID int64) ([]domain.Role, error) {
	return r.list(ctx, `SELECT `+roleColumns+` FROM roles WHERE person_id=$1 ORDER BY start_date DESC, id DESC`, personID)
}

func (r *roleRepository) AppendSupervisorChange(ctx context.Context, entry *domain.RoleSupervisorHistory) error {
	const query = `
        INSERT INTO role_supervisor_history (role_id, old_supervisor_id, new_supervisor_id, changed_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		entry.RoleID,
		entry.OldSupervisorID,
		entry.NewSupervisorID,
		entry.ChangedAt,
	).Scan(&entry.ID); err != nil {
		return fmt.Errorf("append supervisor change for role %d: %w", entry.RoleID, err)
	}
	return nil
}

func (r *roleRepository) ListSupervisorHistory(ctx context.Context, roleID int64) ([]domain.RoleSupervisorHistory, error) {
	const query = `
        SELECT id, role_id, old_supervisor_id, new_supervisor_id, changed_at
        FROM role_supervisor_history WHERE role_id=$1 ORDER BY changed_at ASC, id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("list supervisor history for role %d: %w", roleID, err)
	}
	defer rows.Close()

	var result []domain.RoleSupervisorHistory
	for rows.Next() {
		var entry domain.RoleSupervisorHistory
		if err := rows.Scan(&entry.ID, &entry.RoleID, &entry.OldSupervisorID, &entry.NewSupervisorID, &entry.ChangedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *roleRepository) list(ctx context.Context, query string, args ...any) ([]domain.Role, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var result []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func scanRole(row scannable) (domain.Role, error) {
	var role domain.Role
	err := row.Scan(
		&role.ID,
		&role.PersonID,
		&role.TeamID,
		&role.Designation,
		&role.SupervisorID,
		&role.StartDate,
		&role.EndDate,
		&role.JobDescription,
		&role.IsHRRole,
	)
	return role, err
}
