package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// TeamRepository manages persistence for teams and their member sets.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id int64) (*domain.Team, error)
	// ListByCorporation returns every team (active or not) of a corporation;
	// a nil id selects teams without a corporation.
	ListByCorporation(ctx context.Context, corporationID *int64) ([]domain.Team, error)
	ListChildren(ctx context.Context, parentID int64) ([]domain.Team, error)
	ListTopLevel(ctx context.Context, corporationID int64) ([]domain.Team, error)
	ListActiveByName(ctx context.Context, corporationID *int64, name string) ([]domain.Team, error)
	AddMember(ctx context.Context, teamID, personID int64) error
	ListMemberIDs(ctx context.Context, teamID int64) ([]int64, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

const teamColumns = `id, name, corporation_id, parent_id, leader_id, is_active, created_at, deleted_at`

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (name, corporation_id, parent_id, leader_id, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		team.Name,
		team.CorporationID,
		team.ParentID,
		team.LeaderID,
		team.IsActive,
	).Scan(&team.ID, &team.CreatedAt); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, corporation_id=$2, parent_id=$3, leader_id=$4, is_active=$5, deleted_at=$6
        WHERE id=$7`
	tag, err := conn(ctx, r.pool).Exec(ctx, query,
		team.Name,
		team.CorporationID,
		team.ParentID,
		team.LeaderID,
		team.IsActive,
		team.DeletedAt,
		team.ID,
	)
	return execExpectOne(tag, err, "update team %d", team.ID)
}

func (r *teamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id=$1`
	team, err := scanTeam(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundWrap(err, "get team %d", id)
	}
	return &team, nil
}

func (r *teamRepository) ListByCorporation(ctx context.Context, corporationID *int64) ([]domain.Team, error) {
	if corporationID == nil {
		return r.list(ctx, `SELECT `+teamColumns+` FROM teams WHERE corporation_id IS NULL ORDER BY id`)
	}
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams WHERE corporation_id=$1 ORDER BY id`, *corporationID)
}

func (r *teamRepository) ListChildren(ctx context.Context, parentID int64) ([]domain.Team, error) {
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams WHERE parent_id=$1 ORDER BY id`, parentID)
}

func (r *teamRepository) ListTopLevel(ctx context.Context, corporationID int64) ([]domain.Team, error) {
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams WHERE corporation_id=$1 AND parent_id IS NULL ORDER BY id`, corporationID)
}

func (r *teamRepository) ListActiveByName(ctx context.Context, corporationID *int64, name string) ([]domain.Team, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams
        WHERE corporation_id IS NOT DISTINCT FROM $1 AND name=$2 AND is_active=TRUE ORDER BY id`
	return r.list(ctx, query, corporationID, name)
}

func (r *teamRepository) AddMember(ctx context.Context, teamID, personID int64) error {
	const query = `INSERT INTO team_members (team_id, person_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`
	if _, err := conn(ctx, r.pool).Exec(ctx, query, teamID, personID); err != nil {
		return fmt.Errorf("add member %d to team %d: %w", personID, teamID, err)
	}
	return nil
}

func (r *teamRepository) ListMemberIDs(ctx context.Context, teamID int64) ([]int64, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT person_id FROM team_members WHERE team_id=$1 ORDER BY person_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *teamRepository) list(ctx context.Context, query string, args ...any) ([]domain.Team, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}

func scanTeam(row scannable) (domain.Team, error) {
	var team domain.Team
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.CorporationID,
		&team.ParentID,
		&team.LeaderID,
		&team.IsActive,
		&team.CreatedAt,
		&team.DeletedAt,
	)
	return team, err
}
