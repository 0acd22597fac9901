package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// CorporationRepository manages corporation persistence.
type CorporationRepository interface {
	Create(ctx context.Context, corp *domain.Corporation) error
	Update(ctx context.Context, corp *domain.Corporation) error
	GetByID(ctx context.Context, id int64) (*domain.Corporation, error)
	List(ctx context.Context) ([]domain.Corporation, error)
}

type corporationRepository struct {
	pool *pgxpool.Pool
}

// NewCorporationRepository builds the repository.
func NewCorporationRepository(pool *pgxpool.Pool) CorporationRepository {
	return &corporationRepository{pool: pool}
}

const corporationColumns = `id, name, is_active, is_master, hr_team_id, created_at, deleted_at`

func (r *corporationRepository) Create(ctx context.Context, corp *domain.Corporation) error {
	const query = `
        INSERT INTO corporations (name, is_active, is_master, hr_team_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		corp.Name,
		corp.IsActive,
		corp.IsMaster,
		corp.HRTeamID,
	).Scan(&corp.ID, &corp.CreatedAt); err != nil {
		return fmt.Errorf("create corporation: %w", err)
	}
	return nil
}

func (r *corporationRepository) Update(ctx context.Context, corp *domain.Corporation) error {
	const query = `
        UPDATE corporations SET name=$1, is_active=$2, is_master=$3, hr_team_id=$4, deleted_at=$5
        WHERE id=$6`
	tag, err := conn(ctx, r.pool).Exec(ctx, query,
		corp.Name,
		corp.IsActive,
		corp.IsMaster,
		corp.HRTeamID,
		corp.DeletedAt,
		corp.ID,
	)
	return execExpectOne(tag, err, "update corporation %d", corp.ID)
}

func (r *corporationRepository) GetByID(ctx context.Context, id int64) (*domain.Corporation, error) {
	query := `SELECT ` + corporationColumns + ` FROM corporations WHERE id=$1`
	corp, err := scanCorporation(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundWrap(err, "get corporation %d", id)
	}
	return &corp, nil
}

func (r *corporationRepository) List(ctx context.Context) ([]domain.Corporation, error) {
	query := `SELECT ` + corporationColumns + ` FROM corporations ORDER BY id`
	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list corporations: %w", err)
	}
	defer rows.Close()

	var result []domain.Corporation
	for rows.Next() {
		corp, err := scanCorporation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, corp)
	}
	return result, rows.Err()
}

func scanCorporation(row scannable) (domain.Corporation, error) {
	var corp domain.Corporation
	err := row.Scan(
		&corp.ID,
		&corp.Name,
		&corp.IsActive,
		&corp.IsMaster,
		&corp.HRTeamID,
		&corp.CreatedAt,
		&corp.DeletedAt,
	)
	return corp, err
}
