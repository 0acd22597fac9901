package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// PersonRepository resolves person records referenced by roles and commits.
type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	GetByID(ctx context.Context, id int64) (*domain.Person, error)
}

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository builds repository.
func NewPersonRepository(pool *pgxpool.Pool) PersonRepository {
	return &personRepository{pool: pool}
}

func (r *personRepository) Create(ctx context.Context, person *domain.Person) error {
	const query = `
        INSERT INTO persons (employee_id, name)
        VALUES ($1,$2)
        RETURNING id, created_at`
	if err := conn(ctx, r.pool).QueryRow(ctx, query, person.EmployeeID, person.Name).Scan(&person.ID, &person.CreatedAt); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (r *personRepository) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	const query = `SELECT id, employee_id, name, created_at FROM persons WHERE id=$1`
	var person domain.Person
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&person.ID,
		&person.EmployeeID,
		&person.Name,
		&person.CreatedAt,
	); err != nil {
		return nil, notFoundWrap(err, "get person %d", id)
	}
	return &person, nil
}
