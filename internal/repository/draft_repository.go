package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// DraftRepository stores saved reorganization drafts.
type DraftRepository interface {
	Create(ctx context.Context, draft *domain.Draft) error
	Update(ctx context.Context, draft *domain.Draft) error
	GetByID(ctx context.Context, id int64) (*domain.Draft, error)
	// ListByPerson returns the person's drafts, most recently saved first.
	ListByPerson(ctx context.Context, personID int64, corporationID *int64) ([]domain.Draft, error)
	Delete(ctx context.Context, id int64) error
}

type draftRepository struct {
	pool *pgxpool.Pool
}

// NewDraftRepository builds repository.
func NewDraftRepository(pool *pgxpool.Pool) DraftRepository {
	return &draftRepository{pool: pool}
}

const draftColumns = `id, person_id, corporation_id, title, payload, created_at, updated_at`

func (r *draftRepository) Create(ctx context.Context, draft *domain.Draft) error {
	const query = `
        INSERT INTO edit_drafts (person_id, corporation_id, title, payload)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		draft.PersonID,
		draft.CorporationID,
		draft.Title,
		[]byte(draft.Payload),
	).Scan(&draft.ID, &draft.CreatedAt, &draft.UpdatedAt); err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	return nil
}

func (r *draftRepository) Update(ctx context.Context, draft *domain.Draft) error {
	const query = `
        UPDATE edit_drafts
        SET corporation_id=$2, title=$3, payload=$4, updated_at=NOW()
        WHERE id=$1
        RETURNING updated_at`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		draft.ID,
		draft.CorporationID,
		draft.Title,
		[]byte(draft.Payload),
	).Scan(&draft.UpdatedAt); err != nil {
		return notFoundWrap(err, "update draft %d", draft.ID)
	}
	return nil
}

func (r *draftRepository) GetByID(ctx context.Context, id int64) (*domain.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM edit_drafts WHERE id=$1`
	draft, err := scanDraft(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundWrap(err, "get draft %d", id)
	}
	return &draft, nil
}

func (r *draftRepository) ListByPerson(ctx context.Context, personID int64, corporationID *int64) ([]domain.Draft, error) {
	query := `
        SELECT ` + draftColumns + `
        FROM edit_drafts
        WHERE person_id=$1 AND ($2::BIGINT IS NULL OR corporation_id=$2)
        ORDER BY updated_at DESC, id DESC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, personID, corporationID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []domain.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

func (r *draftRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM edit_drafts WHERE id=$1`, id)
	return execExpectOne(tag, err, "delete draft %d", id)
}

func scanDraft(row scannable) (domain.Draft, error) {
	var (
		draft   domain.Draft
		payload []byte
	)
	err := row.Scan(
		&draft.ID,
		&draft.PersonID,
		&draft.CorporationID,
		&draft.Title,
		&payload,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)
	draft.Payload = payload
	return draft, err
}
