package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// CommitFilter narrows commit listings.
type CommitFilter struct {
	CorporationID *int64
}

// CommitRepository stores commits and their immutable actions.
type CommitRepository interface {
	Create(ctx context.Context, commit *domain.Commit) error
	UpdateMessage(ctx context.Context, id int64, message string) error
	GetByID(ctx context.Context, id int64) (*domain.Commit, error)
	Latest(ctx context.Context) (*domain.Commit, error)
	List(ctx context.Context, filter CommitFilter) ([]domain.Commit, error)
	AppendAction(ctx context.Context, action *domain.CommitAction) error
	ListActions(ctx context.Context, commitID int64) ([]domain.CommitAction, error)
	// ListActionsBetween returns actions with fromExclusive < commit_id <= toInclusive.
	ListActionsBetween(ctx context.Context, fromExclusive, toInclusive int64) ([]domain.CommitAction, error)
}

type commitRepository struct {
	pool *pgxpool.Pool
}

// NewCommitRepository builds repository.
func NewCommitRepository(pool *pgxpool.Pool) CommitRepository {
	return &commitRepository{pool: pool}
}

const (
	commitColumns = `id, created_by_id, message, created_at`
	actionColumns = `id, commit_id, action, target_kind, target_id, corporation_id, old_name, new_name, old_parent_id, new_parent_id, created_at`
)

func (r *commitRepository) Create(ctx context.Context, commit *domain.Commit) error {
	const query = `
        INSERT INTO commits (created_by_id, message, created_at)
        VALUES ($1,$2,$3)
        RETURNING id`
	if err := conn(ctx, r.pool).QueryRow(ctx, query, commit.CreatedByID, commit.Message, commit.CreatedAt).Scan(&commit.ID); err != nil {
		return fmt.Errorf("create commit: %w", err)
	}
	return nil
}

func (r *commitRepository) UpdateMessage(ctx context.Context, id int64, message string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `UPDATE commits SET message=$1 WHERE id=$2`, message, id)
	return execExpectOne(tag, err, "update commit %d", id)
}

func (r *commitRepository) GetByID(ctx context.Context, id int64) (*domain.Commit, error) {
	query := `SELECT ` + commitColumns + ` FROM commits WHERE id=$1`
	commit, err := scanCommit(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundWrap(err, "get commit %d", id)
	}
	return &commit, nil
}

func (r *commitRepository) Latest(ctx context.Context) (*domain.Commit, error) {
	query := `SELECT ` + commitColumns + ` FROM commits ORDER BY created_at DESC, id DESC LIMIT 1`
	commit, err := scanCommit(conn(ctx, r.pool).QueryRow(ctx, query))
	if err != nil {
		return nil, notFoundWrap(err, "latest commit")
	}
	return &commit, nil
}

func (r *commitRepository) List(ctx context.Context, filter CommitFilter) ([]domain.Commit, error) {
	query := `SELECT ` + commitColumns + ` FROM commits ORDER BY created_at DESC, id DESC`
	args := []any{}
	if filter.CorporationID != nil {
		query = `SELECT ` + commitColumns + ` FROM commits c
            WHERE EXISTS (SELECT 1 FROM commit_actions a WHERE a.commit_id = c.id AND a.corporation_id = $1)
            ORDER BY created_at DESC, id DESC`
		args = append(args, *filter.CorporationID)
	}

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	defer rows.Close()

	var result []domain.Commit
	for rows.Next() {
		commit, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, commit)
	}
	return result, rows.Err()
}

func (r *commitRepository) AppendAction(ctx context.Context, action *domain.CommitAction) error {
	const query = `
        INSERT INTO commit_actions (commit_id, action, target_kind, target_id, corporation_id, old_name, new_name, old_parent_id, new_parent_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		action.CommitID,
		action.Action,
		action.TargetKind,
		action.TargetID,
		action.CorporationID,
		action.OldName,
		action.NewName,
		action.OldParentID,
		action.NewParentID,
	).Scan(&action.ID, &action.CreatedAt); err != nil {
		return fmt.Errorf("append commit action: %w", err)
	}
	return nil
}

func (r *commitRepository) ListActions(ctx context.Context, commitID int64) ([]domain.CommitAction, error) {
	return r.listActions(ctx, `SELECT `+actionColumns+` FROM commit_actions WHERE commit_id=$1 ORDER BY id`, commitID)
}

func (r *commitRepository) ListActionsBetween(ctx context.Context, fromExclusive, toInclusive int64) ([]domain.CommitAction, error) {
	return r.listActions(ctx, `SELECT `+actionColumns+` FROM commit_actions
        WHERE commit_id > $1 AND commit_id <= $2 ORDER BY commit_id, id`, fromExclusive, toInclusive)
}

func (r *commitRepository) listActions(ctx context.Context, query string, args ...any) ([]domain.CommitAction, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list commit actions: %w", err)
	}
	defer rows.Close()

	var result []domain.CommitAction
	for rows.Next() {
		var a domain.CommitAction
		if err := rows.Scan(
			&a.ID,
			&a.CommitID,
			&a.Action,
			&a.TargetKind,
			&a.TargetID,
			&a.CorporationID,
			&a.OldName,
			&a.NewName,
			&a.OldParentID,
			&a.NewParentID,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanCommit(row scannable) (domain.Commit, error) {
	var commit domain.Commit
	err := row.Scan(&commit.ID, &commit.CreatedByID, &commit.Message, &commit.CreatedAt)
	return commit, err
}
