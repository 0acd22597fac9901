package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

// HistoryRepository is the append-only ledger of name and parent changes.
type HistoryRepository interface {
	AppendName(ctx context.Context, entry *domain.NameHistoryEntry) error
	AppendParent(ctx context.Context, entry *domain.ParentHistoryEntry) error
	// LatestNameAsOf returns nil, nil when the entity has no entry at or before commitID.
	LatestNameAsOf(ctx context.Context, kind domain.EntityKind, entityID, commitID int64) (*domain.NameHistoryEntry, error)
	// LatestNamesAsOf resolves many entities at once. A nil ids slice means every entity of kind.
	LatestNamesAsOf(ctx context.Context, kind domain.EntityKind, commitID int64, ids []int64) (map[int64]domain.NameHistoryEntry, error)
	LatestParentAsOf(ctx context.Context, teamID, commitID int64) (*domain.ParentHistoryEntry, error)
	LatestParentsAsOf(ctx context.Context, commitID int64, ids []int64) (map[int64]domain.ParentHistoryEntry, error)
	// EntitiesWithNameHistory reports which of ids have at least one name entry at any commit.
	EntitiesWithNameHistory(ctx context.Context, kind domain.EntityKind, ids []int64) (map[int64]bool, error)
	ListNames(ctx context.Context, kind domain.EntityKind, entityID int64) ([]domain.NameHistoryEntry, error)
	ListParents(ctx context.Context, teamID int64) ([]domain.ParentHistoryEntry, error)
	// Watermark changes whenever either ledger table gains a committed row.
	Watermark(ctx context.Context) (int64, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

const (
	nameColumns   = `h.id, h.commit_id, h.entity_kind, h.entity_id, h.name, h.created_at`
	parentColumns = `h.id, h.commit_id, h.team_id, h.parent_team_id, h.created_at`
)

func (r *historyRepository) AppendName(ctx context.Context, entry *domain.NameHistoryEntry) error {
	const query = `
        INSERT INTO name_history (commit_id, entity_kind, entity_id, name)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		entry.CommitID,
		entry.EntityKind,
		entry.EntityID,
		entry.Name,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("append name history for %s %d: %w", entry.EntityKind, entry.EntityID, err)
	}
	return nil
}

func (r *historyRepository) AppendParent(ctx context.Context, entry *domain.ParentHistoryEntry) error {
	const query = `
        INSERT INTO team_parent_history (commit_id, team_id, parent_team_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	if err := conn(ctx, r.pool).QueryRow(ctx, query,
		entry.CommitID,
		entry.TeamID,
		entry.ParentTeamID,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("append parent history for team %d: %w", entry.TeamID, err)
	}
	return nil
}

func (r *historyRepository) LatestNameAsOf(ctx context.Context, kind domain.EntityKind, entityID, commitID int64) (*domain.NameHistoryEntry, error) {
	entries, err := r.LatestNamesAsOf(ctx, kind, commitID, []int64{entityID})
	if err != nil {
		return nil, err
	}
	entry, ok := entries[entityID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// LatestNamesAsOf runs the two-phase read: the greatest qualifying commit per
// entity first, then the last entry appended within that commit.
func (r *historyRepository) LatestNamesAsOf(ctx context.Context, kind domain.EntityKind, commitID int64, ids []int64) (map[int64]domain.NameHistoryEntry, error) {
	query := `
        WITH latest AS (
            SELECT entity_id, MAX(commit_id) AS commit_id
            FROM name_history
            WHERE entity_kind = $1 AND commit_id <= $2 AND ($3 OR entity_id = ANY($4))
            GROUP BY entity_id
        ), picked AS (
            SELECT h.entity_id, MAX(h.id) AS id
            FROM name_history h
            JOIN latest l ON l.entity_id = h.entity_id AND l.commit_id = h.commit_id
            WHERE h.entity_kind = $1
            GROUP BY h.entity_id
        )
        SELECT ` + nameColumns + `
        FROM name_history h
        JOIN picked p ON p.id = h.id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, kind, commitID, ids == nil, idsOrEmpty(ids))
	if err != nil {
		return nil, fmt.Errorf("latest names as of commit %d: %w", commitID, err)
	}
	defer rows.Close()

	result := make(map[int64]domain.NameHistoryEntry)
	for rows.Next() {
		entry, err := scanName(rows)
		if err != nil {
			return nil, err
		}
		result[entry.EntityID] = entry
	}
	return result, rows.Err()
}

func (r *historyRepository) LatestParentAsOf(ctx context.Context, teamID, commitID int64) (*domain.ParentHistoryEntry, error) {
	entries, err := r.LatestParentsAsOf(ctx, commitID, []int64{teamID})
	if err != nil {
		return nil, err
	}
	entry, ok := entries[teamID]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *historyRepository) LatestParentsAsOf(ctx context.Context, commitID int64, ids []int64) (map[int64]domain.ParentHistoryEntry, error) {
	query := `
        WITH latest AS (
            SELECT team_id, MAX(commit_id) AS commit_id
            FROM team_parent_history
            WHERE commit_id <= $1 AND ($2 OR team_id = ANY($3))
            GROUP BY team_id
        ), picked AS (
            SELECT h.team_id, MAX(h.id) AS id
            FROM team_parent_history h
            JOIN latest l ON l.team_id = h.team_id AND l.commit_id = h.commit_id
            GROUP BY h.team_id
        )
        SELECT ` + parentColumns + `
        FROM team_parent_history h
        JOIN picked p ON p.id = h.id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, commitID, ids == nil, idsOrEmpty(ids))
	if err != nil {
		return nil, fmt.Errorf("latest parents as of commit %d: %w", commitID, err)
	}
	defer rows.Close()

	result := make(map[int64]domain.ParentHistoryEntry)
	for rows.Next() {
		entry, err := scanParent(rows)
		if err != nil {
			return nil, err
		}
		result[entry.TeamID] = entry
	}
	return result, rows.Err()
}

func (r *historyRepository) EntitiesWithNameHistory(ctx context.Context, kind domain.EntityKind, ids []int64) (map[int64]bool, error) {
	const query = `
        SELECT DISTINCT entity_id FROM name_history
        WHERE entity_kind = $1 AND entity_id = ANY($2)`
	rows, err := conn(ctx, r.pool).Query(ctx, query, kind, idsOrEmpty(ids))
	if err != nil {
		return nil, fmt.Errorf("entities with name history: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result[id] = true
	}
	return result, rows.Err()
}

func (r *historyRepository) ListNames(ctx context.Context, kind domain.EntityKind, entityID int64) ([]domain.NameHistoryEntry, error) {
	query := `SELECT ` + nameColumns + ` FROM name_history h
        WHERE h.entity_kind = $1 AND h.entity_id = $2 ORDER BY h.commit_id, h.id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, kind, entityID)
	if err != nil {
		return nil, fmt.Errorf("list names of %s %d: %w", kind, entityID, err)
	}
	defer rows.Close()

	var result []domain.NameHistoryEntry
	for rows.Next() {
		entry, err := scanName(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *historyRepository) ListParents(ctx context.Context, teamID int64) ([]domain.ParentHistoryEntry, error) {
	query := `SELECT ` + parentColumns + ` FROM team_parent_history h
        WHERE h.team_id = $1 ORDER BY h.commit_id, h.id`
	rows, err := conn(ctx, r.pool).Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("list parents of team %d: %w", teamID, err)
	}
	defer rows.Close()

	var result []domain.ParentHistoryEntry
	for rows.Next() {
		entry, err := scanParent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *historyRepository) Watermark(ctx context.Context) (int64, error) {
	// Row counts rather than MAX(id): a sequence value handed out to a
	// transaction that commits later would not move MAX(id).
	const query = `
        SELECT (SELECT COUNT(*) FROM name_history)
             + (SELECT COUNT(*) FROM team_parent_history)`
	var mark int64
	if err := conn(ctx, r.pool).QueryRow(ctx, query).Scan(&mark); err != nil {
		return 0, fmt.Errorf("ledger watermark: %w", err)
	}
	return mark, nil
}

func scanName(row scannable) (domain.NameHistoryEntry, error) {
	var entry domain.NameHistoryEntry
	err := row.Scan(&entry.ID, &entry.CommitID, &entry.EntityKind, &entry.EntityID, &entry.Name, &entry.CreatedAt)
	return entry, err
}

func scanParent(row scannable) (domain.ParentHistoryEntry, error) {
	var entry domain.ParentHistoryEntry
	err := row.Scan(&entry.ID, &entry.CommitID, &entry.TeamID, &entry.ParentTeamID, &entry.CreatedAt)
	return entry, err
}
