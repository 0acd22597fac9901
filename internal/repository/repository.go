package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/orgchart-service/internal/persistence"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// Transactor runs a unit of work atomically. Repositories called with the
// context handed to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories bundles every store the organization services depend on.
type Repositories struct {
	Tx           Transactor
	Corporations CorporationRepository
	Teams        TeamRepository
	Persons      PersonRepository
	Roles        RoleRepository
	Commits      CommitRepository
	History      HistoryRepository
	Drafts       DraftRepository
}

// NewPostgresRepositories wires the pgx-backed repositories.
func NewPostgresRepositories(pg *persistence.Postgres) Repositories {
	pool := pg.PoolHandle()
	return Repositories{
		Tx:           pg,
		Corporations: NewCorporationRepository(pool),
		Teams:        NewTeamRepository(pool),
		Persons:      NewPersonRepository(pool),
		Roles:        NewRoleRepository(pool),
		Commits:      NewCommitRepository(pool),
		History:      NewHistoryRepository(pool),
		Drafts:       NewDraftRepository(pool),
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func conn(ctx context.Context, pool *pgxpool.Pool) persistence.Querier {
	return persistence.Conn(ctx, pool)
}

// notFoundWrap maps pgx.ErrNoRows onto ErrNotFound.
func notFoundWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// execExpectOne verifies that an Exec affected exactly one row.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return nil
}

// idsOrEmpty keeps ANY($n) happy for nil slices.
func idsOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
