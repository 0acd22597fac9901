package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := New(fixedClock)
	repos := store.Repositories()
	ctx := context.Background()

	corp := &domain.Corporation{Name: "Acme", IsActive: true}
	require.NoError(t, repos.Corporations.Create(ctx, corp))

	boom := errors.New("boom")
	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		corp.Name = "Renamed"
		require.NoError(t, repos.Corporations.Update(ctx, corp))
		require.NoError(t, repos.History.AppendName(ctx, &domain.NameHistoryEntry{
			CommitID: 1, EntityKind: domain.EntityCorporation, EntityID: corp.ID, Name: "Renamed",
		}))
		team := &domain.Team{Name: "T", CorporationID: &corp.ID, IsActive: true}
		require.NoError(t, repos.Teams.Create(ctx, team))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repos.Corporations.GetByID(ctx, corp.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Name)

	teams, err := repos.Teams.ListByCorporation(ctx, &corp.ID)
	require.NoError(t, err)
	require.Empty(t, teams)

	mark, err := repos.History.Watermark(ctx)
	require.NoError(t, err)
	require.Zero(t, mark)

	// sequences rewind with the rest of the state
	next := &domain.Team{Name: "T2", CorporationID: &corp.ID, IsActive: true}
	require.NoError(t, repos.Teams.Create(ctx, next))
	require.Equal(t, int64(1), next.ID)
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	store := New(fixedClock)
	repos := store.Repositories()
	ctx := context.Background()

	err := repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
			return repos.Persons.Create(ctx, &domain.Person{EmployeeID: "E-1", Name: "Ann"})
		})
	})
	require.NoError(t, err)

	_, err = repos.Persons.GetByID(ctx, 1)
	require.NoError(t, err)
}

func TestHistory_LatestPerGroupAsOf(t *testing.T) {
	repos := New(fixedClock).Repositories()
	ctx := context.Background()

	appendName := func(commit, entity int64, name string) {
		require.NoError(t, repos.History.AppendName(ctx, &domain.NameHistoryEntry{
			CommitID: commit, EntityKind: domain.EntityTeam, EntityID: entity, Name: name,
		}))
	}
	appendName(1, 10, "a")
	appendName(2, 10, "b")
	appendName(2, 10, "c")
	appendName(1, 11, "x")
	appendName(3, 11, "")
	// a late append for an earlier commit still orders by commit first
	appendName(1, 12, "first")
	appendName(3, 12, "third")
	appendName(2, 12, "second")

	at2, err := repos.History.LatestNamesAsOf(ctx, domain.EntityTeam, 2, nil)
	require.NoError(t, err)
	require.Equal(t, "c", at2[10].Name)
	require.Equal(t, "x", at2[11].Name)
	require.Equal(t, "second", at2[12].Name)

	at3, err := repos.History.LatestNamesAsOf(ctx, domain.EntityTeam, 3, []int64{11, 12})
	require.NoError(t, err)
	require.Len(t, at3, 2)
	require.True(t, at3[11].IsDeletion())
	require.Equal(t, "third", at3[12].Name)

	none, err := repos.History.LatestNameAsOf(ctx, domain.EntityCorporation, 10, 3)
	require.NoError(t, err)
	require.Nil(t, none)

	tracked, err := repos.History.EntitiesWithNameHistory(ctx, domain.EntityTeam, []int64{10, 99})
	require.NoError(t, err)
	require.Equal(t, map[int64]bool{10: true}, tracked)
}

func TestHistory_ParentsAndWatermark(t *testing.T) {
	repos := New(fixedClock).Repositories()
	ctx := context.Background()
	parent := int64(5)

	require.NoError(t, repos.History.AppendParent(ctx, &domain.ParentHistoryEntry{CommitID: 1, TeamID: 7, ParentTeamID: &parent}))
	require.NoError(t, repos.History.AppendParent(ctx, &domain.ParentHistoryEntry{CommitID: 2, TeamID: 7}))

	at1, err := repos.History.LatestParentAsOf(ctx, 7, 1)
	require.NoError(t, err)
	require.Equal(t, parent, *at1.ParentTeamID)

	at2, err := repos.History.LatestParentAsOf(ctx, 7, 2)
	require.NoError(t, err)
	require.Nil(t, at2.ParentTeamID)

	mark, err := repos.History.Watermark(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), mark)
}

func TestRepos_NotFound(t *testing.T) {
	repos := New(nil).Repositories()
	ctx := context.Background()

	_, err := repos.Teams.GetByID(ctx, 1)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repos.Commits.Latest(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repos.Commits.UpdateMessage(ctx, 3, "x"), repository.ErrNotFound)
}
