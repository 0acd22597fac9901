package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/orgchart-service/internal/domain"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

func TestCorporationAsOf_RenameIsInvisibleToEarlierCommits(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	eng, _ := f.team(onCommit(c1), "Engineering", corp.ID, nil)

	detail, err := f.svc.GetCorporation(f.ctx, corp.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{eng.ID}, teamIDs(detail.SubTeams))

	c2 := f.rename(newCommit(), eng.ID, "Eng")

	before, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c1.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", before.Name)
	require.True(t, before.IsActive)
	require.Equal(t, []domain.TeamRef{{ID: eng.ID, Name: "Engineering"}}, before.SubTeams)

	after, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c2.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.TeamRef{{ID: eng.ID, Name: "Eng"}}, after.SubTeams)

	live, err := f.svc.GetTeam(f.ctx, eng.ID)
	require.NoError(t, err)
	require.Equal(t, "Eng", live.Team.Name)
}

func TestTeamAsOf_NameAtEachCommit(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(onCommit(c1), "Original", corp.ID, nil)
	c2 := f.rename(newCommit(), team.ID, "Second")
	c3 := f.rename(newCommit(), team.ID, "Third")

	for commit, want := range map[int64]string{c1.ID: "Original", c2.ID: "Second", c3.ID: "Third"} {
		snap, err := f.svc.TeamAsOf(f.ctx, team.ID, commit)
		require.NoError(t, err)
		require.Equal(t, want, snap.Name, "commit %d", commit)
	}
}

func TestTeamAsOf_LastWriteInsideCommitWins(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(onCommit(c1), "Draft", corp.ID, nil)
	f.rename(onCommit(c1), team.ID, "Final")

	snap, err := f.svc.TeamAsOf(f.ctx, team.ID, c1.ID)
	require.NoError(t, err)
	require.Equal(t, "Final", snap.Name)
}

func TestTeamAsOf_AncestorOrder(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	top, _ := f.team(onCommit(c1), "Top", corp.ID, nil)
	mid, _ := f.team(onCommit(c1), "Mid", corp.ID, top)
	low, _ := f.team(onCommit(c1), "Low", corp.ID, mid)
	leaf, _ := f.team(onCommit(c1), "Leaf", corp.ID, low)

	snap, err := f.svc.TeamAsOf(f.ctx, leaf.ID, c1.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.AncestorRef{
		{ID: low.ID, Name: "Low", Order: 0},
		{ID: mid.ID, Name: "Mid", Order: 1},
		{ID: top.ID, Name: "Top", Order: 2},
	}, snap.ParentTeams)
	require.Equal(t, corp.ID, *snap.CorporationID)

	midSnap, err := f.svc.TeamAsOf(f.ctx, mid.ID, c1.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.TeamRef{{ID: low.ID, Name: "Low"}}, midSnap.SubTeams)
}

func TestTeamAsOf_ReparentKeepsHistoricalChain(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	top, _ := f.team(onCommit(c1), "Top", corp.ID, nil)
	mid, _ := f.team(onCommit(c1), "Mid", corp.ID, top)
	leaf, _ := f.team(onCommit(c1), "Leaf", corp.ID, mid)

	_, c2, err := f.svc.UpdateTeam(f.ctx, f.actor, mid.ID, newCommit(), UpdateTeamInput{Reparent: true})
	require.NoError(t, err)

	old, err := f.svc.TeamAsOf(f.ctx, leaf.ID, c1.ID)
	require.NoError(t, err)
	require.Len(t, old.ParentTeams, 2)
	require.Equal(t, top.ID, old.ParentTeams[1].ID)

	now, err := f.svc.TeamAsOf(f.ctx, leaf.ID, c2.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.AncestorRef{{ID: mid.ID, Name: "Mid", Order: 0}}, now.ParentTeams)

	corpOld, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c1.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.TeamRef{{ID: top.ID, Name: "Top"}}, corpOld.SubTeams)

	corpNow, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c2.ID)
	require.NoError(t, err)
	require.Equal(t, refs(top, mid), corpNow.SubTeams)
}

func TestTeamAsOf_BeforeCreation(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(newCommit(), "Later", corp.ID, nil)

	_, err := f.svc.TeamAsOf(f.ctx, team.ID, c1.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	corpSnap, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c1.ID)
	require.NoError(t, err)
	require.Empty(t, corpSnap.SubTeams)
}

func TestAsOf_UnknownCommitOrEntity(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")

	_, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c1.ID+100)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.TeamAsOf(f.ctx, 12345, c1.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestAsOf_DeactivatedCorporation(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	t1, _ := f.team(onCommit(c1), "T1", corp.ID, nil)
	t2, _ := f.team(onCommit(c1), "T2", corp.ID, t1)
	_, c2, err := f.svc.DeactivateCorporation(f.ctx, f.actor, corp.ID, newCommit())
	require.NoError(t, err)

	before, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c1.ID)
	require.NoError(t, err)
	require.True(t, before.IsActive)
	require.Equal(t, refs(t1), before.SubTeams)

	after, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c2.ID)
	require.NoError(t, err)
	require.False(t, after.IsActive)
	require.Equal(t, "Acme", after.Name)
	require.Empty(t, after.SubTeams)

	teamAfter, err := f.svc.TeamAsOf(f.ctx, t2.ID, c2.ID)
	require.NoError(t, err)
	require.False(t, teamAfter.IsActive)
	require.Equal(t, "T2", teamAfter.Name)
	require.Empty(t, teamAfter.ParentTeams)

	teamBefore, err := f.svc.TeamAsOf(f.ctx, t2.ID, c1.ID)
	require.NoError(t, err)
	require.True(t, teamBefore.IsActive)
	require.Equal(t, t1.ID, teamBefore.ParentTeams[0].ID)
}
