package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/orgchart-service/internal/domain"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

func TestRoles_HeadPropagatesToMembers(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(onCommit(c1), "Support", corp.ID, nil)

	m1 := f.role(f.person("E-1", "Mia").ID, team.ID, domain.RoleMember)
	m2 := f.role(f.person("E-2", "Max").ID, team.ID, domain.RoleMember)
	require.Nil(t, m1.SupervisorID)

	first := f.person("E-3", "Pat")
	headRole := f.role(first.ID, team.ID, domain.RoleHead)
	require.Equal(t, first.ID, *f.liveTeam(team.ID).LeaderID)
	for _, id := range []int64{m1.ID, m2.ID} {
		require.Equal(t, first.ID, *f.liveRole(id).SupervisorID)
	}

	second := f.person("E-4", "Quinn")
	f.role(second.ID, team.ID, domain.RoleHead)
	require.Equal(t, second.ID, *f.liveTeam(team.ID).LeaderID)
	require.NotNil(t, f.liveRole(headRole.ID).EndDate, "previous head's role is closed")

	history, err := f.svc.SupervisorHistory(f.ctx, f.liveRole(m1.ID).PersonID, m1.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Nil(t, history[0].OldSupervisorID)
	require.Equal(t, first.ID, *history[0].NewSupervisorID)
	require.Equal(t, first.ID, *history[1].OldSupervisorID)
	require.Equal(t, second.ID, *history[1].NewSupervisorID)
}

func TestRoles_MemberDefaultsToLeader(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	parent, _ := f.team(onCommit(c1), "Division", corp.ID, nil)
	child, _ := f.team(onCommit(c1), "Squad", corp.ID, parent)

	director := f.person("E-1", "Dana")
	f.role(director.ID, parent.ID, domain.RoleHead)

	// without a leader of its own the squad reports upward
	early := f.role(f.person("E-2", "Eli").ID, child.ID, domain.RoleMember)
	require.Equal(t, director.ID, *early.SupervisorID)

	lead := f.person("E-3", "Lee")
	leadRole := f.role(lead.ID, child.ID, domain.RoleHead)
	require.Equal(t, director.ID, *leadRole.SupervisorID)

	late := f.role(f.person("E-4", "Kim").ID, child.ID, domain.RoleMember)
	require.Equal(t, lead.ID, *late.SupervisorID)
	require.Equal(t, lead.ID, *f.liveRole(early.ID).SupervisorID)
}

func TestRoles_ParentLeaderChangeReachesChildTeams(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	division, _ := f.team(onCommit(c1), "Division", corp.ID, nil)
	squad, _ := f.team(onCommit(c1), "Squad", corp.ID, division)
	leaderless, _ := f.team(onCommit(c1), "Squad 2", corp.ID, division)

	lead := f.person("E-1", "Lee")
	leadRole := f.role(lead.ID, squad.ID, domain.RoleHead)
	require.Nil(t, leadRole.SupervisorID)
	squadMember := f.role(f.person("E-2", "Kim").ID, squad.ID, domain.RoleMember)
	loose := f.role(f.person("E-3", "Ola").ID, leaderless.ID, domain.RoleMember)
	require.Nil(t, loose.SupervisorID)

	director := f.person("E-4", "Dana")
	directorRole := f.role(director.ID, division.ID, domain.RoleHead)

	require.Equal(t, director.ID, *f.liveRole(leadRole.ID).SupervisorID)
	require.Equal(t, director.ID, *f.liveRole(loose.ID).SupervisorID)
	require.Equal(t, lead.ID, *f.liveRole(squadMember.ID).SupervisorID)

	// matches what a head created now would get
	later := f.role(f.person("E-5", "Max").ID, leaderless.ID, domain.RoleHead)
	require.Equal(t, director.ID, *later.SupervisorID)

	history, err := f.svc.SupervisorHistory(f.ctx, lead.ID, leadRole.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Nil(t, history[0].OldSupervisorID)
	require.Equal(t, director.ID, *history[0].NewSupervisorID)

	_, err = f.svc.CloseRole(f.ctx, f.actor, director.ID, directorRole.ID)
	require.NoError(t, err)
	require.Nil(t, f.liveRole(leadRole.ID).SupervisorID)
	require.Nil(t, f.liveRole(later.ID).SupervisorID)
	require.Equal(t, lead.ID, *f.liveRole(squadMember.ID).SupervisorID)
}

func TestRoles_DemotionResetsSupervisors(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(onCommit(c1), "Support", corp.ID, nil)

	member := f.role(f.person("E-1", "Mia").ID, team.ID, domain.RoleMember)
	head := f.person("E-2", "Pat")
	headRole := f.role(head.ID, team.ID, domain.RoleHead)

	designation := domain.RoleMember
	updated, err := f.svc.UpdateRole(f.ctx, f.actor, head.ID, headRole.ID, UpdateRoleInput{Designation: &designation})
	require.NoError(t, err)
	require.Equal(t, domain.RoleMember, updated.Designation)
	require.Nil(t, f.liveTeam(team.ID).LeaderID)
	require.Nil(t, f.liveRole(member.ID).SupervisorID)

	history, err := f.svc.SupervisorHistory(f.ctx, f.liveRole(member.ID).PersonID, member.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestRoles_ClosingHeadClearsLeader(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(onCommit(c1), "Support", corp.ID, nil)
	head := f.person("E-1", "Pat")
	role := f.role(head.ID, team.ID, domain.RoleHead)

	closed, err := f.svc.CloseRole(f.ctx, f.actor, head.ID, role.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.EndDate)
	require.Nil(t, f.liveTeam(team.ID).LeaderID)

	again, err := f.svc.CloseRole(f.ctx, f.actor, head.ID, role.ID)
	require.NoError(t, err)
	require.Equal(t, closed.EndDate, again.EndDate)
}

func TestRoles_SecondOpenRoleIsRejected(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(onCommit(c1), "Support", corp.ID, nil)
	person := f.person("E-1", "Mia")
	first := f.role(person.ID, team.ID, domain.RoleMember)

	_, err := f.svc.CreateRole(f.ctx, f.actor, CreateRoleInput{PersonID: person.ID, TeamID: team.ID, Designation: domain.RoleMember})
	requireCode(t, err, apperrors.CodeInvariant)

	replacement, err := f.svc.CreateRole(f.ctx, f.actor, CreateRoleInput{
		PersonID:    person.ID,
		TeamID:      team.ID,
		Designation: domain.RoleHead,
		OldRoleID:   &first.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, f.liveRole(first.ID).EndDate)
	require.Equal(t, person.ID, *f.liveTeam(team.ID).LeaderID)

	roles, err := f.svc.RolesOf(f.ctx, person.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	require.Equal(t, replacement.ID, roles[0].ID)
}

func TestRoles_Validation(t *testing.T) {
	f := newFixture(t)
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(onCommit(c1), "Support", corp.ID, nil)
	person := f.person("E-1", "Mia")
	missing := int64(9999)

	_, err := f.svc.CreateRole(f.ctx, f.actor, CreateRoleInput{PersonID: person.ID, TeamID: team.ID, Designation: "BOSS"})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.CreateRole(f.ctx, f.actor, CreateRoleInput{PersonID: missing, TeamID: team.ID, Designation: domain.RoleMember})
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.CreateRole(f.ctx, f.actor, CreateRoleInput{PersonID: person.ID, TeamID: team.ID, Designation: domain.RoleMember, SupervisorID: &missing})
	requireCode(t, err, apperrors.CodeValidation)

	role := f.role(person.ID, team.ID, domain.RoleMember)
	other := f.person("E-2", "Max")
	_, err = f.svc.SupervisorHistory(f.ctx, other.ID, role.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}
