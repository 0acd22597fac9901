package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/orgchart-service/internal/config"
	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/events"
	"github.com/spec-kit/orgchart-service/internal/repository"
	"github.com/spec-kit/orgchart-service/internal/repository/memstore"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// tickingClock advances one second per reading so timestamps are strictly ordered.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	svc    *OrgService
	repos  repository.Repositories
	actor  int64
	events []events.Event
}

type fixtureOption func(*OrgDependencies)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	clock := &tickingClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	store := memstore.New(clock.Now)
	f := &fixture{t: t, ctx: context.Background(), repos: store.Repositories()}

	dispatcher := events.NewInMemoryDispatcher()
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.events = append(f.events, e)
			return nil
		})
	}
	deps := OrgDependencies{
		Repos:      f.repos,
		Org:        config.OrgConfig{DuplicateTeamNames: config.DuplicateTeamNamesAllow},
		Dispatcher: dispatcher,
		Now:        clock.Now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc = NewOrgService(deps)
	f.actor = f.person("E-0001", "Admin").ID
	return f
}

func (f *fixture) person(employeeID, name string) *domain.Person {
	f.t.Helper()
	p, err := f.svc.CreatePerson(f.ctx, employeeID, name)
	require.NoError(f.t, err)
	return p
}

func newCommit() domain.CommitSelector {
	return domain.CommitSelector{New: true}
}

func onCommit(c *domain.Commit) domain.CommitSelector {
	return domain.CommitSelector{ID: &c.ID}
}

func (f *fixture) corporation(sel domain.CommitSelector, name string) (*domain.Corporation, *domain.Commit) {
	f.t.Helper()
	corp, commit, err := f.svc.CreateCorporation(f.ctx, f.actor, sel, CreateCorporationInput{Name: name})
	require.NoError(f.t, err)
	return corp, commit
}

func (f *fixture) team(sel domain.CommitSelector, name string, corpID int64, parent *domain.Team) (*domain.Team, *domain.Commit) {
	f.t.Helper()
	in := CreateTeamInput{Name: name, CorporationID: &corpID}
	if parent != nil {
		in.ParentIDs = []int64{parent.ID}
	}
	team, commit, err := f.svc.CreateTeam(f.ctx, f.actor, sel, in)
	require.NoError(f.t, err)
	return team, commit
}

func (f *fixture) rename(sel domain.CommitSelector, teamID int64, name string) *domain.Commit {
	f.t.Helper()
	_, commit, err := f.svc.UpdateTeam(f.ctx, f.actor, teamID, sel, UpdateTeamInput{Name: &name})
	require.NoError(f.t, err)
	return commit
}

func (f *fixture) role(personID, teamID int64, designation domain.RoleDesignation) *domain.Role {
	f.t.Helper()
	role, err := f.svc.CreateRole(f.ctx, f.actor, CreateRoleInput{PersonID: personID, TeamID: teamID, Designation: designation})
	require.NoError(f.t, err)
	return role
}

func (f *fixture) liveTeam(id int64) *domain.Team {
	f.t.Helper()
	team, err := f.repos.Teams.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return team
}

func (f *fixture) liveRole(id int64) *domain.Role {
	f.t.Helper()
	role, err := f.repos.Roles.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return role
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.IsCode(err, code), "want %s, got %v", code, err)
}

func refs(teams ...*domain.Team) []domain.TeamRef {
	out := make([]domain.TeamRef, 0, len(teams))
	for _, t := range teams {
		out = append(out, domain.TeamRef{ID: t.ID, Name: t.Name})
	}
	return out
}
