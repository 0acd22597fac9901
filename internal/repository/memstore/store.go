// Package memstore is an in-process implementation of the repository
// interfaces. It backs the service when no database is configured and is the
// fixture store for service and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
)

type memberKey struct {
	teamID   int64
	personID int64
}

type state struct {
	seq          map[string]int64
	corporations map[int64]domain.Corporation
	teams        map[int64]domain.Team
	members      map[memberKey]struct{}
	persons      map[int64]domain.Person
	roles        map[int64]domain.Role
	supervisors  []domain.RoleSupervisorHistory
	commits      map[int64]domain.Commit
	actions      []domain.CommitAction
	names        []domain.NameHistoryEntry
	parents      []domain.ParentHistoryEntry
	drafts       map[int64]domain.Draft
}

func newState() *state {
	return &state{
		seq:          map[string]int64{},
		corporations: map[int64]domain.Corporation{},
		teams:        map[int64]domain.Team{},
		members:      map[memberKey]struct{}{},
		persons:      map[int64]domain.Person{},
		roles:        map[int64]domain.Role{},
		commits:      map[int64]domain.Commit{},
		drafts:       map[int64]domain.Draft{},
	}
}

// clone copies every table. Append-only slices are copied by value so a
// rolled back transaction cannot leave entries behind.
func (s *state) clone() *state {
	c := &state{
		seq:          make(map[string]int64, len(s.seq)),
		corporations: make(map[int64]domain.Corporation, len(s.corporations)),
		teams:        make(map[int64]domain.Team, len(s.teams)),
		members:      make(map[memberKey]struct{}, len(s.members)),
		persons:      make(map[int64]domain.Person, len(s.persons)),
		roles:        make(map[int64]domain.Role, len(s.roles)),
		commits:      make(map[int64]domain.Commit, len(s.commits)),
		supervisors:  append([]domain.RoleSupervisorHistory(nil), s.supervisors...),
		actions:      append([]domain.CommitAction(nil), s.actions...),
		names:        append([]domain.NameHistoryEntry(nil), s.names...),
		parents:      append([]domain.ParentHistoryEntry(nil), s.parents...),
		drafts:       make(map[int64]domain.Draft, len(s.drafts)),
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	for k, v := range s.corporations {
		c.corporations[k] = v
	}
	for k, v := range s.teams {
		c.teams[k] = v
	}
	for k := range s.members {
		c.members[k] = struct{}{}
	}
	for k, v := range s.persons {
		c.persons[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.commits {
		c.commits[k] = v
	}
	for k, v := range s.drafts {
		c.drafts[k] = v
	}
	return c
}

func (s *state) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

type txKey struct{}

// Store holds all tables behind one mutex. A transaction clones the state up
// front and restores the clone when the unit of work fails.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// New creates an empty store. A nil clock defaults to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{state: newState(), now: now}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Tx:           s,
		Corporations: &corporationRepo{s},
		Teams:        &teamRepo{s},
		Persons:      &personRepo{s},
		Roles:        &roleRepo{s},
		Commits:      &commitRepo{s},
		History:      &historyRepo{s},
		Drafts:       &draftRepo{s},
	}
}

// WithinTx runs fn with the store locked. Nested calls join the outer unit of work.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = saved
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// with runs fn against the live state, locking unless ctx already holds the store.
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.state)
}

func sortTeams(teams []domain.Team) []domain.Team {
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams
}

func sortRoles(roles []domain.Role) []domain.Role {
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles
}
