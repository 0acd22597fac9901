package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/orgchart-service/internal/cache"
	"github.com/spec-kit/orgchart-service/internal/config"
	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/events"
	"github.com/spec-kit/orgchart-service/internal/observability"
	"github.com/spec-kit/orgchart-service/internal/repository"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// OrgService is the entry point for organization reads and writes. Each
// mutating call runs in one transaction; events go out after it commits.
type OrgService struct {
	tx            repository.Transactor
	persons       repository.PersonRepository
	hierarchy     *Hierarchy
	ledger        *Ledger
	commits       *CommitManager
	mutations     *MutationEngine
	roles         *RoleEngine
	reconstructor *Reconstructor
	snapshots     *SnapshotCache
	drafts        *DraftBook
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

// OrgDependencies bundles collaborators for the service.
type OrgDependencies struct {
	Repos       repository.Repositories
	Org         config.OrgConfig
	Cache       cache.Cache
	SnapshotTTL time.Duration
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Now         func() time.Time
}

// CreateCorporationInput describes a new corporation.
type CreateCorporationInput struct {
	Name     string
	IsMaster bool
}

// UpdateTeamInput carries an optional rename and an optional reparent.
// Reparent with a nil ParentID moves the team to the top level.
type UpdateTeamInput struct {
	Name     *string
	Reparent bool
	ParentID *int64
}

// PatchCorporationInput carries an optional rename plus non-structural fields.
type PatchCorporationInput struct {
	Name *string
	UpdateCorporationInput
}

// CorporationDetail is the live view of a corporation.
type CorporationDetail struct {
	Corporation domain.Corporation
	SubTeams    []domain.Team
}

// TeamDetail is the live view of a team.
type TeamDetail struct {
	Team      domain.Team
	SubTeams  []domain.Team
	Ancestors []domain.AncestorRef
	MemberIDs []int64
}

// NewOrgService wires the engines over deps.Repos.
func NewOrgService(deps OrgDependencies) *OrgService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	repos := deps.Repos
	hierarchy := NewHierarchy(repos.Corporations, repos.Teams)
	ledger := NewLedger(repos.History)
	commits := NewCommitManager(repos.Commits, repos.Persons, now)
	return &OrgService{
		tx:            repos.Tx,
		persons:       repos.Persons,
		hierarchy:     hierarchy,
		ledger:        ledger,
		commits:       commits,
		mutations:     NewMutationEngine(repos, hierarchy, ledger, commits, deps.Org.RejectDuplicateTeamNames(), now),
		roles:         NewRoleEngine(repos, hierarchy, now),
		reconstructor: NewReconstructor(repos, hierarchy, ledger, commits),
		snapshots:     NewSnapshotCache(deps.Cache, deps.SnapshotTTL, logger, deps.Metrics),
		drafts:        NewDraftBook(repos.Drafts, hierarchy),
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		metrics:       deps.Metrics,
		now:           now,
	}
}

func (s *OrgService) CreateCorporation(ctx context.Context, actorID int64, sel domain.CommitSelector, in CreateCorporationInput) (*domain.Corporation, *domain.Commit, error) {
	var corp *domain.Corporation
	commit, err := s.inCommit(ctx, actorID, sel, func(ctx context.Context, commit *domain.Commit) error {
		var err error
		corp, err = s.mutations.CreateCorporation(ctx, commit, in.Name, in.IsMaster)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return corp, commit, nil
}

// UpdateCorporation renames the corporation (ledger tracked) and applies the
// non-structural fields in one transaction.
func (s *OrgService) UpdateCorporation(ctx context.Context, actorID, corpID int64, sel domain.CommitSelector, in PatchCorporationInput) (*domain.Corporation, *domain.Commit, error) {
	var corp *domain.Corporation
	commit, err := s.inCommit(ctx, actorID, sel, func(ctx context.Context, commit *domain.Commit) error {
		var err error
		if in.Name != nil {
			if corp, err = s.mutations.RenameCorporation(ctx, commit, corpID, *in.Name); err != nil {
				return err
			}
		}
		corp, err = s.mutations.UpdateCorporation(ctx, corpID, in.UpdateCorporationInput)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return corp, commit, nil
}

func (s *OrgService) DeactivateCorporation(ctx context.Context, actorID, corpID int64, sel domain.CommitSelector) ([]int64, *domain.Commit, error) {
	var ids []int64
	commit, err := s.inCommit(ctx, actorID, sel, func(ctx context.Context, commit *domain.Commit) error {
		var err error
		ids, err = s.mutations.DeactivateCorporation(ctx, commit, corpID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.metrics.ObserveCascade(len(ids))
	return nonNilIDs(ids), commit, nil
}

func (s *OrgService) CreateTeam(ctx context.Context, actorID int64, sel domain.CommitSelector, in CreateTeamInput) (*domain.Team, *domain.Commit, error) {
	var team *domain.Team
	commit, err := s.inCommit(ctx, actorID, sel, func(ctx context.Context, commit *domain.Commit) error {
		var err error
		team, err = s.mutations.CreateTeam(ctx, commit, in)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return team, commit, nil
}

// UpdateTeam renames and/or reparents a team under one commit.
func (s *OrgService) UpdateTeam(ctx context.Context, actorID, teamID int64, sel domain.CommitSelector, in UpdateTeamInput) (*domain.Team, *domain.Commit, error) {
	if in.Name == nil && !in.Reparent {
		return nil, nil, apperrors.NewValidationError("nothing to update", nil)
	}
	var team *domain.Team
	commit, err := s.inCommit(ctx, actorID, sel, func(ctx context.Context, commit *domain.Commit) error {
		var err error
		if in.Name != nil {
			if team, err = s.mutations.RenameTeam(ctx, commit, teamID, *in.Name); err != nil {
				return err
			}
		}
		if in.Reparent {
			if team, err = s.mutations.ReparentTeam(ctx, commit, teamID, in.ParentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return team, commit, nil
}

func (s *OrgService) DeactivateTeam(ctx context.Context, actorID, teamID int64, sel domain.CommitSelector) ([]int64, *domain.Commit, error) {
	var ids []int64
	commit, err := s.inCommit(ctx, actorID, sel, func(ctx context.Context, commit *domain.Commit) error {
		var err error
		ids, err = s.mutations.DeactivateTeam(ctx, commit, teamID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.metrics.ObserveCascade(len(ids))
	return nonNilIDs(ids), commit, nil
}

func (s *OrgService) GetCorporation(ctx context.Context, corpID int64) (*CorporationDetail, error) {
	corp, err := s.hierarchy.GetCorporation(ctx, corpID)
	if err != nil {
		return nil, err
	}
	teams, err := s.hierarchy.TopLevelTeamsOf(ctx, corpID)
	if err != nil {
		return nil, err
	}
	return &CorporationDetail{Corporation: *corp, SubTeams: activeOnly(teams)}, nil
}

func (s *OrgService) CorporationTree(ctx context.Context, corpID int64) ([]TreeNode, error) {
	return s.hierarchy.Tree(ctx, corpID)
}

func (s *OrgService) GetTeam(ctx context.Context, teamID int64) (*TeamDetail, error) {
	team, err := s.hierarchy.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	children, err := s.hierarchy.ChildrenOf(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ancestors, err := s.hierarchy.Ancestors(ctx, team)
	if err != nil {
		return nil, err
	}
	members, err := s.hierarchy.MemberIDs(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return &TeamDetail{Team: *team, SubTeams: activeOnly(children), Ancestors: ancestors, MemberIDs: members}, nil
}

// CorporationAsOf returns the corporation as it was at commitID.
func (s *OrgService) CorporationAsOf(ctx context.Context, corpID, commitID int64) (*domain.CorporationSnapshot, error) {
	mark, err := s.ledger.Watermark(ctx)
	if err != nil {
		return nil, err
	}
	key := snapshotKey(domain.EntityCorporation, corpID, commitID, mark)
	var cached domain.CorporationSnapshot
	if s.snapshots.load(ctx, key, &cached) {
		return &cached, nil
	}
	snapshot, err := s.reconstructor.CorporationAsOf(ctx, corpID, commitID)
	if err != nil {
		return nil, err
	}
	s.snapshots.store(ctx, key, snapshot)
	return snapshot, nil
}

// TeamAsOf returns the team as it was at commitID.
func (s *OrgService) TeamAsOf(ctx context.Context, teamID, commitID int64) (*domain.TeamSnapshot, error) {
	mark, err := s.ledger.Watermark(ctx)
	if err != nil {
		return nil, err
	}
	key := snapshotKey(domain.EntityTeam, teamID, commitID, mark)
	var cached domain.TeamSnapshot
	if s.snapshots.load(ctx, key, &cached) {
		return &cached, nil
	}
	snapshot, err := s.reconstructor.TeamAsOf(ctx, teamID, commitID)
	if err != nil {
		return nil, err
	}
	s.snapshots.store(ctx, key, snapshot)
	return snapshot, nil
}

func (s *OrgService) ListCommits(ctx context.Context, corporationID *int64) ([]domain.Commit, error) {
	return s.commits.List(ctx, corporationID)
}

func (s *OrgService) LatestCommit(ctx context.Context) (*domain.Commit, error) {
	return s.commits.Latest(ctx)
}

func (s *OrgService) GetCommit(ctx context.Context, id int64) (*domain.Commit, error) {
	return s.commits.Get(ctx, id)
}

func (s *OrgService) CompareCommits(ctx context.Context, from, to int64) (*CommitDiff, error) {
	return s.commits.Compare(ctx, from, to)
}

func (s *OrgService) AnnotateCommit(ctx context.Context, id int64, message string) (*domain.Commit, error) {
	return s.commits.Annotate(ctx, id, message)
}

// StartCommit opens an empty commit owned by actorID.
func (s *OrgService) StartCommit(ctx context.Context, actorID int64, message string) (*domain.Commit, error) {
	return s.commits.Resolve(ctx, domain.CommitSelector{New: true, Message: message}, actorID)
}

func (s *OrgService) RolesOf(ctx context.Context, personID int64) ([]domain.Role, error) {
	return s.roles.RolesOf(ctx, personID)
}

func (s *OrgService) SupervisorHistory(ctx context.Context, personID, roleID int64) ([]domain.RoleSupervisorHistory, error) {
	return s.roles.SupervisorHistory(ctx, personID, roleID)
}

func (s *OrgService) CreateRole(ctx context.Context, actorID int64, in CreateRoleInput) (*domain.Role, error) {
	var role *domain.Role
	err := s.inTx(ctx, actorID, func(ctx context.Context) error {
		var err error
		role, err = s.roles.CreateRole(ctx, in)
		return err
	})
	return role, err
}

func (s *OrgService) UpdateRole(ctx context.Context, actorID, personID, roleID int64, in UpdateRoleInput) (*domain.Role, error) {
	var role *domain.Role
	err := s.inTx(ctx, actorID, func(ctx context.Context) error {
		var err error
		role, err = s.roles.UpdateRole(ctx, personID, roleID, in)
		return err
	})
	return role, err
}

func (s *OrgService) CloseRole(ctx context.Context, actorID, personID, roleID int64) (*domain.Role, error) {
	var role *domain.Role
	err := s.inTx(ctx, actorID, func(ctx context.Context) error {
		var err error
		role, err = s.roles.CloseRole(ctx, personID, roleID)
		return err
	})
	return role, err
}

// CreatePerson registers a person record. Used by bootstrap tooling.
func (s *OrgService) CreatePerson(ctx context.Context, employeeID, name string) (*domain.Person, error) {
	person := &domain.Person{EmployeeID: employeeID, Name: name}
	if err := s.persons.Create(ctx, person); err != nil {
		return nil, apperrors.MapError(err)
	}
	return person, nil
}

// SaveDraft stores a pending reorganization for actorID. Drafts are outside
// commit history.
func (s *OrgService) SaveDraft(ctx context.Context, actorID int64, in SaveDraftInput) (*domain.Draft, error) {
	var draft *domain.Draft
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		draft, err = s.drafts.Save(ctx, actorID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("draft saved", zap.Int64("draft_id", draft.ID), zap.Int64("actor_id", actorID))
	return draft, nil
}

func (s *OrgService) GetDraft(ctx context.Context, actorID, draftID int64) (*domain.Draft, error) {
	return s.drafts.Get(ctx, actorID, draftID)
}

func (s *OrgService) ListDrafts(ctx context.Context, actorID int64, corporationID *int64) ([]domain.Draft, error) {
	return s.drafts.List(ctx, actorID, corporationID)
}

func (s *OrgService) DeleteDraft(ctx context.Context, actorID, draftID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.drafts.Delete(ctx, actorID, draftID)
	})
}

// inCommit resolves the commit and runs fn in one transaction, then reports
// what the unit of work produced. A new commit that would stay empty is
// rolled back and reported as nil.
func (s *OrgService) inCommit(ctx context.Context, actorID int64, sel domain.CommitSelector, fn func(ctx context.Context, commit *domain.Commit) error) (*domain.Commit, error) {
	unit := &unitOfWork{}
	err := s.tx.WithinTx(withUnit(ctx, unit), func(ctx context.Context) error {
		commit, err := s.commits.Resolve(ctx, sel, actorID)
		if err != nil {
			return err
		}
		unit.commit = commit
		if err := fn(ctx, commit); err != nil {
			return err
		}
		if sel.New && unit.empty() {
			return errNothingChanged
		}
		return nil
	})
	if errors.Is(err, errNothingChanged) {
		s.logger.Debug("empty commit discarded", zap.Int64("actor_id", actorID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.finish(ctx, actorID, unit)
	return unit.commit, nil
}

func (s *OrgService) inTx(ctx context.Context, actorID int64, fn func(ctx context.Context) error) error {
	unit := &unitOfWork{}
	if err := s.tx.WithinTx(withUnit(ctx, unit), fn); err != nil {
		return err
	}
	s.finish(ctx, actorID, unit)
	return nil
}

func (s *OrgService) finish(ctx context.Context, actorID int64, unit *unitOfWork) {
	for _, a := range unit.actions {
		s.metrics.RecordCommitAction(string(a.Action), string(a.TargetKind))
	}
	if unit.commit != nil {
		s.logger.Info("commit applied",
			zap.Int64("commit_id", unit.commit.ID),
			zap.Int64("actor_id", actorID),
			zap.Int("actions", len(unit.actions)))
	}
	for _, event := range unit.events {
		if unit.commit != nil {
			event.CommitID = unit.commit.ID
		}
		event.Actor = events.Actor{PersonID: actorID}
		s.publishEvent(ctx, event)
	}
}

func (s *OrgService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func activeOnly(teams []domain.Team) []domain.Team {
	out := make([]domain.Team, 0, len(teams))
	for _, t := range teams {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out
}
