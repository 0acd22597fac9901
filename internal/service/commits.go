package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// CommitManager decides which commit a mutation belongs to and records its actions.
type CommitManager struct {
	commits repository.CommitRepository
	persons repository.PersonRepository
	now     func() time.Time
}

// CommitDiff lists the actions recorded after From up to and including To.
type CommitDiff struct {
	From    int64
	To      int64
	Actions []domain.CommitAction
}

// NewCommitManager creates the manager.
func NewCommitManager(commits repository.CommitRepository, persons repository.PersonRepository, now func() time.Time) *CommitManager {
	return &CommitManager{commits: commits, persons: persons, now: now}
}

// Resolve returns the commit selected by sel. New creates one owned by
// actorID; ID must point at the latest commit; otherwise the latest commit is used.
func (m *CommitManager) Resolve(ctx context.Context, sel domain.CommitSelector, actorID int64) (*domain.Commit, error) {
	switch {
	case sel.New:
		if _, err := m.persons.GetByID(ctx, actorID); err != nil {
			return nil, notFound(err, "person", map[string]any{"person_id": actorID})
		}
		commit := &domain.Commit{
			CreatedByID: actorID,
			Message:     strings.TrimSpace(sel.Message),
			CreatedAt:   m.now(),
		}
		if err := m.commits.Create(ctx, commit); err != nil {
			return nil, apperrors.MapError(err)
		}
		return commit, nil
	case sel.ID != nil:
		commit, err := m.get(ctx, *sel.ID)
		if err != nil {
			return nil, err
		}
		latest, err := m.commits.Latest(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if latest.ID != commit.ID {
			return nil, apperrors.NewValidationError("only the latest commit accepts changes", map[string]any{
				"commit_id":        commit.ID,
				"latest_commit_id": latest.ID,
			})
		}
		return commit, nil
	default:
		commit, err := m.commits.Latest(ctx)
		if err != nil {
			return nil, notFound(err, "commit", map[string]any{"reason": "no commit exists yet; start one with commit.new"})
		}
		return commit, nil
	}
}

// RecordAction appends an immutable action to commit.
func (m *CommitManager) RecordAction(ctx context.Context, commit *domain.Commit, action domain.CommitAction) error {
	action.CommitID = commit.ID
	if err := m.commits.AppendAction(ctx, &action); err != nil {
		return apperrors.MapError(err)
	}
	if u := unitFrom(ctx); u != nil {
		u.actions = append(u.actions, action)
	}
	return nil
}

// List returns commits newest first, optionally only those touching a corporation.
func (m *CommitManager) List(ctx context.Context, corporationID *int64) ([]domain.Commit, error) {
	commits, err := m.commits.List(ctx, repository.CommitFilter{CorporationID: corporationID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return commits, nil
}

// Latest returns the newest commit with its actions.
func (m *CommitManager) Latest(ctx context.Context) (*domain.Commit, error) {
	commit, err := m.commits.Latest(ctx)
	if err != nil {
		return nil, notFound(err, "commit", nil)
	}
	return m.withActions(ctx, commit)
}

// Get returns a commit with its actions.
func (m *CommitManager) Get(ctx context.Context, id int64) (*domain.Commit, error) {
	commit, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.withActions(ctx, commit)
}

// Compare returns the actions with from < commit_id <= to.
func (m *CommitManager) Compare(ctx context.Context, from, to int64) (*CommitDiff, error) {
	if from > to {
		return nil, apperrors.NewValidationError("from must not be after to", map[string]any{"from": from, "to": to})
	}
	if _, err := m.get(ctx, from); err != nil {
		return nil, err
	}
	if _, err := m.get(ctx, to); err != nil {
		return nil, err
	}
	actions, err := m.commits.ListActionsBetween(ctx, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actions == nil {
		actions = []domain.CommitAction{}
	}
	return &CommitDiff{From: from, To: to, Actions: actions}, nil
}

// Annotate replaces a commit's message. Actions stay untouched.
func (m *CommitManager) Annotate(ctx context.Context, id int64, message string) (*domain.Commit, error) {
	if err := m.commits.UpdateMessage(ctx, id, strings.TrimSpace(message)); err != nil {
		return nil, notFound(err, "commit", map[string]any{"commit_id": id})
	}
	return m.Get(ctx, id)
}

func (m *CommitManager) get(ctx context.Context, id int64) (*domain.Commit, error) {
	commit, err := m.commits.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "commit", map[string]any{"commit_id": id})
	}
	return commit, nil
}

func (m *CommitManager) withActions(ctx context.Context, commit *domain.Commit) (*domain.Commit, error) {
	actions, err := m.commits.ListActions(ctx, commit.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actions == nil {
		actions = []domain.CommitAction{}
	}
	commit.Actions = actions
	return commit, nil
}
