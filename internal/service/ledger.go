package service

import (
	"context"

	"github.com/spec-kit/orgchart-service/internal/domain"
	"github.com/spec-kit/orgchart-service/internal/repository"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// Ledger appends and reads the name and parent history.
type Ledger struct {
	history repository.HistoryRepository
}

// NewLedger creates the ledger.
func NewLedger(history repository.HistoryRepository) *Ledger {
	return &Ledger{history: history}
}

// RecordNameChange appends a name entry. An empty name marks deletion.
func (l *Ledger) RecordNameChange(ctx context.Context, kind domain.EntityKind, entityID int64, name string, commit *domain.Commit) error {
	entry := &domain.NameHistoryEntry{
		CommitID:   commit.ID,
		EntityKind: kind,
		EntityID:   entityID,
		Name:       name,
	}
	if err := l.history.AppendName(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// RecordParentChange appends a parent entry; nil means top-level.
func (l *Ledger) RecordParentChange(ctx context.Context, teamID int64, parentID *int64, commit *domain.Commit) error {
	entry := &domain.ParentHistoryEntry{
		CommitID:     commit.ID,
		TeamID:       teamID,
		ParentTeamID: parentID,
	}
	if err := l.history.AppendParent(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// LatestNameAsOf returns the last name entry at or before commitID, or nil.
func (l *Ledger) LatestNameAsOf(ctx context.Context, kind domain.EntityKind, entityID, commitID int64) (*domain.NameHistoryEntry, error) {
	entry, err := l.history.LatestNameAsOf(ctx, kind, entityID, commitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entry, nil
}

// LatestParentAsOf returns the last parent entry at or before commitID, or nil.
func (l *Ledger) LatestParentAsOf(ctx context.Context, teamID, commitID int64) (*domain.ParentHistoryEntry, error) {
	entry, err := l.history.LatestParentAsOf(ctx, teamID, commitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entry, nil
}

// NameHistory lists every name an entity carried, oldest first.
func (l *Ledger) NameHistory(ctx context.Context, kind domain.EntityKind, entityID int64) ([]domain.NameHistoryEntry, error) {
	entries, err := l.history.ListNames(ctx, kind, entityID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// ParentHistory lists every parent a team had, oldest first.
func (l *Ledger) ParentHistory(ctx context.Context, teamID int64) ([]domain.ParentHistoryEntry, error) {
	entries, err := l.history.ListParents(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// Watermark changes whenever the ledger grows.
func (l *Ledger) Watermark(ctx context.Context) (int64, error) {
	mark, err := l.history.Watermark(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return mark, nil
}
