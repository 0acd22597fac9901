package memstore

import (
	"context"
	"sort"

	"github.com/spec-kit/orgchart-service/internal/domain"
)

type historyRepo struct{ s *Store }

func (r *historyRepo) AppendName(ctx context.Context, entry *domain.NameHistoryEntry) error {
	return r.s.with(ctx, func(st *state) error {
		entry.ID = st.next("name_history")
		entry.CreatedAt = r.s.now()
		st.names = append(st.names, *entry)
		return nil
	})
}

func (r *historyRepo) AppendParent(ctx context.Context, entry *domain.ParentHistoryEntry) error {
	return r.s.with(ctx, func(st *state) error {
		entry.ID = st.next("team_parent_history")
		entry.CreatedAt = r.s.now()
		st.parents = append(st.parents, *entry)
		return nil
	})
}

func (r *historyRepo) LatestNameAsOf(ctx context.Context, kind domain.EntityKind, entityID, commitID int64) (*domain.NameHistoryEntry, error) {
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

func (r *historyRepo) LatestNamesAsOf(ctx context.Context, kind domain.EntityKind, commitID int64, ids []int64) (map[int64]domain.NameHistoryEntry, error) {
	wanted := idSet(ids)
	out := map[int64]domain.NameHistoryEntry{}
	err := r.s.with(ctx, func(st *state) error {
		for _, entry := range st.names {
			if entry.EntityKind != kind || entry.CommitID > commitID {
				continue
			}
			if wanted != nil && !wanted[entry.EntityID] {
				continue
			}
			if current, ok := out[entry.EntityID]; !ok || entry.Later(current) {
				out[entry.EntityID] = entry
			}
		}
		return nil
	})
	return out, err
}

func (r *historyRepo) LatestParentAsOf(ctx context.Context, teamID, commitID int64) (*domain.ParentHistoryEntry, error) {
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

func (r *historyRepo) LatestParentsAsOf(ctx context.Context, commitID int64, ids []int64) (map[int64]domain.ParentHistoryEntry, error) {
	wanted := idSet(ids)
	out := map[int64]domain.ParentHistoryEntry{}
	err := r.s.with(ctx, func(st *state) error {
		for _, entry := range st.parents {
			if entry.CommitID > commitID {
				continue
			}
			if wanted != nil && !wanted[entry.TeamID] {
				continue
			}
			if current, ok := out[entry.TeamID]; !ok || entry.Later(current) {
				out[entry.TeamID] = entry
			}
		}
		return nil
	})
	return out, err
}

func (r *historyRepo) EntitiesWithNameHistory(ctx context.Context, kind domain.EntityKind, ids []int64) (map[int64]bool, error) {
	wanted := idSet(ids)
	out := map[int64]bool{}
	err := r.s.with(ctx, func(st *state) error {
		for _, entry := range st.names {
			if entry.EntityKind == kind && (wanted == nil || wanted[entry.EntityID]) {
				out[entry.EntityID] = true
			}
		}
		return nil
	})
	return out, err
}

func (r *historyRepo) ListNames(ctx context.Context, kind domain.EntityKind, entityID int64) ([]domain.NameHistoryEntry, error) {
	var out []domain.NameHistoryEntry
	err := r.s.with(ctx, func(st *state) error {
		for _, entry := range st.names {
			if entry.EntityKind == kind && entry.EntityID == entityID {
				out = append(out, entry)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[j].Later(out[i]) })
	return out, err
}

func (r *historyRepo) ListParents(ctx context.Context, teamID int64) ([]domain.ParentHistoryEntry, error) {
	var out []domain.ParentHistoryEntry
	err := r.s.with(ctx, func(st *state) error {
		for _, entry := range st.parents {
			if entry.TeamID == teamID {
				out = append(out, entry)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[j].Later(out[i]) })
	return out, err
}

func (r *historyRepo) Watermark(ctx context.Context) (int64, error) {
	var mark int64
	err := r.s.with(ctx, func(st *state) error {
		mark = int64(len(st.names) + len(st.parents))
		return nil
	})
	return mark, err
}

// idSet returns nil for a nil slice, meaning "no filter".
func idSet(ids []int64) map[int64]bool {
	if ids == nil {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
