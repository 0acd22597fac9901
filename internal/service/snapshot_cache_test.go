package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	hits    int
	sets    int
	failGet bool
}

func newCountingCache() *countingCache {
	return &countingCache{data: map[string][]byte{}}
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("backend down")
	}
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *countingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func TestSnapshotCache_ServesRepeatReads(t *testing.T) {
	backend := newCountingCache()
	f := newFixture(t, func(d *OrgDependencies) {
		d.Cache = backend
		d.SnapshotTTL = time.Minute
	})
	corp, c1 := f.corporation(newCommit(), "Acme")
	team, _ := f.team(onCommit(c1), "Engineering", corp.ID, nil)

	first, err := f.svc.TeamAsOf(f.ctx, team.ID, c1.ID)
	require.NoError(t, err)
	second, err := f.svc.TeamAsOf(f.ctx, team.ID, c1.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, backend.hits)
	require.Equal(t, 1, backend.sets)

	// a later rename in the same commit moves the watermark, so the stale entry is skipped
	f.rename(onCommit(c1), team.ID, "Eng")
	third, err := f.svc.TeamAsOf(f.ctx, team.ID, c1.ID)
	require.NoError(t, err)
	require.Equal(t, "Eng", third.Name)
	require.Equal(t, 2, backend.sets)
}

func TestSnapshotCache_BackendErrorsAreMisses(t *testing.T) {
	backend := newCountingCache()
	backend.failGet = true
	f := newFixture(t, func(d *OrgDependencies) { d.Cache = backend })
	corp, c1 := f.corporation(newCommit(), "Acme")

	snap, err := f.svc.CorporationAsOf(f.ctx, corp.ID, c1.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", snap.Name)
}

func TestSnapshotKey(t *testing.T) {
	require.Equal(t, "snapshot:TEAM:4:2:17", snapshotKey("TEAM", 4, 2, 17))
}
