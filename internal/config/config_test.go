package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("ORG_DUPLICATE_TEAM_NAMES", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("CHANGE_FEED_BUFFER", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	require.Equal(t, DuplicateTeamNamesAllow, cfg.Org.DuplicateTeamNames)
	require.False(t, cfg.Org.RejectDuplicateTeamNames())
	require.Equal(t, "orgchart", cfg.NATS.SubjectPrefix)
	require.Equal(t, 256, cfg.NATS.FeedBuffer)
	require.Equal(t, 10*time.Minute, cfg.Cache.SnapshotTTL())
}

func TestLoad_RejectPolicy(t *testing.T) {
	t.Setenv("ORG_DUPLICATE_TEAM_NAMES", "Reject")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Org.RejectDuplicateTeamNames())
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Setenv("ORG_DUPLICATE_TEAM_NAMES", "sometimes")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}

func TestGetEnvAsInt_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	require.Equal(t, 7, getEnvAsInt("SOME_INT", 7))

	t.Setenv("SOME_INT", "12")
	require.Equal(t, 12, getEnvAsInt("SOME_INT", 7))
}

func TestRequestTimeout_ZeroDisables(t *testing.T) {
	require.Equal(t, time.Duration(0), AppConfig{RequestTimeoutSeconds: 0}.RequestTimeout())
	require.Equal(t, 5*time.Second, AppConfig{RequestTimeoutSeconds: 5}.RequestTimeout())
}
