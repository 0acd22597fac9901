package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DuplicateTeamNamePolicy decides whether two active teams of one corporation may share a name.
type DuplicateTeamNamePolicy string

const (
	DuplicateTeamNamesAllow  DuplicateTeamNamePolicy = "allow"
	DuplicateTeamNamesReject DuplicateTeamNamePolicy = "reject"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Cache    CacheConfig
	NATS     NATSConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Org      OrgConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig tunes the snapshot cache.
type CacheConfig struct {
	Enabled            bool
	L1MaxCostBytes     int64
	SnapshotTTLSeconds int
}

// NATSConfig configures the change feed broker. An empty URL disables publishing.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	FeedBuffer    int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines how bearer tokens are verified.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// OrgConfig holds organizational policy switches.
type OrgConfig struct {
	DuplicateTeamNames DuplicateTeamNamePolicy
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	policy, err := parseDuplicatePolicy(getEnv("ORG_DUPLICATE_TEAM_NAMES", string(DuplicateTeamNamesAllow)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "orgchart-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			Enabled:            getEnvAsBool("SNAPSHOT_CACHE_ENABLED", true),
			L1MaxCostBytes:     int64(getEnvAsInt("SNAPSHOT_CACHE_L1_BYTES", 16<<20)),
			SnapshotTTLSeconds: getEnvAsInt("SNAPSHOT_CACHE_TTL_SECONDS", 600),
		},
		NATS: NATSConfig{
			URL:           os.Getenv("NATS_URL"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "orgchart"),
			FeedBuffer:    getEnvAsInt("CHANGE_FEED_BUFFER", 256),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Org: OrgConfig{
			DuplicateTeamNames: policy,
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SnapshotTTL returns how long reconstructed snapshots stay cached.
func (c CacheConfig) SnapshotTTL() time.Duration {
	if c.SnapshotTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

// RejectDuplicateTeamNames reports whether duplicate active names are refused.
func (o OrgConfig) RejectDuplicateTeamNames() bool {
	return o.DuplicateTeamNames == DuplicateTeamNamesReject
}

func parseDuplicatePolicy(val string) (DuplicateTeamNamePolicy, error) {
	switch DuplicateTeamNamePolicy(strings.ToLower(strings.TrimSpace(val))) {
	case DuplicateTeamNamesAllow:
		return DuplicateTeamNamesAllow, nil
	case DuplicateTeamNamesReject:
		return DuplicateTeamNamesReject, nil
	default:
		return "", fmt.Errorf("invalid ORG_DUPLICATE_TEAM_NAMES %q: want allow or reject", val)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
