package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/orgchart-service/internal/broker"
	"github.com/spec-kit/orgchart-service/internal/config"
	"github.com/spec-kit/orgchart-service/internal/events"
	"github.com/spec-kit/orgchart-service/internal/observability"
	"github.com/spec-kit/orgchart-service/internal/persistence"
	"github.com/spec-kit/orgchart-service/internal/repository"
	"github.com/spec-kit/orgchart-service/internal/service"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "orgctl",
		Short:         "Operator tools for the org chart service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newMigrateCmd(), newBootstrapCmd(), newTokenCmd(), newRestoreCmd())
	return cmd
}

// env is the configuration and logger every subcommand starts from.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// orgService connects to Postgres and wires the service without cache or feed.
func (e *env) orgService(ctx context.Context) (*service.OrgService, func(), error) {
	if err := e.requireDSN(); err != nil {
		return nil, nil, err
	}
	pg, err := persistence.NewPostgres(ctx, e.cfg.Postgres, e.logger)
	if err != nil {
		return nil, nil, err
	}
	closeAll := pg.Close

	// the process exits right after the command, so events are delivered inline
	dispatcher := events.NewInMemoryDispatcher()
	var publisher broker.Publisher
	if e.cfg.NATS.URL != "" {
		nc, err := broker.Connect(e.cfg.NATS.URL, e.logger)
		if err != nil {
			e.logger.Warn("nats unavailable; change feed stays local", zap.Error(err))
		} else {
			publisher = nc
			closeAll = func() {
				nc.Close() //nolint:errcheck
				pg.Close()
			}
		}
	}
	service.NewChangeFeed(dispatcher, publisher, e.logger, e.cfg.NATS).RegisterHandlers()

	svc := service.NewOrgService(service.OrgDependencies{
		Repos:      repository.NewPostgresRepositories(pg),
		Org:        e.cfg.Org,
		Logger:     e.logger,
		Dispatcher: dispatcher,
	})
	return svc, closeAll, nil
}

func (e *env) requireDSN() error {
	if e.cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
