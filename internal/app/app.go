package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"

	"github.com/justin-graham/AFBaseball/external/trumedia"
	"github.com/justin-graham/AFBaseball/internal/config"
	"github.com/justin-graham/AFBaseball/internal/dispatch"
	"github.com/justin-graham/AFBaseball/internal/domain/player"
	"github.com/justin-graham/AFBaseball/internal/domain/team"
	cacherepo "github.com/justin-graham/AFBaseball/internal/infrastructure/repository/cache"
	"github.com/justin-graham/AFBaseball/internal/infrastructure/repository/postgres"
	"github.com/justin-graham/AFBaseball/internal/interfaces/httpapi"
	basecache "github.com/justin-graham/AFBaseball/internal/platform/cache"
	"github.com/justin-graham/AFBaseball/internal/platform/logging"
	"github.com/justin-graham/AFBaseball/internal/platform/resilience"
	"github.com/justin-graham/AFBaseball/internal/usecase"
)

// Application bundles everything main needs to run and shut down cleanly.
type Application struct {
	Server *http.Server
	DB     *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	teamRepo, playerRepo := buildRepositories(cfg, db)

	feed := trumedia.NewClient(trumedia.ClientConfig{
		BaseURL:     cfg.TruMediaBaseURL,
		Username:    cfg.TruMediaUsername,
		SiteName:    cfg.TruMediaSiteName,
		MasterToken: cfg.TruMediaToken,
		Timeout:     cfg.TruMediaTimeout,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.TruMediaCircuitEnabled,
			FailureThreshold: cfg.TruMediaCircuitFailureCount,
			OpenTimeout:      cfg.TruMediaCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.TruMediaCircuitHalfOpenMaxReq,
		},
	})

	syncSvc := usecase.NewRosterSyncService(usecase.RosterSyncConfig{
		Enabled:     cfg.TruMediaEnabled,
		SeasonYear:  cfg.SeasonYear,
		SeasonType:  cfg.SeasonType,
		PlayerMinPA: cfg.PlayerMinPA,
		BatchSize:   cfg.SyncBatchSize,
		MaxWorkers:  cfg.SyncMaxWorkers,
	}, feed, teamRepo, playerRepo, logger)

	dispatcher := dispatch.NewDispatcher(dispatch.DispatcherConfig{
		Backend: buildReportBackend(cfg, logger),
		Timeout: cfg.ReportTimeout,
		Logger:  logger,
	})

	handler := httpapi.NewHandler(
		usecase.NewTeamService(teamRepo, logger),
		usecase.NewPlayerService(playerRepo, logger),
		syncSvc,
		usecase.NewReportService(dispatcher, cfg.SeasonYear, logger),
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &Application{Server: server, DB: db}, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemNamePostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return db, nil
}

func buildRepositories(cfg config.Config, db *sqlx.DB) (team.Repository, player.Repository) {
	var teamRepo team.Repository = postgres.NewTeamRepository(db)
	var playerRepo player.Repository = postgres.NewPlayerRepository(db)

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		teamRepo = cacherepo.NewTeamRepository(teamRepo, store)
		playerRepo = cacherepo.NewPlayerRepository(playerRepo, store)
	}

	return teamRepo, playerRepo
}

// buildReportBackend picks the execution strategy once at startup: a remote
// generation service when a backend URL is configured, local subprocesses
// otherwise.
func buildReportBackend(cfg config.Config, logger *logging.Logger) dispatch.Backend {
	if cfg.ReportBackendURL != "" {
		return dispatch.NewRemoteBackend(dispatch.RemoteBackendConfig{
			BaseURL: cfg.ReportBackendURL,
			Logger:  logger,
		})
	}

	return dispatch.NewLocalBackend(dispatch.LocalBackendConfig{
		Runner:         cfg.ReportRunner,
		ScriptDir:      cfg.ReportScriptDir,
		OutputDir:      cfg.ReportOutputDir,
		MaxOutputBytes: cfg.ReportOutputMaxBytes,
		Logger:         logger,
	})
}
