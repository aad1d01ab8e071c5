package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/challengefit/workout-challenge/internal/config"
	"github.com/challengefit/workout-challenge/internal/domain/competition"
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/points"
	"github.com/challengefit/workout-challenge/internal/domain/recalc"
	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
	"github.com/challengefit/workout-challenge/internal/infrastructure/account/heimdall"
	"github.com/challengefit/workout-challenge/internal/infrastructure/notifier"
	repocache "github.com/challengefit/workout-challenge/internal/infrastructure/repository/cache"
	"github.com/challengefit/workout-challenge/internal/infrastructure/repository/memory"
	"github.com/challengefit/workout-challenge/internal/infrastructure/repository/postgres"
	"github.com/challengefit/workout-challenge/internal/interfaces/httpapi"
	"github.com/challengefit/workout-challenge/internal/platform/cache"
	idgen "github.com/challengefit/workout-challenge/internal/platform/id"
	"github.com/challengefit/workout-challenge/internal/platform/resilience"
	"github.com/challengefit/workout-challenge/internal/usecase"
)

type repositories struct {
	users        user.Repository
	workouts     workout.Repository
	competitions competition.Repository
	goals        goal.Repository
	points       points.Repository
	markers      recalc.Repository
	close        func() error
}

// NewHTTPServer wires repositories, services and the router into a
// ready-to-run server. DB_URL=memory runs fully in process with seed data,
// anything else opens a traced Postgres pool.
func NewHTTPServer(cfg config.Config, logger *slog.Logger) (*http.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.CacheEnabled {
		store := cache.NewStore(cfg.CacheTTL)
		repos.goals = repocache.NewGoalRepository(repos.goals, store)
		repos.competitions = repocache.NewCompetitionRepository(repos.competitions, store)
	}

	recalcSvc := usecase.NewRecalcService(
		repos.markers,
		repos.points,
		repos.goals,
		buildRecalcNotifier(cfg, logger),
		usecase.RecalcConfig{
			DebounceWindow: cfg.RecalcDebounceWindow,
			DrainDelay:     cfg.RecalcDrainDelay,
			RunBudget:      cfg.RecalcRunBudget,
			MaxRetries:     cfg.RecalcMaxRetries,
			MaxWorkers:     cfg.RecalcMaxWorkers,
		},
		logger,
	)

	ids := idgen.NewRandomGenerator()
	consistencySvc := usecase.NewConsistencyService(
		repos.competitions,
		repos.goals,
		repos.workouts,
		repos.users,
		repos.points,
		recalcSvc,
		ids,
		logger,
	)

	userSvc := usecase.NewUserService(repos.users, consistencySvc, logger)
	workoutSvc := usecase.NewWorkoutService(repos.workouts, repos.users, consistencySvc, ids, logger)
	competitionSvc := usecase.NewCompetitionService(repos.competitions, repos.goals, consistencySvc, ids, logger)
	goalSvc := usecase.NewGoalService(repos.goals, repos.competitions, consistencySvc, ids, logger)
	statsSvc := usecase.NewStatsService(repos.competitions, repos.goals, repos.points, repos.users, logger)

	heimdallClient := heimdall.NewClient(
		&http.Client{Timeout: cfg.HeimdallTimeout},
		cfg.HeimdallBaseURL,
		cfg.HeimdallIntrospectURL,
		cfg.HeimdallAdminKey,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.HeimdallCircuitEnabled,
			FailureThreshold: cfg.HeimdallCircuitFailureCount,
			OpenTimeout:      cfg.HeimdallCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.HeimdallCircuitHalfOpenMax,
		},
		logger,
	)

	handler := httpapi.NewHandler(userSvc, workoutSvc, competitionSvc, goalSvc, statsSvc, recalcSvc, logger)
	router := httpapi.NewRouter(handler, heimdallClient, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	server.RegisterOnShutdown(func() {
		recalcSvc.Wait()
		if repos.close != nil {
			if err := repos.close(); err != nil {
				logger.Error("close repositories", "error", err)
			}
		}
	})

	return server, nil
}

func buildRepositories(cfg config.Config, logger *slog.Logger) (repositories, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.DBURL), "memory") {
		return buildMemoryRepositories(logger)
	}

	db, err := openDB(cfg)
	if err != nil {
		return repositories{}, err
	}

	if cfg.AppEnv == config.EnvDev {
		seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgres.BootstrapSeed(seedCtx, db); err != nil {
			_ = db.Close()
			return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
		}
	}

	logger.Info("postgres repositories ready", "db_name", dbNameFromURL(cfg.DBURL))

	return repositories{
		users:        postgres.NewUserRepository(db),
		workouts:     postgres.NewWorkoutRepository(db),
		competitions: postgres.NewCompetitionRepository(db),
		goals:        postgres.NewGoalRepository(db),
		points:       postgres.NewPointsRepository(db),
		markers:      postgres.NewRecalcRepository(db),
		close:        db.Close,
	}, nil
}

func buildMemoryRepositories(logger *slog.Logger) (repositories, error) {
	userRepo := memory.NewUserRepository(memory.SeedUsers())
	workoutRepo := memory.NewWorkoutRepository(memory.SeedWorkouts())
	competitionRepo := memory.NewCompetitionRepository(memory.SeedCompetitions())
	goalRepo := memory.NewGoalRepository(memory.SeedGoals())

	ctx := context.Background()
	for _, m := range memory.SeedMemberships() {
		if err := competitionRepo.AddMember(ctx, m); err != nil {
			return repositories{}, fmt.Errorf("seed membership %s/%s: %w", m.CompetitionID, m.UserID, err)
		}
	}

	logger.Info("in-memory repositories ready", "reason", "DB_URL=memory")

	return repositories{
		users:        userRepo,
		workouts:     workoutRepo,
		competitions: competitionRepo,
		goals:        goalRepo,
		points:       memory.NewPointsRepository(goalRepo, workoutRepo),
		markers:      memory.NewRecalcRepository(),
	}, nil
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func buildRecalcNotifier(cfg config.Config, logger *slog.Logger) usecase.BatchCompletionNotifier {
	if !cfg.RecalcNotifyEnabled {
		return nil
	}

	return notifier.NewWebhookNotifier(notifier.WebhookConfig{
		URL:       cfg.RecalcNotifyURL,
		AuthToken: cfg.RecalcNotifyToken,
		Timeout:   cfg.RecalcNotifyTimeout,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.RecalcNotifyCircuitEnabled,
			FailureThreshold: cfg.RecalcNotifyCircuitFailures,
			OpenTimeout:      cfg.RecalcNotifyCircuitOpenTime,
			HalfOpenMaxReq:   cfg.RecalcNotifyCircuitHalfOpen,
		},
	}, logger)
}
