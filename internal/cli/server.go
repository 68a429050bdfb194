package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/config"
	"doubt-battle-service/internal/infra/memory"
	pginfra "doubt-battle-service/internal/infra/postgres"
	redisinfra "doubt-battle-service/internal/infra/redis"
	"doubt-battle-service/internal/questionbank"
	transport "doubt-battle-service/internal/transport/http"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the doubt-battle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var poolLoader questionbank.PoolLoader = questionbank.NewStaticPoolLoader(questionbank.DefaultPools())
	if pool != nil {
		poolLoader = pginfra.NewPoolLoader(pool)
	}

	poolTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	if redisClient != nil {
		poolLoader = redisinfra.NewPoolCache(redisClient, poolLoader, poolTTL)
	} else {
		poolLoader = questionbank.NewCachingPoolLoader(poolLoader, poolTTL)
	}

	var author questionbank.Author
	if cfg.Authoring.URL != "" {
		author = questionbank.NewAuthoringClient(cfg.Authoring.URL, config.TTLDuration(cfg.Authoring.Timeout, 15*time.Second))
	}
	bank := questionbank.NewGenerator(poolLoader, author)

	var battles app.BattleRepository
	if redisClient != nil {
		battles = redisinfra.NewBattleStore(redisClient, redisTTL)
	} else {
		battles = memory.NewBattleStore()
	}

	var leaderboard app.LeaderboardRepository
	switch {
	case pool != nil:
		leaderboard = pginfra.NewLeaderboard(pool)
	case redisClient != nil:
		leaderboard = redisinfra.NewLeaderboard(redisClient)
	default:
		leaderboard = memory.NewLeaderboard()
	}

	service := app.NewBattleService(battles, leaderboard, bank, app.Config{
		TimeLimitSeconds:     cfg.Battle.TimeLimitSeconds,
		BasePoints:           cfg.Battle.BasePoints,
		TimeBonusMax:         cfg.Battle.TimeBonusMax,
		DefaultQuestionCount: cfg.Battle.DefaultQuestionCount,
	}, logger)

	restHandler := transport.NewRESTHandler(service, logger)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := chi.NewRouter()
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Mount("/", restHandler.Routes())
	mux.Get("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting doubt-battle service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
