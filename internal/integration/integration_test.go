package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/domain"
	pginfra "doubt-battle-service/internal/infra/postgres"
	pgmigrations "doubt-battle-service/internal/infra/postgres/migrations"
	redisinfra "doubt-battle-service/internal/infra/redis"
	"doubt-battle-service/internal/questionbank"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestFullBattleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedPool(t, ctx, pgURL, domain.SubjectClass10Math, questionbank.DefaultPools()[domain.SubjectClass10Math])

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	poolLoader := redisinfra.NewPoolCache(redisClient, pginfra.NewPoolLoader(pool), 5*time.Minute)
	bank := questionbank.NewGenerator(poolLoader, nil)
	battles := redisinfra.NewBattleStore(redisClient, 5*time.Minute)
	leaderboard := pginfra.NewLeaderboard(pool)
	service := app.NewBattleService(battles, leaderboard, bank, app.Config{}, slog.Default())

	created, err := service.Create(ctx, app.CreateParams{
		Subject:       domain.SubjectClass10Math,
		QuestionCount: 5,
		ChallengerID:  "u1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}

	joined, err := service.Join(ctx, created.Code, "u2")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", joined.Status)
	}

	// u1 guesses option 0 every time; u2 answers the revealed correct option
	// instantly, so u2 always outscores u1.
	var last domain.AnswerOutcome
	for i := 0; i < 5; i++ {
		guess, err := service.SubmitAnswer(ctx, created.Code, "u1", i, 0, 5)
		if err != nil {
			t.Fatalf("u1 submit %d: %v", i, err)
		}
		last, err = service.SubmitAnswer(ctx, created.Code, "u2", i, guess.CorrectIndex, 0)
		if err != nil {
			t.Fatalf("u2 submit %d: %v", i, err)
		}
	}
	if !last.BattleComplete || last.WinnerID != "u2" {
		t.Fatalf("expected completed battle won by u2, got %+v", last)
	}

	entries, err := service.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != "u2" {
		t.Fatalf("expected u2 leading, got %+v", entries)
	}
	if entries[0].XP != 100 || entries[0].Wins != 1 || entries[0].Streak != 1 {
		t.Fatalf("expected u2 at 100 xp with a win, got %+v", entries[0])
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "battle", "POSTGRES_PASSWORD": "battlepass", "POSTGRES_DB": "battledb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://battle:battlepass@%s:%s/battledb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedPool(t *testing.T, ctx context.Context, dsn string, subject domain.Subject, questions []domain.Question) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal pool: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_pools (subject, data) VALUES (?, ?::jsonb) ON CONFLICT (subject) DO UPDATE SET data=EXCLUDED.data`, string(subject), string(data)); err != nil {
		t.Fatalf("insert pool: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
