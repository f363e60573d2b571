package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cogniquiz-service/internal/app"
	"cogniquiz-service/internal/config"
	"cogniquiz-service/internal/domain"
	"cogniquiz-service/internal/infra/file"
	"cogniquiz-service/internal/infra/memory"
	"cogniquiz-service/internal/infra/opentdb"
	pgstore "cogniquiz-service/internal/infra/postgres"
	redisstore "cogniquiz-service/internal/infra/redis"
	"cogniquiz-service/internal/leaderboard"
	"cogniquiz-service/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// runtime holds everything built from the config, plus what must be closed.
type runtime struct {
	cfg     config.Config
	log     *zap.Logger
	service *app.QuizService
	closers []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	_ = rt.log.Sync()
}

func loadRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}
	if err := rt.wire(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) wire(ctx context.Context) error {
	cfg := rt.cfg
	log := rt.log

	client := opentdb.NewClient(cfg.OpenTDB.BaseURL,
		opentdb.WithHTTPClient(&http.Client{Timeout: config.TTLDuration(cfg.OpenTDB.Timeout, 10*time.Second)}),
		opentdb.WithMinInterval(config.TTLDuration(cfg.OpenTDB.MinInterval, 0)),
		opentdb.WithLogger(log.Named("opentdb")),
	)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	var (
		blobs  app.BlobStore
		scores app.ScoreStore
	)
	switch cfg.Storage.Backend {
	case "", "memory":
		blobs = memory.NewBlobStore()
	case "file":
		fs, err := file.NewBlobStore(cfg.Storage.FilePath)
		if err != nil {
			return err
		}
		blobs = fs
	case "redis":
		if redisClient == nil {
			return fmt.Errorf("storage backend redis needs redis.addr")
		}
		blobs = redisstore.NewBlobStore(redisClient)
	case "postgres":
		if cfg.Postgres.URL == "" {
			return fmt.Errorf("postgres url not configured")
		}
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		scores = pgstore.NewScoreStore(pool)
		if redisClient != nil {
			blobs = redisstore.NewBlobStore(redisClient)
		} else {
			blobs = memory.NewBlobStore()
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if scores == nil {
		scores = leaderboard.NewStore(blobs, log.Named("leaderboard"))
	}

	categoryTTL := config.TTLDuration(cfg.Categories.TTL, time.Hour)
	var (
		categories app.CategoryRepository
		sessions   app.SessionRepository
	)
	if redisClient != nil {
		categories = redisstore.NewCategoryRepository(redisClient, client, categoryTTL)
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		categories = memory.NewCategoryRepository(client, categoryTTL)
		sessions = memory.NewSessionStore()
	}

	clock := app.SystemClock{}
	rt.service = app.NewQuizService(sessions, categories, app.ShellDeps{
		Tokens: client,
		Source: client,
		Scores: scores,
		Daily:  app.NewDailyChallenge(blobs, clock, time.Local),
		Clock:  clock,
		Log:    log,
	})
	log.Info("runtime wired",
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("redis", redisClient != nil),
		zap.String("opentdb", cfg.OpenTDB.BaseURL))
	return nil
}

// defaultParameters turns the quiz config section into setup defaults.
func defaultParameters(cfg config.Config) domain.QuizParameters {
	params := domain.DefaultParameters()
	if cfg.Quiz.Difficulty != "" {
		params.Difficulty = domain.Difficulty(cfg.Quiz.Difficulty)
	}
	if cfg.Quiz.Category != "" {
		params.Category = cfg.Quiz.Category
	}
	if cfg.Quiz.NumQuestions > 0 {
		params.NumQuestions = cfg.Quiz.NumQuestions
	}
	if cfg.Quiz.TimePerChallenge > 0 {
		params.TimePerChallenge = cfg.Quiz.TimePerChallenge
	}
	return params
}
