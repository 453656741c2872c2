package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/api"
	"github.com/tcp_snm/qotd/internal/cache"
	"github.com/tcp_snm/qotd/internal/config"
	"github.com/tcp_snm/qotd/internal/database"
	"github.com/tcp_snm/qotd/internal/email"
	"github.com/tcp_snm/qotd/internal/service"
	"github.com/tcp_snm/qotd/internal/service/codeforces_service"
	"github.com/tcp_snm/qotd/internal/service/content_service"
	"github.com/tcp_snm/qotd/internal/service/editorial_service"
	"github.com/tcp_snm/qotd/internal/service/leaderboard_service"
	"github.com/tcp_snm/qotd/internal/service/question_service"
	"github.com/tcp_snm/qotd/internal/service/scheduler_service"
	"github.com/tcp_snm/qotd/internal/service/user_service"
	"github.com/tcp_snm/qotd/internal/service/verification_service"
	"github.com/tcp_snm/qotd/middleware"
)

const (
	shutdownTimeout  = 15 * time.Second
	lruCacheSize     = 128
	serverReadHeader = 10 * time.Second
)

type app struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	cache     cache.Cache
	mailer    *email.EmailService
	scheduler *scheduler_service.Scheduler
	api       *api.Api
	auth      *middleware.Auth
	limiter   *middleware.RateLimiter
}

func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func initDatabase(ctx context.Context, dbURL string) *pgxpool.Pool {
	if dbURL == "" {
		panic("dbURL not found")
	}

	// create a connection pool to the database
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		panic(err)
	}

	if err := database.Migrate(ctx, pool); err != nil {
		panic(err)
	}
	log.Info("database schema is up to date")

	return pool
}

// initCache prefers redis and falls back to an in-process cache when redis
// is not configured or unreachable.
func initCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			return redisCache
		}
		log.Warnf("falling back to in-process cache, %v", err)
	}
	log.Info("using in-process leaderboard cache")
	return cache.NewLRUCache(lruCacheSize, cfg.LeaderboardTTL)
}

func setup(ctx context.Context) *app {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	setupLogger(cfg.LogLevel)
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not configured")
	}

	service.InitializeServices()

	pool := initDatabase(ctx, cfg.DBUrl)
	store := database.NewPgStore(pool)
	leaderboardCache := initCache(ctx, cfg)
	httpClient := &http.Client{Timeout: cfg.HttpTimeout}
	clock := service.Clock(time.Now)

	log.Info("initializing services")
	judge := &codeforces_service.CodeforcesService{
		ApiUrl:     cfg.CodeforcesApiUrl,
		HttpClient: httpClient,
	}
	judge.Start()

	content := &content_service.ContentService{
		ApiKey:     cfg.ScraperApiKey,
		BaseUrl:    cfg.ScraperBaseUrl,
		HttpClient: httpClient,
	}
	content.Start()

	editorial := &editorial_service.EditorialService{
		ApiKey:     cfg.GeminiApiKey,
		Model:      cfg.GeminiModel,
		BaseUrl:    cfg.GeminiBaseUrl,
		HttpClient: httpClient,
	}
	editorial.Start()

	mailer := &email.EmailService{
		SenderEmail: cfg.SenderEmail,
		Password:    cfg.SenderEmailPassword,
		AlertEmails: cfg.AlertEmails,
	}
	mailer.Start()

	questions := &question_service.QuestionService{DB: store, Location: cfg.Location, Clock: clock}
	questions.Start()

	users := &user_service.UserService{DB: store, Judge: judge, Clock: clock}
	users.Start()

	leaderboard := &leaderboard_service.LeaderboardService{
		DB:    store,
		Cache: leaderboardCache,
		TTL:   cfg.LeaderboardTTL,
	}
	leaderboard.Start()

	verifier := &verification_service.VerificationService{
		DB:         store,
		Judge:      judge,
		SolveScore: cfg.SolveScore,
		Location:   cfg.Location,
		Clock:      clock,
	}
	verifier.Start()

	scheduler := &scheduler_service.Scheduler{
		DB:           store,
		Judge:        judge,
		Content:      content,
		Editorial:    editorial,
		Alerter:      mailer,
		MinRating:    cfg.MinRating,
		MaxRating:    cfg.MaxRating,
		Location:     cfg.Location,
		Clock:        clock,
		CycleTimeout: cfg.SchedulerCycleTimeout,
		Enabled:      cfg.EnableAutoQotd,
		CronSchedule: cfg.CronSchedule,
	}

	return &app{
		cfg:       cfg,
		pool:      pool,
		cache:     leaderboardCache,
		mailer:    mailer,
		scheduler: scheduler,
		api: &api.Api{
			DB:                  store,
			Cache:               leaderboardCache,
			QuestionService:     questions,
			UserService:         users,
			LeaderboardService:  leaderboard,
			VerificationService: verifier,
			Scheduler:           scheduler,
		},
		auth:    &middleware.Auth{Secret: []byte(cfg.JWTSecret)},
		limiter: middleware.NewRateLimiter(cfg.VerifyRatePerMinute),
	}
}

func setCors(router *chi.Mux) {
	router.Use(
		cors.Handler(
			cors.Options{
				AllowedOrigins:   []string{"https://*", "http://*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
				ExposedHeaders:   []string{"Link"},
				MaxAge:           300,
			},
		),
	)
	log.Info("cors options has been set")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := setup(ctx)

	// startup check runs beside the listener
	go a.scheduler.Start(ctx)

	router := chi.NewRouter()
	setCors(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/v1", NewV1Router(a))
	log.Info("v1 router has been mounted")

	srv := &http.Server{
		Handler:           router,
		Addr:              a.cfg.ApiUrl + ":" + a.cfg.Port,
		ReadHeaderTimeout: serverReadHeader,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Errorf("server cannot be started. Error: %v", err)
		}
	}

	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown did not complete, %v", err)
	}

	a.mailer.Stop()
	a.pool.Close()
	if err := a.cache.Close(); err != nil {
		log.Warnf("cannot close cache, %v", err)
	}
	log.Info("server stopped")
}
