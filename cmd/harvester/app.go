package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/adapter/chromedp_browser"
	"github.com/user/illust-harvester/internal/adapter/fetcher"
	"github.com/user/illust-harvester/internal/adapter/jsonl"
	"github.com/user/illust-harvester/internal/adapter/postgres"
	"github.com/user/illust-harvester/internal/adapter/useragent"
	"github.com/user/illust-harvester/internal/audit"
	"github.com/user/illust-harvester/internal/downloader"
	"github.com/user/illust-harvester/internal/extractor"
	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/internal/site"
	"github.com/user/illust-harvester/internal/usecase"
	"github.com/user/illust-harvester/pkg/config"
	"github.com/user/illust-harvester/pkg/logger"
	"github.com/user/illust-harvester/pkg/metrics"
)

// app holds the shared dependencies of every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	auditFile *jsonl.AuditLog

	// optional backends, nil when not configured
	rdb *redis.Client
	pg  *pgxpool.Pool
}

type backends struct {
	redis    bool
	postgres bool
}

func newApp(ctx context.Context, want backends) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	metrics.Init()

	auditFile, err := jsonl.NewAuditLog(cfg.AuditLogPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log, auditFile: auditFile}

	if want.redis && cfg.RedisAddr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("unable to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info("redis connection established", zap.String("addr", cfg.RedisAddr))
	}

	if want.postgres && cfg.PostgresURL != "" {
		a.pg, err = postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("unable to connect to postgres: %w", err)
		}
		log.Info("postgres connection pool established")
	}

	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) site() site.Site {
	return site.Site{
		BaseURL:     a.cfg.SiteBaseURL,
		LoginURL:    a.cfg.LoginURL,
		ImageOrigin: a.cfg.ImageOrigin,
		Layout:      site.DefaultLayout(),
	}
}

// auditLog returns the file log, plus the history table when postgres is up.
func (a *app) auditLog() repository.AuditLog {
	if a.pg == nil {
		return a.auditFile
	}
	return audit.Multi{a.auditFile, postgres.NewDownloadHistoryRepo(a.pg)}
}

func (a *app) failureLog() repository.FailureLog {
	if a.pg == nil {
		return nil
	}
	return postgres.NewFailedDownloadRepo(a.pg)
}

func (a *app) pipeline(publisher repository.Publisher) usecase.Pipeline {
	timing := a.cfg.Timing()
	agents := useragent.NewRotator()
	driver := site.NewDriver(a.site(), timing, a.logger)

	return usecase.NewPipelineUseCase(usecase.PipelineDeps{
		Sessions:      chromedp_browser.NewSessionFactory(agents, timing, a.logger),
		Authenticator: driver,
		Strategies:    driver,
		Extractor:     extractor.NewPageExtractor(timing, a.logger),
		Downloader:    downloader.NewJob(fetcher.NewHTTPFetcher(a.cfg.ImageReferer, agents), timing, a.logger),
		Publisher:     publisher,
		Audit:         a.auditLog(),
		Failures:      a.failureLog(),
		Timing:        timing,
		Logger:        a.logger,
	})
}
