package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/illust-harvester/internal/adapter/memory"
	redisadapter "github.com/user/illust-harvester/internal/adapter/redis"
	"github.com/user/illust-harvester/internal/delivery/http/handler"
	"github.com/user/illust-harvester/internal/delivery/http/router"
	"github.com/user/illust-harvester/internal/events"
	"github.com/user/illust-harvester/internal/repository"
	"github.com/user/illust-harvester/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and operator event socket",
	Long: `Run the HTTP API and operator event socket.

Jobs submitted over HTTP run in the background; their events are pushed
to operators connected on /ws/{channel}. With REDIS_ADDR set, events
travel through redis so every instance can deliver them, and job status
survives restarts. With POSTGRES_URL set, downloads and failures are
also recorded in postgres.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, backends{redis: true, postgres: true})
	if err != nil {
		return err
	}
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)

	registry := events.NewRegistry(a.logger)
	publisher := events.Fanout{events.NewLogPublisher(a.logger)}
	var statusRepo repository.JobStatusRepository = memory.NewJobStatusRepo()
	checks := map[string]handler.Pinger{}

	if a.rdb != nil {
		// events go out through redis and come back to local sockets via the relay
		publisher = append(publisher, redisadapter.NewPublisher(a.rdb, a.logger))
		statusRepo = redisadapter.NewJobStatusRepo(a.rdb)
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() })

		relay := redisadapter.NewRelay(a.rdb, registry, a.logger)
		g.Go(func() error { return relay.Run(gctx) })
	} else {
		publisher = append(publisher, registry)
	}
	if a.pg != nil {
		checks["postgres"] = handler.PingFunc(a.pg.Ping)
	}

	jobs := usecase.NewJobManager(gctx, a.pipeline(publisher), statusRepo, a.failureLog(), a.logger)
	h := handler.NewHandler(jobs, a.auditFile, checks, a.cfg.DefaultChannel, a.logger)
	ws := events.NewWebSocketHandler(registry, a.logger)

	server := &http.Server{
		Addr:         ":" + a.cfg.ServerPort,
		Handler:      router.New(h, ws, a.logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // event sockets stay open
		IdleTimeout:  120 * time.Second,
	}

	g.Go(func() error {
		a.logger.Info("server started", zap.String("port", a.cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server forced to shutdown", zap.Error(err))
		}
		jobs.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("server stopped", zap.Error(err))
		return err
	}
	a.logger.Info("server exiting")
	return nil
}
