// Command server runs the faircircle HTTP API.
//
// main wires configuration, storage, the fair-score oracle, the audit
// pipeline, and the HTTP router. Business logic lives in the internal
// service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	circlehandler "faircircle/internal/circle/handler"
	"faircircle/internal/circle/metrics"
	"faircircle/internal/circle/service"
	circlestore "faircircle/internal/circle/store"
	"faircircle/internal/fairscore"
	scorehandler "faircircle/internal/fairscore/handler"
	"faircircle/internal/jwttoken"
	"faircircle/internal/ledger"
	"faircircle/internal/platform/config"
	"faircircle/internal/platform/httpserver"
	"faircircle/internal/platform/kafka"
	"faircircle/internal/platform/middleware"
	"faircircle/pkg/logging"
	audit "faircircle/pkg/platform/audit"
	auditmemory "faircircle/pkg/platform/audit/store/memory"
	auditpostgres "faircircle/pkg/platform/audit/store/postgres"
	"faircircle/pkg/platform/audit/publisher"
	"faircircle/pkg/platform/audit/sink"
	"faircircle/pkg/platform/audit/worker"
)

func main() {
	logger := logging.Setup()

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
	}

	circles, funds, auditStore, err := buildStores(ctx, db)
	if err != nil {
		return err
	}

	oracle, closeOracle, err := buildOracle(cfg, logger)
	if err != nil {
		return err
	}
	defer closeOracle()

	g, ctx := errgroup.WithContext(ctx)

	auditPublisher, closeAudit, err := buildAuditPipeline(ctx, g, cfg, auditStore, logger)
	if err != nil {
		return err
	}

	svc := service.New(circles, funds, oracle,
		service.WithLogger(logger),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(metrics.New()),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := buildRouter(svc, oracle, jwtService, logger)

	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		logger.Info("starting faircircle server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	// The server has finished draining requests; only now is it safe to
	// stop the audit publisher.
	closeAudit()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// buildStores selects Postgres-backed stores when a database is configured
// and in-memory stores otherwise.
func buildStores(ctx context.Context, db *sql.DB) (circlestore.CircleStore, ledger.Ledger, audit.Store, error) {
	if db == nil {
		return circlestore.NewInMemory(), ledger.NewInMemory(), auditmemory.NewInMemoryStore(), nil
	}

	circles := circlestore.NewPostgres(db)
	if err := circles.EnsureSchema(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("circle schema: %w", err)
	}
	funds := ledger.NewPostgres(db)
	if err := funds.EnsureSchema(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("ledger schema: %w", err)
	}
	auditStore := auditpostgres.New(db)
	if err := auditStore.EnsureSchema(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("audit schema: %w", err)
	}
	return circles, funds, auditStore, nil
}

// buildOracle selects the FairScale client when configured, wrapped in a
// Redis cache when one is available. Without an upstream every member scores
// zero, which keeps development servers functional.
func buildOracle(cfg config.Config, logger *slog.Logger) (fairscore.Oracle, func(), error) {
	var oracle fairscore.Oracle
	if cfg.FairScaleURL != "" {
		oracle = fairscore.NewClient(cfg.FairScaleURL, cfg.FairScaleAPIKey)
	} else {
		logger.Warn("no FairScale upstream configured, all members score zero")
		oracle = fairscore.NewStatic(nil)
	}

	if cfg.RedisURL == "" {
		return oracle, func() {}, nil
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	cached := fairscore.NewCached(oracle, client,
		fairscore.WithCacheTTL(cfg.ScoreCacheTTL),
		fairscore.WithCacheLogger(logger),
	)
	return cached, func() { _ = client.Close() }, nil
}

// buildAuditPipeline returns the emitter handed to services and a close
// function the caller must invoke after the HTTP server has drained, so no
// in-flight request emits into a closed pipeline. With Kafka configured,
// events flow through a worker that persists and streams them; otherwise a
// buffered publisher writes straight to the store.
func buildAuditPipeline(ctx context.Context, g *errgroup.Group, cfg config.Config, store audit.Store, logger *slog.Logger) (service.AuditPublisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		pub := publisher.NewPublisher(store,
			publisher.WithAsyncBuffer(256),
			publisher.WithLogger(logger),
		)
		return pub, pub.Close, nil
	}

	producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	emitter, w := worker.NewPipeline(store, 256, logger, sink.NewKafkaSink(producer))
	g.Go(func() error {
		defer producer.Close()
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return emitter, func() {}, nil
}

func buildRouter(svc *service.Service, oracle fairscore.Oracle, jwtService *jwttoken.JWTService, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.RequestTime,
		middleware.ClientMetadata,
		middleware.Device,
		middleware.Logger(logger),
		chimiddleware.Timeout(30*time.Second),
		chimiddleware.AllowContentType("application/json"),
	)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtService, logger))
		circlehandler.New(svc, logger).Register(r)
		scorehandler.New(oracle, logger).Register(r)
	})

	return router
}
