package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"egov/internal/platform/config"
	"egov/internal/platform/httpserver"
	"egov/internal/platform/logger"
	"egov/internal/platform/metrics"
	"egov/internal/platform/middleware"
	"egov/internal/platform/redis"
	"egov/internal/rpc"
	"egov/internal/zavod"
	"egov/internal/zavod/report"
	"egov/internal/zavod/survey"
)

func main() {
	cfg := config.ZavodFromEnv()
	log := logger.New("zavod")
	m := metrics.New("zavod")

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Error("opening postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		log.Error("postgres unreachable", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it statistics are recomputed per call.
	cache, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	mupClient := rpc.NewClient(map[string]string{
		report.MupService: cfg.MupAddr,
	}, cfg.RPCTimeout, m)

	surveys := survey.NewService(survey.NewPostgres(pool), cache, cfg.StatsCacheTTL, log)
	reports := report.NewService(report.NewPostgres(pool), surveys, mupClient, m, log)

	rpcServer := rpc.NewServer(log)
	zavod.RegisterCommands(rpcServer, zavod.Services{
		Surveys: surveys,
		Reports: reports,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	rpcServer.Register(r)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, r)
	log.Info("starting zavod-service", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
