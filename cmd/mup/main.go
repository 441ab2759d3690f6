package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"egov/internal/audit"
	"egov/internal/mup"
	"egov/internal/mup/citizen"
	"egov/internal/mup/docstore"
	"egov/internal/mup/document"
	"egov/internal/mup/infraction"
	"egov/internal/mup/request"
	"egov/internal/platform/config"
	"egov/internal/platform/httpserver"
	"egov/internal/platform/kafka"
	"egov/internal/platform/logger"
	"egov/internal/platform/metrics"
	"egov/internal/platform/middleware"
	"egov/internal/rpc"
)

func main() {
	cfg := config.MupFromEnv()
	log := logger.New("mup")
	m := metrics.New("mup")

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Error("opening postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Error("postgres unreachable", "error", err)
		os.Exit(1)
	}

	objects, err := docstore.NewMinio(context.Background(), docstore.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		log.Error("connecting to minio", "error", err)
		os.Exit(1)
	}

	broker, err := kafka.New(cfg.KafkaBrokers)
	if err != nil {
		log.Error("connecting to kafka", "error", err)
		os.Exit(1)
	}
	defer broker.Close()
	if err := broker.EnsureTopic(context.Background(), cfg.AuditTopic, 1); err != nil {
		log.Error("ensuring audit topic", "error", err)
		os.Exit(1)
	}

	auditStore := audit.NewPostgresStore(db)
	auditor := audit.NewPublisher(auditStore)

	requests := request.NewService(request.NewPostgres(db), auditor, m, log)
	services := mup.Services{
		Citizens:    citizen.NewService(citizen.NewPostgres(db), log),
		Requests:    requests,
		Infractions: infraction.NewService(infraction.NewPostgres(db), log),
		Documents:   document.NewService(requests, objects, log),
	}

	rpcServer := rpc.NewServer(log)
	mup.RegisterCommands(rpcServer, services)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	rpcServer.Register(r)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	outbox := audit.NewOutboxWorker(auditStore, broker, cfg.AuditTopic, 5*time.Second, log)
	go func() {
		if err := outbox.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("outbox worker stopped", "error", err)
		}
	}()

	srv := httpserver.New(cfg.Addr, r)
	log.Info("starting mup-service", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
