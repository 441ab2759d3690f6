package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"egov/internal/gateway"
	jwttoken "egov/internal/jwt_token"
	"egov/internal/platform/config"
	"egov/internal/platform/httpserver"
	"egov/internal/platform/logger"
	"egov/internal/platform/metrics"
	"egov/internal/rpc"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Route and authorization logic lives in internal/gateway.
func main() {
	cfg := config.GatewayFromEnv()
	log := logger.New("gateway")
	m := metrics.New("gateway")

	client := rpc.NewClient(map[string]string{
		gateway.MupService:   cfg.MupAddr,
		gateway.ZavodService: cfg.ZavodAddr,
	}, cfg.RPCTimeout, m)
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "egov-gateway")

	gw := gateway.New(client, jwtService, log)
	srv := httpserver.New(cfg.Addr, gw.Router(m))

	log.Info("starting gateway", "addr", cfg.Addr)
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
