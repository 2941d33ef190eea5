package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"supply-rounds/internal/api"
	"supply-rounds/internal/app"
	"supply-rounds/internal/config"
	"supply-rounds/internal/events"
	"supply-rounds/internal/logging"
	"supply-rounds/internal/rounds"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	log := app.NewLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	net, err := app.LoadNetwork(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to load topology", logging.Err(err))
		os.Exit(1)
	}
	broker, err := app.NewBroker(cfg)
	if err != nil {
		log.Error(ctx, "failed to set up event broker", logging.Err(err))
		os.Exit(1)
	}
	checks := map[string]api.Pinger{}
	if rb, ok := broker.(*events.RedisBroker); ok {
		checks["redis"] = rb
		defer rb.Close()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Network: net,
		NewArbiter: func() rounds.Arbiter {
			return app.NewArbiter(cfg, log)
		},
		Session:      app.SessionOptions(cfg, log, broker),
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       log,
		Checks:       checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "starting API server",
		logging.String("addr", srv.Addr),
		logging.String("arbiter", cfg.Arbiter.BaseURL),
		logging.String("env", cfg.Server.Env))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "server failed", logging.Err(err))
		os.Exit(1)
	}
}
