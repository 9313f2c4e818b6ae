package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/baki-ledger/internal/app"
	"github.com/nimasrn/baki-ledger/internal/config"
	"github.com/nimasrn/baki-ledger/internal/handlers"
	xhttp "github.com/nimasrn/baki-ledger/pkg/http"
	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/nimasrn/baki-ledger/pkg/prom"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	c := config.Get()
	logger.Info("starting ledger api", "version", version, "commit", commit, "date", date, "env", c.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.AppDebugMetricsAddr != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, c.AppEnv, c.PromNamespace); err != nil {
			logger.Error("failed creating metrics", "error", err)
			return
		}
		go prom.ListenAndServer(c.AppDebugMetricsAddr, c.AppDebugMetricsURI)
	}

	ledger, err := app.Open(ctx, c)
	if err != nil {
		logger.Error("failed opening ledger", "error", err)
		return
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("failed closing ledger", "error", err)
		}
	}()

	// transport (tcp for now)
	s := xhttp.CreateServer()
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)

	// v1 handlers
	g := s.Router.Group("/api/v1")
	handlers.RegisterLedgerRoutes(g, handlers.NewLedgerHandler(ledger.Ledger))
	handlers.RegisterReportRoutes(g, handlers.NewReportHandler(ledger.Report))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(ledger.DB))

	errc := make(chan error, 1)
	go func() {
		errc <- s.ListenAndServe(c.HttpListenAddr)
	}()

	select {
	case <-ctx.Done():
		s.Shutdown()
	case err := <-errc:
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}
}
