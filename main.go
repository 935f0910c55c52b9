package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jalad-shrimali/missed-calls/analysis"
	"github.com/jalad-shrimali/missed-calls/config"
	"github.com/jalad-shrimali/missed-calls/handlers"
	"github.com/jalad-shrimali/missed-calls/msisdn"
	"github.com/jalad-shrimali/missed-calls/watch"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	var ops *analysis.OperatorDB
	if cfg.OperatorDB != "" {
		ops, err = analysis.OpenOperatorDB(cfg.OperatorDB)
		if err != nil {
			logger.Warn("operator lookup disabled", zap.Error(err))
			ops = nil
		} else {
			defer ops.Close()
			logger.Info("operator lookup enabled", zap.String("path", cfg.OperatorDB))
		}
	}

	if cfg.WatchDir != "" {
		if err := os.MkdirAll(cfg.WatchDir, 0o755); err != nil {
			logger.Fatal("watch dir", zap.Error(err))
		}
		w := watch.New(cfg.WatchDir, cfg.ReportsDir,
			msisdn.New(cfg.CountryCode), ops, analysis.Language(cfg.Language), logger)
		if err := w.Start(context.Background()); err != nil {
			logger.Fatal("watcher", zap.Error(err))
		}
		logger.Info("watching drop folder", zap.String("dir", cfg.WatchDir))
	}

	mux := http.NewServeMux()
	handlers.New(cfg, logger, ops).Register(mux)

	logger.Info("server started", zap.String("addr", cfg.HTTPPort))
	if err := http.ListenAndServe(cfg.HTTPPort, mux); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
