package main

import (
	"context"
	"os"

	"github.com/smallbiznis/authgate/internal/config"
	"github.com/smallbiznis/authgate/internal/observability/logger"
	"github.com/smallbiznis/authgate/internal/userdump"
	"github.com/smallbiznis/authgate/pkg/db"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg := config.Load()
	log := logger.NewWriterLogger(os.Stderr, userdump.LoggerName, zapcore.InfoLevel, userdump.PIIFields(cfg.Logger.PIIFields))
	defer func() { _ = log.Sync() }()

	dbCfg := db.FromAppConfig(cfg)
	dbCfg.Metrics = false
	dbCfg.Tracing = false

	conn, err := db.Open(dbCfg, zap.NewNop())
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}

	if _, err := userdump.Dump(context.Background(), conn, os.Getenv("USERDUMP_TABLE"), log); err != nil {
		log.Fatal("dump users", zap.Error(err))
	}
}
