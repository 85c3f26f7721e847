package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stake-plus/guildpanel/src/actions"
	"github.com/stake-plus/guildpanel/src/config"
	"github.com/stake-plus/guildpanel/src/data"
	"github.com/stake-plus/guildpanel/src/logging"
)

func main() {
	_ = godotenv.Load()

	// Settings live in the database, so start with env-only logging.
	log := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	dsn, err := data.MySQLDSN()
	if err != nil {
		log.WithError(err).Fatal("mysql dsn")
	}
	db, err := data.ConnectMySQL(dsn, log)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	if err := data.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	if err := data.LoadSettings(db); err != nil {
		log.WithError(err).Warn("failed to load settings, using environment only")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("config")
	}
	log = logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("redis")
	}
	defer rdb.Close()

	manager, err := actions.StartAll(ctx, actions.Deps{Config: cfg, DB: db, Redis: rdb, Log: log})
	if err != nil {
		log.WithError(err).Fatal("actions start")
	}
	log.WithField("modules", manager.Names()).Info("guildpanel running")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	manager.Stop(stopCtx)
}
