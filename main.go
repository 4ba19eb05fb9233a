package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Mira/ai"
	"Mira/bot"
	"Mira/core"
	"Mira/holder"
	"Mira/lib/sl"
	"Mira/quota"
	"Mira/scene"
	"Mira/session"
	"Mira/storage"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const sessionCacheTTL = 10 * time.Minute

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf := core.MustLoad(*configPath)
	log := setupLogger(conf.Env)
	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.Provider.Model),
	).Info("starting mira bot")

	// Initialize storage based on config
	var sessions storage.SessionStorage
	var quotas storage.QuotaStorage
	if conf.Mongo.Enabled {
		mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%s",
			conf.Mongo.User, conf.Mongo.Password,
			conf.Mongo.Host, conf.Mongo.Port)
		mongoSessions, err := storage.NewMongoSessionStorage(mongoURI, conf.Mongo.Database, log)
		if err != nil {
			log.With(
				slog.String("db", conf.Mongo.Database),
				slog.String("user", conf.Mongo.User),
				slog.String("host", conf.Mongo.Host),
			).Error("falling back to memory", sl.Err(err))
			sessions = storage.NewMemorySessionStorage()
			quotas = storage.NewMemoryQuotaStorage()
		} else {
			sessions = storage.NewCachedSessionStorage(mongoSessions, sessionCacheTTL)
			quotas, err = storage.NewMongoQuotaStorage(mongoSessions.GetClient(), conf.Mongo.Database, log)
			if err != nil {
				log.Error("creating quota storage", sl.Err(err))
				quotas = storage.NewMemoryQuotaStorage()
			}
			log.Info("using MongoDB storage")
		}
	} else {
		sessions = storage.NewMemorySessionStorage()
		quotas = storage.NewMemoryQuotaStorage()
		log.Info("using in-memory storage")
	}

	ledger, err := quota.NewLedger(quotas, log, conf.DailyLimit, conf.QuotaTimezone)
	if err != nil {
		log.Error("creating quota ledger", sl.Err(err))
		return
	}

	assets := holder.NewDiskAssetStore(conf.AssetsDir)
	references := holder.NewReferenceManager(sessions, assets, conf.MaxReferences, log)
	resolver := scene.NewResolver(nil)
	provider := ai.NewHTTPProvider(conf, log)
	generator := ai.NewGenerator(conf, log, references, ledger, resolver, provider)
	machine := session.NewMachine(conf, log, sessions, references, generator, resolver, ledger)

	tgBot, err := bot.NewTgBot(conf, log)
	if err != nil {
		log.Error("creating telegram", sl.Err(err))
		return
	}

	tgBot.SetService(machine)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in goroutine
	go func() {
		if err := tgBot.Start(); err != nil {
			log.Error("bot stopped with error", sl.Err(err))
		}
	}()

	log.Info("bot started")

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))

	// Graceful shutdown
	tgBot.Stop()

	// Close storage connections
	if err := machine.Close(); err != nil {
		log.Error("error closing session storage", sl.Err(err))
	}
	if err := quotas.Close(); err != nil {
		log.Error("error closing quota storage", sl.Err(err))
	}

	log.Info("shutdown complete")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
