package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/momo-ledger/internal/config"
	"github.com/nimasrn/momo-ledger/internal/dataset"
	"github.com/nimasrn/momo-ledger/internal/events"
	"github.com/nimasrn/momo-ledger/internal/handlers"
	"github.com/nimasrn/momo-ledger/internal/queue"
	"github.com/nimasrn/momo-ledger/internal/repository"
	"github.com/nimasrn/momo-ledger/internal/services"
	"github.com/nimasrn/momo-ledger/pkg/logger"
	"github.com/nimasrn/momo-ledger/pkg/pg"
	"github.com/nimasrn/momo-ledger/pkg/prom"
	"github.com/nimasrn/momo-ledger/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	err := config.Load(argContainsEnvPath(), config.RequireAuth)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	if err := logger.Configure(cfg.LogEnv, cfg.LogLevel); err != nil {
		logger.Warn("invalid log settings, keeping defaults", "error", err)
	}
	logger.Info("starting ledger api", "version", version, "commit", commit, "date", date, "env", cfg.AppEnv)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	if cfg.AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	src, closeSource, err := datasetSource(cfg)
	if err != nil {
		logger.Error("failed to open dataset source", "error", err)
		return
	}
	seed := dataset.Seed(context.Background(), src)
	closeSource()

	transactionRepo := repository.NewTransactionRepository(seed)
	prom.SetTransactionsStored(transactionRepo.Count())

	var (
		dispatcher services.EventDispatcher
		eventPool  *events.Dispatcher
		eventQueue *queue.Queue
	)
	if cfg.EventsEnabled {
		eventQueue, err = newEventQueue(cfg)
		if err != nil {
			logger.Error("failed creating event queue", "error", err)
			return
		}
		eventPool = events.NewDispatcher(eventQueue, cfg.EventsWorkers, cfg.EventsBufferSize)
		eventPool.Start()
		dispatcher = eventPool
	}

	// services
	transactionService := services.NewTransactionService(transactionRepo, dispatcher)

	// handlers
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	s := newServer(cfg, transactionHandler.Routes())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(cfg.HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
			c <- syscall.SIGTERM
		}
	}()

	<-c
	s.Shutdown()
	if eventPool != nil {
		if err := eventPool.Stop(5 * time.Second); err != nil {
			logger.Warn("event dispatcher did not drain", "error", err)
		}
	}
	if eventQueue != nil {
		_ = eventQueue.Stop(time.Second)
	}
}

// datasetSource picks the seed source. The returned func releases whatever
// the source holds open once seeding is done.
func datasetSource(cfg *config.Config) (dataset.Source, func(), error) {
	if cfg.DatasetSource != config.DatasetSourcePostgres {
		return dataset.FileSource{Path: cfg.DatasetPath}, func() {}, nil
	}

	db, err := pg.CreateReadWrite(readConfig(cfg), writeConfig(cfg), cfg.AppEnv == "dev")
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close dataset connection", "error", err)
		}
	}
	return dataset.DBSource{Repo: repository.NewDatasetRepository(db)}, closeDB, nil
}

func newEventQueue(cfg *config.Config) (*queue.Queue, error) {
	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: cfg.AppName,
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		return nil, err
	}
	return queue.NewQueue(redisAdap, queue.Config{
		Name:          cfg.EventsStream,
		ConsumerGroup: cfg.EventsConsumerGroup,
		MaxLen:        cfg.EventsMaxLen,
	})
}

func readConfig(cfg *config.Config) pg.Config {
	return pg.Config{
		User:     cfg.PostgresReadUser,
		Host:     cfg.PostgresReadHost,
		Port:     cfg.PostgresReadPort,
		Password: cfg.PostgresReadPassword,
		Database: cfg.PostgresReadDatabase,
	}
}

func writeConfig(cfg *config.Config) pg.Config {
	return pg.Config{
		User:     cfg.PostgresWriteUser,
		Host:     cfg.PostgresWriteHost,
		Port:     cfg.PostgresWritePort,
		Password: cfg.PostgresWritePassword,
		Database: cfg.PostgresWriteDatabase,
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, "--env=") {
			p := strings.TrimPrefix(v, "--env=")
			if _, err := os.Stat(p); err != nil {
				logger.Error("failed to open the passed env file", "error", err)
				return ""
			}
			return p
		}
	}
	return ""
}
