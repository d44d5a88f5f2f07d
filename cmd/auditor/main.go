package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/momo-ledger/internal/config"
	"github.com/nimasrn/momo-ledger/internal/events"
	"github.com/nimasrn/momo-ledger/internal/queue"
	"github.com/nimasrn/momo-ledger/pkg/logger"
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

	err := config.Load(argContainsEnvPath(), config.RequireEvents)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	if err := logger.Configure(cfg.LogEnv, cfg.LogLevel); err != nil {
		logger.Warn("invalid log settings, keeping defaults", "error", err)
	}
	logger.Info("starting ledger auditor", "version", version, "commit", commit, "date", date, "stream", cfg.EventsStream)

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: cfg.AppName + "-auditor",
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}
	defer redisAdap.Close()

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

	consumerName := cfg.EventsConsumerName
	if consumerName == "" {
		consumerName = hostname
	}
	q, err := queue.NewQueue(redisAdap, queue.Config{
		Name:              cfg.EventsStream,
		ConsumerGroup:     cfg.EventsConsumerGroup,
		ConsumerName:      consumerName,
		MaxRetries:        cfg.EventsMaxRetries,
		VisibilityTimeout: cfg.EventsVisibilityTimeout,
		PollInterval:      cfg.EventsPollInterval,
		MaxLen:            cfg.EventsMaxLen,
		EnableDLQ:         true,
	})
	if err != nil {
		logger.Error("failed creating queue", "error", err)
		return
	}

	if hasFlag("--replay") {
		n, err := events.Replay(context.Background(), q)
		if err != nil {
			logger.Error("replay stopped", "replayed", n, "error", err)
			return
		}
		logger.Info("replay finished", "replayed", n)
		return
	}

	if cfg.AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	if err := q.Consume(events.AuditHandler); err != nil {
		logger.Error("failed to start consuming", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	if err := q.Stop(10 * time.Second); err != nil {
		logger.Warn("auditor did not stop cleanly", "error", err)
	}
	if stats, err := q.Stats(); err == nil {
		logger.Info("auditor stopped", "processed", stats.ProcessedCount, "failed", stats.FailedCount, "pending", stats.PendingMessages)
	}
}

func hasFlag(name string) bool {
	for _, v := range os.Args[1:] {
		if v == name {
			return true
		}
	}
	return false
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
