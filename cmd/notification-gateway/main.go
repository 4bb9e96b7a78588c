// Command notification-gateway is the dispatch engine's process entry
// point. It wires configuration, channel adapters, the retry executor, the
// dispatcher, the customer resolver, the consume-commit loop, the
// lifecycle gate, the health endpoint, the optional DLQ publisher, and the
// optional audit store, then blocks until a stop signal arrives.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/yourorg/notification-gateway/internal/audit"
	"github.com/yourorg/notification-gateway/internal/channel"
	"github.com/yourorg/notification-gateway/internal/config"
	"github.com/yourorg/notification-gateway/internal/consumer"
	"github.com/yourorg/notification-gateway/internal/dispatch"
	"github.com/yourorg/notification-gateway/internal/health"
	"github.com/yourorg/notification-gateway/internal/lifecycle"
	"github.com/yourorg/notification-gateway/internal/logger"
	"github.com/yourorg/notification-gateway/internal/resolver"
	"github.com/yourorg/notification-gateway/internal/retry"
)

func main() {
	log := logger.New("notification-gateway")
	log.Info("starting notification gateway", nil)

	cfg := config.MustLoad()
	log.Info("configuration loaded", map[string]any{
		"bootstrap": cfg.Bus.Bootstrap, "topics": cfg.Bus.Topics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emailAdapters, smsAdapters, err := channel.BuildAdapters(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build channel adapters", err, nil)
		os.Exit(1)
	}
	if len(emailAdapters) == 0 && len(smsAdapters) == 0 {
		log.Error("zero adapters configured, refusing to start", nil, nil)
		os.Exit(1)
	}
	log.Info("channel adapters configured", map[string]any{
		"email": adapterNames(emailAdapters), "sms": adapterNames(smsAdapters),
	})

	res, err := buildResolver(cfg, log)
	if err != nil {
		log.Error("failed to build customer resolver", err, nil)
		os.Exit(1)
	}

	executor := retry.New(cfg.Retry, log)
	dispatcher := dispatch.New(emailAdapters, smsAdapters, cfg.Routing, executor, log)

	gate := lifecycle.New(log)

	group, err := buildConsumerGroup(cfg.Bus)
	if err != nil {
		log.Error("failed to build consumer group", err, nil)
		os.Exit(1)
	}
	gate.Register(group)

	for _, a := range emailAdapters {
		gate.Register(a)
	}
	for _, a := range smsAdapters {
		gate.Register(a)
	}
	gate.Register(res)

	var dlq *consumer.DLQPublisher
	if cfg.Retry.OnExhausted == "kafka" {
		brokers := strings.Split(cfg.Bus.Bootstrap, ",")
		dlq, err = consumer.NewDLQPublisher(brokers, cfg.Retry.DLQTopic, log)
		if err != nil {
			log.Error("failed to build dlq publisher, degrading to log", err, nil)
			dlq = nil
		} else {
			gate.Register(dlq)
		}
	}

	var auditRecorder consumer.AuditRecorder
	if cfg.Audit.Enabled {
		store, err := audit.NewStore(cfg.Audit.DSN, log)
		if err != nil {
			log.Error("failed to build audit store, continuing without it", err, nil)
		} else {
			auditRecorder = store
			gate.Register(store)
		}
	}

	loop := consumer.New(group, cfg.Bus, cfg.Retry, dispatcher, res, gate, dlq, auditRecorder, log)

	healthServer := health.New(cfg.Health.Port, gate, log)
	healthServer.Start()
	gate.Register(healthServer)

	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("stop signal received, shutting down", nil)
	case err := <-loopErr:
		if err != nil {
			log.Error("consumer loop exited with fatal error", err, nil)
		}
	}

	gate.Shutdown()
	log.Info("notification gateway stopped", nil)
}

func adapterNames(adapters []channel.Adapter) []string {
	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.ProviderName())
	}
	return names
}

func buildResolver(cfg config.Config, log logger.Logger) (resolver.Resolver, error) {
	switch cfg.Resolver.Type {
	case "http":
		return resolver.NewHTTPResolver(cfg.Resolver.HTTP.BaseURL, cfg.Resolver.HTTP.TimeoutMs, log), nil
	case "db":
		return resolver.NewDBResolver(cfg.Resolver.DB.DSN, log)
	default:
		return resolver.NewMockResolver(), nil
	}
}

func buildConsumerGroup(cfg config.BusConfig) (sarama.ConsumerGroup, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Version = sarama.V2_8_0_0
	saramaCfg.Consumer.Offsets.AutoCommit.Enable = false
	saramaCfg.Consumer.Group.Session.Timeout = msDuration(cfg.SessionTimeoutMs, 10_000)
	saramaCfg.Consumer.Group.Heartbeat.Interval = msDuration(cfg.HeartbeatIntervalMs, 3_000)
	saramaCfg.Consumer.MaxProcessingTime = 60 * time.Second // adapters run sequentially with retry backoff

	switch strings.ToLower(cfg.AutoOffsetReset) {
	case "latest":
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	default:
		saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	brokers := strings.Split(cfg.Bootstrap, ",")
	return sarama.NewConsumerGroup(brokers, cfg.GroupID, saramaCfg)
}

func msDuration(ms, fallback int) time.Duration {
	if ms <= 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}
