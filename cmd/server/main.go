package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/fleet-sentinel/config"
	"github.com/nandanugg/fleet-sentinel/module/core"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		if redisClient, err = config.NewRedis(cfg); err != nil {
			logger.Warn("redis unavailable, state mirror disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		if natsConn, err = config.NewNATS(cfg); err != nil {
			logger.Warn("nats unavailable, push notifications go to the log", slog.Any("error", err))
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	coreModule, err := core.Build(core.Deps{
		DB:                db,
		AMQP:              amqpConn,
		MQTT:              mqttClient,
		Redis:             redisClient,
		NATS:              natsConn,
		Route:             config.DefaultRoute(),
		Policy:            config.DefaultPolicy(cfg),
		WebhookURL:        cfg.WebhookURL,
		WebhookSecret:     cfg.WebhookSecret,
		WebhookTimeout:    cfg.WebhookTimeout,
		PushFlushTimeout:  cfg.PushFlushTimeout,
		RedisStateTTL:     cfg.RedisStateTTL,
		DetectionInterval: cfg.DetectionInterval,
		MaxDeviation:      cfg.MaxDeviationMeters,
		QueueSize:         cfg.EscalationQueueSize,
		Registerer:        reg,
		Logger:            logger,
	})
	if err != nil {
		log.Fatalf("core module: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		coreModule.Run(ctx)
	}()

	if err := coreModule.StartSubscribers(); err != nil {
		log.Fatalf("start subscribers: %v", err)
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient, redisClient, natsConn)
	health.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	coreModule.RegisterRoutes(r.Group("/api/v1"))

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}
	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	wg.Wait()
}
