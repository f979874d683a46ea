package core

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	handler "github.com/nandanugg/fleet-sentinel/module/core/internal/handler/http"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/handler/subscriber"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/handler/ws"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/metrics"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/cache"
	rediscache "github.com/nandanugg/fleet-sentinel/module/core/internal/repository/cache/redis"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/notifier"
	logsender "github.com/nandanugg/fleet-sentinel/module/core/internal/repository/notifier/logger"
	natssender "github.com/nandanugg/fleet-sentinel/module/core/internal/repository/notifier/nats"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/notifier/webhook"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/publisher"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/store/memory"
	"github.com/nandanugg/fleet-sentinel/module/core/service"
)

// Deps are the connections and settings the module is built from. Redis,
// NATS and the webhook are optional.
type Deps struct {
	DB    *sql.DB
	AMQP  *amqp.Connection
	MQTT  mqtt.Client
	Redis *redis.Client
	NATS  *nats.Conn

	Route  domain.Route
	Policy domain.EscalationPolicy

	WebhookURL       string
	WebhookSecret    string
	WebhookTimeout   time.Duration
	PushFlushTimeout time.Duration
	RedisStateTTL    time.Duration

	DetectionInterval time.Duration
	MaxDeviation      float64
	QueueSize         int

	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

type Module struct {
	Tracking   *service.TrackingService
	Escalation *service.EscalationEngine
	Hub        *ws.Hub

	vehicleHandler  *handler.VehicleHandler
	incidentHandler *handler.IncidentHandler
	eventHandler    *handler.EventHandler
	subscriber      *subscriber.LocationSubscriber
	logger          *slog.Logger
}

func Build(d Deps) (*Module, error) {
	logger := d.Logger
	m := metrics.New(d.Registerer)

	locationRepo := postgres.NewLocationRepo(d.DB)
	incidentRepo := postgres.NewIncidentRepo(d.DB)
	eventRepo := postgres.NewEventRepo(d.DB)

	eventsPub, err := rabbitmq.NewEventPublisher(d.AMQP)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}
	hub := ws.NewHub(logger)
	pub := publisher.Fanout{eventsPub, hub}

	var mirror cache.StateMirror = cache.NopMirror{}
	if d.Redis != nil {
		mirror = rediscache.NewStateMirror(d.Redis, d.RedisStateTTL)
	}

	router := notifier.NewRouter(logsender.NewSender(logger))
	if d.NATS != nil {
		router.Route(domain.ChannelPush, natssender.NewPushSender(d.NATS, d.PushFlushTimeout, logger))
	}
	if d.WebhookURL != "" {
		hook := webhook.NewSender(d.WebhookURL, d.WebhookSecret, d.WebhookTimeout, logger)
		router.Route(domain.ChannelEmail, hook).Route(domain.ChannelPhone, hook)
	}

	vehicles := memory.NewVehicleStore()
	incidents := memory.NewIncidentStore()
	events := memory.NewEventLog(memory.DefaultActivityCapacity)

	route := service.NewRouteModel(d.Route)
	locationSvc := service.NewLocationService(locationRepo)
	geofenceSvc := service.NewGeofenceService(pub, events, eventRepo, route.Geofences(), m, logger)
	escalation := service.NewEscalationEngine(incidents, events, router, incidentRepo, pub, d.Policy, m, logger,
		service.WithQueueSize(d.QueueSize))

	tracking := service.NewTrackingService(service.TrackingDeps{
		Vehicles:        vehicles,
		Incidents:       incidents,
		Events:          events,
		Route:           route,
		Geofence:        geofenceSvc,
		Detector:        service.NewIncidentDetector(route, nil),
		Dedup:           service.NewDeduplicator(incidents, m),
		Escalation:      escalation,
		History:         locationSvc,
		IncidentJournal: incidentRepo,
		EventJournal:    eventRepo,
		Publisher:       pub,
		Mirror:          mirror,
		Interval:        d.DetectionInterval,
		MaxDeviation:    d.MaxDeviation,
		Metrics:         m,
		Logger:          logger,
	})

	return &Module{
		Tracking:        tracking,
		Escalation:      escalation,
		Hub:             hub,
		vehicleHandler:  handler.NewVehicleHandler(tracking, locationSvc),
		incidentHandler: handler.NewIncidentHandler(escalation),
		eventHandler:    handler.NewEventHandler(tracking),
		subscriber:      subscriber.NewLocationSubscriber(d.MQTT, tracking, m, logger),
		logger:          logger,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.vehicleHandler.Register(r)
	m.incidentHandler.Register(r)
	m.eventHandler.Register(r)
	m.Hub.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// Run starts the websocket hub, the escalation engine and the detection
// cycle, and blocks until all three have stopped after ctx is done.
func (m *Module) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, run := range []func(context.Context){m.Hub.Run, m.Escalation.Run, m.Tracking.Run} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}
	wg.Wait()
	m.logger.Info("core module stopped")
}
