package config

import (
	"database/sql"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// HealthChecker reports every backing connection. Redis and NATS are
// optional and only reported when configured.
type HealthChecker struct {
	db       *sql.DB
	amqpConn *amqp.Connection
	mqtt     mqtt.Client
	redis    *redis.Client
	nats     *nats.Conn
}

func NewHealthChecker(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client, natsConn *nats.Conn) *HealthChecker {
	return &HealthChecker{db: db, amqpConn: amqpConn, mqtt: mqttClient, redis: redisClient, nats: natsConn}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	down := func(name, reason string) {
		deps[name] = gin.H{"status": "down", "error": reason}
		status = http.StatusServiceUnavailable
	}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		down("postgres", err.Error())
	} else {
		deps["postgres"] = gin.H{"status": "up"}
	}

	if h.amqpConn.IsClosed() {
		down("rabbitmq", "connection closed")
	} else {
		deps["rabbitmq"] = gin.H{"status": "up"}
	}

	if !h.mqtt.IsConnected() {
		down("mqtt", "not connected")
	} else {
		deps["mqtt"] = gin.H{"status": "up"}
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			down("redis", err.Error())
		} else {
			deps["redis"] = gin.H{"status": "up"}
		}
	}

	if h.nats != nil {
		if !h.nats.IsConnected() {
			down("nats", h.nats.Status().String())
		} else {
			deps["nats"] = gin.H{"status": "up"}
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
