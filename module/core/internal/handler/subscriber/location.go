package subscriber

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/metrics"
	"github.com/nandanugg/fleet-sentinel/module/core/service"
)

const topicPattern = "/fleet/vehicle/+/location"

type trackingService interface {
	Submit(r domain.PositionReport) error
}

// locationMessage is the tracker payload. Timestamp may be unix seconds,
// unix milliseconds or an ISO 8601 string.
type locationMessage struct {
	VehicleID    string          `json:"vehicle_id"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	Speed        float64         `json:"speed"`
	Heading      float64         `json:"heading"`
	Altitude     float64         `json:"altitude"`
	Accuracy     float64         `json:"accuracy"`
	FuelLevel    *float64        `json:"fuel_level"`
	Timestamp    json.RawMessage `json:"timestamp"`
	DriverName   string          `json:"driver_name"`
	DriverPhone  string          `json:"driver_phone"`
	LicensePlate string          `json:"license_plate"`
	VehicleType  string          `json:"vehicle_type"`
}

type LocationSubscriber struct {
	client   mqtt.Client
	tracking trackingService
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewLocationSubscriber(client mqtt.Client, tracking trackingService, m *metrics.Metrics, logger *slog.Logger) *LocationSubscriber {
	return &LocationSubscriber{
		client:   client,
		tracking: tracking,
		now:      time.Now,
		metrics:  m,
		logger:   logger,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.metrics.PositionsRejected.WithLabelValues("malformed").Inc()
		s.logger.Warn("invalid location message", slog.String("topic", msg.Topic()), slog.Any("error", err))
		return
	}
	if raw.VehicleID == "" {
		raw.VehicleID = vehicleFromTopic(msg.Topic())
	}

	if err := validateLocationMessage(&raw); err != nil {
		s.metrics.PositionsRejected.WithLabelValues("invalid").Inc()
		s.logger.Warn("validation error", slog.String("topic", msg.Topic()), slog.Any("error", err))
		return
	}

	ts, approximated := service.ParseTimestamp(raw.Timestamp, s.now())
	r := domain.PositionReport{
		VehicleID:             raw.VehicleID,
		Lat:                   raw.Latitude,
		Lon:                   raw.Longitude,
		Speed:                 raw.Speed,
		Heading:               raw.Heading,
		Altitude:              raw.Altitude,
		Accuracy:              raw.Accuracy,
		FuelLevel:             raw.FuelLevel,
		Timestamp:             ts,
		TimestampApproximated: approximated,
		DriverName:            raw.DriverName,
		DriverPhone:           raw.DriverPhone,
		LicensePlate:          raw.LicensePlate,
		VehicleType:           raw.VehicleType,
	}

	if err := s.tracking.Submit(r); err != nil {
		s.logger.Warn("submit position report", slog.String("vehicle_id", r.VehicleID), slog.Any("error", err))
	}
}

// vehicleFromTopic extracts the id segment of /fleet/vehicle/<id>/location.
func vehicleFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) != 4 || parts[0] != "fleet" || parts[1] != "vehicle" || parts[3] != "location" {
		return ""
	}
	return parts[2]
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.VehicleID == "" {
		return fmt.Errorf("vehicle_id: required")
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Speed < 0 {
		return fmt.Errorf("speed: must not be negative")
	}
	if msg.FuelLevel != nil && (math.IsNaN(*msg.FuelLevel) || *msg.FuelLevel < 0 || *msg.FuelLevel > 100) {
		return fmt.Errorf("fuel_level: must be between 0 and 100")
	}
	return nil
}
