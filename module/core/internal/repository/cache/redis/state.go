package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/cache"
)

var _ cache.StateMirror = (*StateMirror)(nil)

const (
	geoKey       = "fleet:geo"
	telemetryPub = "fleet:telemetry"
)

type StateMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateMirror(client *redis.Client, ttl time.Duration) *StateMirror {
	return &StateMirror{client: client, ttl: ttl}
}

func StateKey(vehicleID string) string {
	return fmt.Sprintf("vehicle:%s:state", vehicleID)
}

func (m *StateMirror) MirrorState(ctx context.Context, st *domain.VehicleState) error {
	fields := map[string]interface{}{
		"vehicle_id":       st.VehicleID,
		"lat":              st.Position.Lat,
		"lng":              st.Position.Lon,
		"speed_kmh":        st.Position.Speed,
		"heading":          st.Position.Heading,
		"stop_duration":    st.StopMinutes,
		"on_route":         st.OnRoute,
		"nearest_waypoint": st.NearestWaypoint,
		"speed_limit":      st.SpeedLimit,
		"fuel_level":       st.FuelLevel,
		"route_progress":   st.RouteProgress,
		"route_status":     string(st.Status()),
		"timestamp":        st.Position.Timestamp.Unix(),
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	key := StateKey(st.VehicleID)
	pipe := m.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	if m.ttl > 0 {
		pipe.Expire(ctx, key, m.ttl)
	}
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      st.VehicleID,
		Longitude: st.Position.Lon,
		Latitude:  st.Position.Lat,
	})
	pipe.Publish(ctx, telemetryPub, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}
