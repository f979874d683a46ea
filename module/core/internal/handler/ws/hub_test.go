package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	hub.Register(r.Group(""))
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, hub *Hub, url string) *websocket.Conn {
	t.Helper()
	before := hub.Clients()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() <= before {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return m
}

func TestHub_BroadcastsIncident(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url)

	inc := &domain.Incident{ID: "inc-1", VehicleID: "OD-03-NT-1001", Type: domain.IncidentSpeedViolation}
	if err := hub.PublishIncident(context.Background(), inc); err != nil {
		t.Fatalf("publish: %v", err)
	}

	m := read(t, conn)
	if m.Type != "incident" || m.VehicleID != "OD-03-NT-1001" {
		t.Errorf("unexpected message %+v", m)
	}
	data, _ := m.Data.(map[string]any)
	if data["id"] != "inc-1" {
		t.Errorf("expected incident payload, got %v", m.Data)
	}
}

func TestHub_SubscribeFiltersByVehicle(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","data":{"vehicle_id":"OD-03-NT-1002"}}`)); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if m := read(t, conn); m.Type != "pong" {
		t.Fatalf("expected pong, got %+v", m)
	}

	hub.PublishGeofenceEvent(context.Background(), &domain.GeofenceEvent{VehicleID: "OD-03-NT-1001", Type: domain.GeofenceEnter})
	hub.PublishGeofenceEvent(context.Background(), &domain.GeofenceEvent{VehicleID: "OD-03-NT-1002", Type: domain.GeofenceExit})

	m := read(t, conn)
	if m.Type != "geofence_event" || m.VehicleID != "OD-03-NT-1002" {
		t.Errorf("expected only the subscribed vehicle's event, got %+v", m)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url)

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(time.Millisecond)
	}
}
