package domain

import "time"

type Geofence struct {
	Name   string   `json:"name"`
	Center GeoPoint `json:"center"`
	Radius float64  `json:"radius"`
}

type GeofenceEventType string

const (
	GeofenceEnter GeofenceEventType = "enter"
	GeofenceExit  GeofenceEventType = "exit"
)

type GeofenceEvent struct {
	ID               string            `json:"id"`
	VehicleID        string            `json:"vehicle_id"`
	Type             GeofenceEventType `json:"event_type"`
	Lat              float64           `json:"latitude"`
	Lon              float64           `json:"longitude"`
	GeofenceName     string            `json:"geofence_name"`
	Timestamp        time.Time         `json:"timestamp"`
	NotificationSent bool              `json:"notification_sent"`
	Approximated     bool              `json:"timestamp_approximated"`
}

type ActivityType string

const (
	ActivityGeofenceEnter ActivityType = "geofence_enter"
	ActivityGeofenceExit  ActivityType = "geofence_exit"
	ActivityIncident      ActivityType = "incident"
	ActivityAcknowledged  ActivityType = "incident_acknowledged"
	ActivityFuelWarning   ActivityType = "fuel_warning"
)

type ActivityLog struct {
	ID          string       `json:"id"`
	VehicleID   string       `json:"vehicle_id"`
	Type        ActivityType `json:"activity_type"`
	Description string       `json:"description"`
	Lat         float64      `json:"latitude"`
	Lon         float64      `json:"longitude"`
	Timestamp   time.Time    `json:"timestamp"`
}
