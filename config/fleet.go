package config

import (
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

var (
	PlantGeofence = domain.Geofence{
		Name:   "NTPC Talcher Super Thermal Power Station",
		Center: domain.GeoPoint{Lat: 20.9463, Lon: 85.2190},
		Radius: 200,
	}
	DestinationGeofence = domain.Geofence{
		Name:   "Chandilkhol Industrial Area",
		Center: domain.GeoPoint{Lat: 20.8739, Lon: 86.0891},
		Radius: 200,
	}
)

// DefaultRoute is the coal haul from NTPC Talcher to Chandilkhol.
func DefaultRoute() domain.Route {
	wp := func(name string, lat, lon, limit float64, city bool) domain.Waypoint {
		return domain.Waypoint{Name: name, Point: domain.GeoPoint{Lat: lat, Lon: lon}, SpeedLimit: limit, City: city}
	}
	poi := func(name string, lat, lon float64) domain.PointOfInterest {
		return domain.PointOfInterest{Name: name, Point: domain.GeoPoint{Lat: lat, Lon: lon}}
	}

	return domain.Route{
		Name: "NTPC Talcher - Chandilkhol",
		Waypoints: []domain.Waypoint{
			wp("NTPC Talcher", 20.9463, 85.2190, 40, true),
			wp("Talcher Junction", 20.9520, 85.2380, 50, false),
			wp("Boinda", 20.9680, 85.2890, 80, false),
			wp("Dhenkanal Road", 20.9850, 85.3450, 80, false),
			wp("Dhenkanal", 20.9950, 85.4200, 50, true),
			wp("Kamakhyanagar", 21.0100, 85.5100, 80, false),
			wp("Parjang", 20.9800, 85.6200, 80, false),
			wp("Hindol Road", 20.9500, 85.7800, 80, false),
			wp("Bhuban", 20.9200, 85.8900, 50, false),
			wp("Jajpur Road", 20.8950, 86.0200, 50, false),
			wp("Chandilkhol Industrial Area", 20.8739, 86.0891, 40, true),
		},
		Geofences: []domain.Geofence{PlantGeofence, DestinationGeofence},
		TollGates: []domain.PointOfInterest{
			poi("Dhenkanal Toll Plaza", 20.9900, 85.4150),
			poi("Parjang Toll Plaza", 20.9780, 85.6180),
			poi("Jajpur Road Toll Plaza", 20.8970, 86.0180),
		},
		GasStations: []domain.PointOfInterest{
			poi("HP Petrol Pump Talcher", 20.9480, 85.2250),
			poi("Indian Oil Boinda", 20.9690, 85.2910),
			poi("Bharat Petroleum Dhenkanal", 20.9920, 85.4180),
			poi("HP Petrol Pump Kamakhyanagar", 21.0120, 85.5120),
			poi("Indian Oil Hindol", 20.9520, 85.7820),
			poi("Reliance Petrol Bhuban", 20.9180, 85.8920),
			poi("HP Petrol Pump Chandilkhol", 20.8760, 86.0870),
		},
		ChokeRadius:  2000,
		ChokeLimit:   40,
		CityRadius:   5000,
		CityLimit:    50,
		HighwayLimit: domain.DefaultSpeedLimitKmh,
	}
}

// DefaultPolicy is the three-tier contact tree of the plant.
func DefaultPolicy(cfg *Config) domain.EscalationPolicy {
	contact := func(name, role, phone, email, push string) domain.Contact {
		return domain.Contact{Name: name, Role: role, Phone: phone, Email: email, PushToken: push}
	}

	return domain.EscalationPolicy{
		Tiers: []domain.Tier{
			{
				Level:   1,
				Timeout: 5 * time.Minute,
				Contacts: []domain.Contact{
					contact("Fleet Manager", "primary", "+91-9437100001", "fleet.manager@ntpc.co.in", "fleet_mgr_push_001"),
					contact("IT Emergency Team", "primary", "+91-9437100002", "it.emergency@ntpc.co.in", "it_emergency_push_002"),
					contact("Operations Control Room", "primary", "+91-9437100003", "operations.control@ntpc.co.in", "ops_control_push_003"),
					contact("Safety Emergency Team", "primary", "+91-9437100004", "safety.emergency@ntpc.co.in", "safety_emergency_push_004"),
				},
			},
			{
				Level:   2,
				Timeout: 3 * time.Minute,
				Contacts: []domain.Contact{
					contact("Plant Security Chief", "secondary", "+91-9437100005", "security.chief@ntpc.co.in", "security_chief_push_005"),
					contact("Transport Supervisor", "secondary", "+91-9437100006", "transport.supervisor@ntpc.co.in", "transport_sup_push_006"),
				},
			},
			{
				Level:   3,
				Timeout: 2 * time.Minute,
				Contacts: []domain.Contact{
					contact("Emergency Coordinator", "escalation", "+91-9437100007", "emergency.coordinator@ntpc.co.in", "emergency_coord_push_007"),
				},
			},
		},
		AttemptInterval: cfg.AttemptInterval,
		MaxAttempts:     cfg.MaxAttempts,
	}
}
