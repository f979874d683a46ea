package domain

type Waypoint struct {
	Name       string   `json:"name"`
	Point      GeoPoint `json:"point"`
	SpeedLimit float64  `json:"speed_limit"`
	City       bool     `json:"city"`
}

type PointOfInterest struct {
	Name  string   `json:"name"`
	Point GeoPoint `json:"point"`
}

type Route struct {
	Name         string
	Waypoints    []Waypoint
	Geofences    []Geofence
	TollGates    []PointOfInterest
	GasStations  []PointOfInterest
	ChokeRadius  float64
	ChokeLimit   float64
	CityRadius   float64
	CityLimit    float64
	HighwayLimit float64
}

type FuelStation struct {
	Name       string  `json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
}
