package service

import (
	"math"
	"sort"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

// RouteModel answers proximity questions against a fixed route. It is
// read-only after construction and safe for concurrent use.
type RouteModel struct {
	route      domain.Route
	cumulative []float64
	length     float64
}

func NewRouteModel(route domain.Route) *RouteModel {
	if route.HighwayLimit <= 0 {
		route.HighwayLimit = domain.DefaultSpeedLimitKmh
	}

	m := &RouteModel{
		route:      route,
		cumulative: make([]float64, len(route.Waypoints)),
	}
	for i := 1; i < len(route.Waypoints); i++ {
		leg := Distance(route.Waypoints[i-1].Point, route.Waypoints[i].Point)
		m.cumulative[i] = m.cumulative[i-1] + leg
	}
	if n := len(m.cumulative); n > 0 {
		m.length = m.cumulative[n-1]
	}
	return m
}

func (m *RouteModel) Geofences() []domain.Geofence {
	return m.route.Geofences
}

func (m *RouteModel) Waypoints() []domain.Waypoint {
	return m.route.Waypoints
}

// NearestWaypoint returns the closest waypoint. Ties keep the earlier one.
func (m *RouteModel) NearestWaypoint(p domain.GeoPoint) (string, float64) {
	_, name, dist := m.nearest(p)
	return name, dist
}

func (m *RouteModel) nearest(p domain.GeoPoint) (int, string, float64) {
	idx, name, best := -1, "", math.Inf(1)
	for i, wp := range m.route.Waypoints {
		if d := Distance(p, wp.Point); d < best {
			idx, name, best = i, wp.Name, d
		}
	}
	return idx, name, best
}

// IsOnRoute reports whether p lies within maxDeviation meters of any
// waypoint. The first waypoint in route order that qualifies is returned,
// which is not necessarily the nearest one.
func (m *RouteModel) IsOnRoute(p domain.GeoPoint, maxDeviation float64) (bool, *domain.Waypoint, float64) {
	for i := range m.route.Waypoints {
		wp := &m.route.Waypoints[i]
		if d := Distance(p, wp.Point); d <= maxDeviation {
			return true, wp, d
		}
	}
	return false, nil, math.Inf(1)
}

// NearestOnRoute is the nearest-match variant of IsOnRoute.
func (m *RouteModel) NearestOnRoute(p domain.GeoPoint, maxDeviation float64) (bool, *domain.Waypoint, float64) {
	idx, _, d := m.nearest(p)
	if idx < 0 || d > maxDeviation {
		return false, nil, math.Inf(1)
	}
	return true, &m.route.Waypoints[idx], d
}

// SpeedLimitNear checks choke points (toll gates and geofence centers) before
// city waypoints so the tighter limit is never overridden.
func (m *RouteModel) SpeedLimitNear(p domain.GeoPoint) float64 {
	for _, toll := range m.route.TollGates {
		if Distance(p, toll.Point) <= m.route.ChokeRadius {
			return m.route.ChokeLimit
		}
	}
	for _, gf := range m.route.Geofences {
		if Distance(p, gf.Center) <= m.route.ChokeRadius {
			return m.route.ChokeLimit
		}
	}
	for _, wp := range m.route.Waypoints {
		if wp.City && Distance(p, wp.Point) <= m.route.CityRadius {
			if m.route.CityLimit > 0 {
				return m.route.CityLimit
			}
			return wp.SpeedLimit
		}
	}
	return m.route.HighwayLimit
}

// Progress is the along-route distance to the nearest waypoint as a
// percentage of the route length.
func (m *RouteModel) Progress(p domain.GeoPoint) float64 {
	idx, _, _ := m.nearest(p)
	if idx < 0 || m.length == 0 {
		return 0
	}
	return math.Round(m.cumulative[idx]/m.length*1000) / 10
}

// NearestGasStations returns up to n stations ordered by distance.
func (m *RouteModel) NearestGasStations(p domain.GeoPoint, n int) []domain.FuelStation {
	out := make([]domain.FuelStation, 0, len(m.route.GasStations))
	for _, gs := range m.route.GasStations {
		out = append(out, domain.FuelStation{
			Name:       gs.Name,
			Latitude:   gs.Point.Lat,
			Longitude:  gs.Point.Lon,
			DistanceKm: math.Round(Distance(p, gs.Point)/10) / 100,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Describe renders a location as "Near <waypoint>" for incident messages.
func (m *RouteModel) Describe(p domain.GeoPoint) string {
	name, d := m.NearestWaypoint(p)
	if name == "" {
		return "Unknown location"
	}
	if d <= 1000 {
		return "At " + name
	}
	return "Near " + name
}
