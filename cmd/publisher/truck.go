package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/service"
)

type behavior int

const (
	behaviorNormal behavior = iota
	behaviorStop
	behaviorSpeeding
	behaviorLowFuel
	behaviorDeviate
)

const (
	cruiseKmh     = 55
	speedingKmh   = 95
	fuelPerKm     = 0.12
	fastFuelPerKm = 2.5
	// stopping and deviating trucks halt after this distance.
	stopAfterM = 3000
	// about 1.1 km of latitude; a deviating truck parks this far off.
	driftDeg = 0.01
)

var drivers = []struct{ name, phone string }{
	{"Rajesh Kumar", "+91-9437200001"},
	{"Suresh Patra", "+91-9437200002"},
	{"Manoj Sahoo", "+91-9437200003"},
	{"Bikash Das", "+91-9437200004"},
	{"Prakash Nayak", "+91-9437200005"},
}

// truck moves along the waypoint polyline, bouncing at both ends.
type truck struct {
	id       string
	driver   string
	phone    string
	plate    string
	behavior behavior

	waypoints []domain.Waypoint
	segment   int
	progress  float64 // metres into the current segment
	forward   bool
	traveled  float64
	drift     float64

	pos     domain.GeoPoint
	heading float64
	speed   float64
	fuel    float64
}

func newTruck(i int, waypoints []domain.Waypoint) *truck {
	d := drivers[i%len(drivers)]
	return &truck{
		id:        fmt.Sprintf("OD-%02d-TR-%04d", 19+i%3, 1001+i),
		driver:    d.name,
		phone:     d.phone,
		plate:     fmt.Sprintf("OD%02dT%04d", 19+i%3, 1001+i),
		waypoints: waypoints,
		forward:   true,
		pos:       waypoints[0].Point,
		fuel:      85 + rand.Float64()*15,
	}
}

func (t *truck) step(dt time.Duration) {
	t.speed = cruiseKmh + rand.Float64()*10 - 5
	switch t.behavior {
	case behaviorSpeeding:
		t.speed = speedingKmh + rand.Float64()*10
	case behaviorStop:
		if t.traveled >= stopAfterM {
			t.speed = 0
		}
	case behaviorDeviate:
		if t.traveled >= stopAfterM {
			t.speed = 0
			t.drift = driftDeg
		}
	}

	meters := t.speed / 3.6 * dt.Seconds()
	t.advance(meters)
	t.traveled += meters

	burn := fuelPerKm
	if t.behavior == behaviorLowFuel {
		burn = fastFuelPerKm
	}
	t.fuel = math.Max(0, t.fuel-burn*meters/1000)
}

func (t *truck) advance(meters float64) {
	if len(t.waypoints) < 2 {
		return
	}
	for meters > 0 {
		from, to := t.ends()
		length := service.Distance(from.Point, to.Point)
		remaining := length - t.progress
		if meters < remaining {
			t.progress += meters
			break
		}
		meters -= remaining
		t.progress = 0
		t.next()
	}

	from, to := t.ends()
	length := service.Distance(from.Point, to.Point)
	f := 0.0
	if length > 0 {
		f = t.progress / length
	}
	t.pos = domain.GeoPoint{
		Lat: from.Point.Lat + (to.Point.Lat-from.Point.Lat)*f,
		Lon: from.Point.Lon + (to.Point.Lon-from.Point.Lon)*f,
	}
	t.heading = bearing(from.Point, to.Point)
}

func (t *truck) ends() (domain.Waypoint, domain.Waypoint) {
	if t.forward {
		return t.waypoints[t.segment], t.waypoints[t.segment+1]
	}
	return t.waypoints[t.segment+1], t.waypoints[t.segment]
}

func (t *truck) next() {
	last := len(t.waypoints) - 2
	switch {
	case t.forward && t.segment == last:
		t.forward = false
	case !t.forward && t.segment == 0:
		t.forward = true
	case t.forward:
		t.segment++
	default:
		t.segment--
	}
}

func (t *truck) message(now time.Time) locationMessage {
	return locationMessage{
		VehicleID:    t.id,
		Latitude:     t.pos.Lat + t.drift,
		Longitude:    t.pos.Lon,
		Speed:        math.Round(t.speed*10) / 10,
		Heading:      math.Round(t.heading),
		FuelLevel:    math.Round(t.fuel*10) / 10,
		Timestamp:    now.Unix(),
		DriverName:   t.driver,
		DriverPhone:  t.phone,
		LicensePlate: t.plate,
		VehicleType:  "coal_truck",
	}
}

func bearing(a, b domain.GeoPoint) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}
