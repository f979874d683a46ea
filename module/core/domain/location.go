package domain

import "time"

type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

type Location struct {
	Lat       float64   `json:"latitude"`
	Lon       float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

type VehicleLocation struct {
	VehicleID string   `json:"vehicle_id"`
	Location  Location `json:"location"`
	Speed     float64  `json:"speed"`
	Heading   float64  `json:"heading"`
}

// PositionReport is a single normalized fix from a vehicle. FuelLevel is nil
// when the device does not report fuel.
type PositionReport struct {
	VehicleID             string    `json:"vehicle_id"`
	Lat                   float64   `json:"latitude"`
	Lon                   float64   `json:"longitude"`
	Speed                 float64   `json:"speed"`
	Heading               float64   `json:"heading"`
	Altitude              float64   `json:"altitude"`
	Accuracy              float64   `json:"accuracy"`
	FuelLevel             *float64  `json:"fuel_level,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
	TimestampApproximated bool      `json:"timestamp_approximated"`

	DriverName   string `json:"driver_name,omitempty"`
	DriverPhone  string `json:"driver_phone,omitempty"`
	LicensePlate string `json:"license_plate,omitempty"`
	VehicleType  string `json:"vehicle_type,omitempty"`
}

func (r PositionReport) Point() GeoPoint {
	return GeoPoint{Lat: r.Lat, Lon: r.Lon}
}

func (r PositionReport) ToVehicleLocation() *VehicleLocation {
	return &VehicleLocation{
		VehicleID: r.VehicleID,
		Location:  Location{Lat: r.Lat, Lon: r.Lon, Timestamp: r.Timestamp},
		Speed:     r.Speed,
		Heading:   r.Heading,
	}
}

type HistoryQuery struct {
	VehicleID string
	Start     time.Time
	End       time.Time
}
