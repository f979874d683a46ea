package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
)

var ErrInvalidReport = errors.New("invalid position report")

// isoLayouts covers RFC 3339 and the zone-less ISO form some trackers emit.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// NormalizeReport validates a raw report and brings its fields into range.
// A zero timestamp is replaced with now and flagged as approximated.
func NormalizeReport(r domain.PositionReport, now time.Time) (domain.PositionReport, error) {
	r.VehicleID = strings.TrimSpace(r.VehicleID)
	if r.VehicleID == "" {
		return r, fmt.Errorf("%w: vehicle_id: required", ErrInvalidReport)
	}
	if !ValidCoordinate(r.Point()) {
		return r, fmt.Errorf("%w: coordinates (%v, %v) out of range", ErrInvalidReport, r.Lat, r.Lon)
	}
	if math.IsNaN(r.Speed) || math.IsInf(r.Speed, 0) || r.Speed < 0 {
		return r, fmt.Errorf("%w: speed %v", ErrInvalidReport, r.Speed)
	}

	if math.IsNaN(r.Heading) || math.IsInf(r.Heading, 0) {
		r.Heading = 0
	}
	r.Heading = math.Mod(r.Heading, 360)
	if r.Heading < 0 {
		r.Heading += 360
	}

	if r.FuelLevel != nil {
		f := *r.FuelLevel
		switch {
		case math.IsNaN(f):
			r.FuelLevel = nil
		default:
			f = math.Max(0, math.Min(100, f))
			r.FuelLevel = &f
		}
	}

	if r.Timestamp.IsZero() {
		r.Timestamp = now
		r.TimestampApproximated = true
	}
	r.Timestamp = r.Timestamp.UTC()
	return r, nil
}

// ParseTimestamp accepts unix seconds, unix milliseconds or an ISO 8601
// string. Anything else falls back to now with approximated set.
func ParseTimestamp(raw json.RawMessage, now time.Time) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return now, true
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return now, true
		}
		s = strings.TrimSpace(s)
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), false
			}
		}
		raw = []byte(s)
	}

	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || n <= 0 || math.IsInf(n, 0) {
		return now, true
	}
	if n > 1e12 {
		return time.UnixMilli(int64(n)).UTC(), false
	}
	sec, frac := math.Modf(n)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), false
}
