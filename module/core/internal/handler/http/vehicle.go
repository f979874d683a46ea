package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/service"
)

type historyService interface {
	GetLatest(ctx context.Context, vehicleID string) (*domain.VehicleLocation, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehicleLocation, error)
}

type trackingService interface {
	ListVehicles() []service.VehicleView
	GetVehicle(id string) (service.VehicleView, error)
	FuelStations(vehicleID string) ([]domain.FuelStation, error)
}

type locationResponse struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Timestamp int64   `json:"timestamp"`
}

// liveLocationResponse is the latest fix plus the measurements and status the
// detection cycle derived from it.
type liveLocationResponse struct {
	locationResponse
	TimestampApproximated bool                 `json:"timestamp_approximated"`
	RouteStatus           domain.RouteStatus   `json:"route_status"`
	StopDuration          int                  `json:"stop_duration"`
	OnRoute               bool                 `json:"on_route"`
	NearestWaypoint       string               `json:"nearest_waypoint"`
	DeviationMeters       float64              `json:"deviation_meters"`
	SpeedLimit            float64              `json:"speed_limit"`
	FuelLevel             *float64             `json:"fuel_level,omitempty"`
	RouteProgress         float64              `json:"route_progress"`
	FuelStations          []domain.FuelStation `json:"fuel_stations,omitempty"`
}

type VehicleHandler struct {
	trackingSvc trackingService
	historySvc  historyService
}

func NewVehicleHandler(trackingSvc trackingService, historySvc historyService) *VehicleHandler {
	return &VehicleHandler{trackingSvc: trackingSvc, historySvc: historySvc}
}

func (h *VehicleHandler) Register(r *gin.RouterGroup) {
	r.GET("/vehicles", h.ListVehicles)
	r.GET("/vehicles/:vehicle_id/location", h.GetLatestLocation)
	r.GET("/vehicles/:vehicle_id/history", h.GetHistory)
	r.GET("/vehicles/:vehicle_id/fuel-stations", h.GetFuelStations)
}

func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	c.JSON(http.StatusOK, h.trackingSvc.ListVehicles())
}

func (h *VehicleHandler) GetLatestLocation(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	v, err := h.trackingSvc.GetVehicle(vehicleID)
	if errors.Is(err, service.ErrVehicleNotFound) || (err == nil && v.State == nil) {
		h.getJournaledLocation(c, vehicleID)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch vehicle"})
		return
	}

	c.JSON(http.StatusOK, toLiveLocationResponse(v))
}

// getJournaledLocation serves the last stored fix for a vehicle the runtime
// state has not seen since startup. It carries no route measurements.
func (h *VehicleHandler) getJournaledLocation(c *gin.Context, vehicleID string) {
	vl, err := h.historySvc.GetLatest(c.Request.Context(), vehicleID)
	if errors.Is(err, service.ErrVehicleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(vl))
}

func (h *VehicleHandler) GetHistory(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	if end < start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	query := &domain.HistoryQuery{
		VehicleID: vehicleID,
		Start:     time.Unix(start, 0),
		End:       time.Unix(end, 0),
	}

	locations, err := h.historySvc.GetHistory(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]locationResponse, len(locations))
	for i, vl := range locations {
		results[i] = toLocationResponse(&vl)
	}
	c.JSON(http.StatusOK, results)
}

func (h *VehicleHandler) GetFuelStations(c *gin.Context) {
	stations, err := h.trackingSvc.FuelStations(c.Param("vehicle_id"))
	if errors.Is(err, service.ErrVehicleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch fuel stations"})
		return
	}
	c.JSON(http.StatusOK, stations)
}

func toLocationResponse(vl *domain.VehicleLocation) locationResponse {
	return locationResponse{
		VehicleID: vl.VehicleID,
		Latitude:  vl.Location.Lat,
		Longitude: vl.Location.Lon,
		Speed:     vl.Speed,
		Heading:   vl.Heading,
		Timestamp: vl.Location.Timestamp.Unix(),
	}
}

func toLiveLocationResponse(v service.VehicleView) liveLocationResponse {
	st := v.State
	resp := liveLocationResponse{
		locationResponse:      toLocationResponse(st.Position.ToVehicleLocation()),
		TimestampApproximated: st.Position.TimestampApproximated,
		RouteStatus:           v.Status,
		StopDuration:          st.StopMinutes,
		OnRoute:               st.OnRoute,
		NearestWaypoint:       st.NearestWaypoint,
		DeviationMeters:       st.DeviationMeters,
		SpeedLimit:            st.SpeedLimit,
		RouteProgress:         st.RouteProgress,
		FuelStations:          v.FuelStations,
	}
	if st.HasFuel {
		fuel := st.FuelLevel
		resp.FuelLevel = &fuel
	}
	return resp
}
