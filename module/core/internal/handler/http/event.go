package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/service"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 1000
)

type eventService interface {
	GeofenceEvents(vehicleID string) []domain.GeofenceEvent
	RecentActivity(limit int) []domain.ActivityLog
	Summary() service.AnalyticsSummary
}

type EventHandler struct {
	eventSvc eventService
}

func NewEventHandler(eventSvc eventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

func (h *EventHandler) Register(r *gin.RouterGroup) {
	r.GET("/geofence-events", h.GetGeofenceEvents)
	r.GET("/activity", h.GetActivity)
	r.GET("/analytics/summary", h.GetSummary)
}

func (h *EventHandler) GetGeofenceEvents(c *gin.Context) {
	c.JSON(http.StatusOK, h.eventSvc.GeofenceEvents(c.Query("vehicle_id")))
}

func (h *EventHandler) GetActivity(c *gin.Context) {
	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = min(n, maxActivityLimit)
	}
	c.JSON(http.StatusOK, h.eventSvc.RecentActivity(limit))
}

func (h *EventHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.eventSvc.Summary())
}
