package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/service"
)

type escalationService interface {
	List(filter domain.IncidentFilter) []domain.Incident
	Get(id string) (domain.Incident, error)
	Acknowledge(ctx context.Context, id string) (domain.Incident, error)
	Status() service.EscalationStatus
}

type IncidentHandler struct {
	escalationSvc escalationService
}

func NewIncidentHandler(escalationSvc escalationService) *IncidentHandler {
	return &IncidentHandler{escalationSvc: escalationSvc}
}

func (h *IncidentHandler) Register(r *gin.RouterGroup) {
	r.GET("/incidents", h.ListIncidents)
	r.GET("/incidents/:id", h.GetIncident)
	r.POST("/incidents/:id/acknowledge", h.Acknowledge)
	r.GET("/escalation/status", h.EscalationStatus)
}

func (h *IncidentHandler) ListIncidents(c *gin.Context) {
	filter := domain.IncidentFilter{
		VehicleID: c.Query("vehicle_id"),
		Severity:  domain.Severity(c.Query("severity")),
	}

	if raw := c.Query("acknowledged"); raw != "" {
		acked, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid acknowledged parameter"})
			return
		}
		filter.Acknowledged = &acked
	}
	if raw := c.Query("open"); raw != "" {
		open, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid open parameter"})
			return
		}
		filter.OpenOnly = open
	}

	c.JSON(http.StatusOK, h.escalationSvc.List(filter))
}

func (h *IncidentHandler) GetIncident(c *gin.Context) {
	inc, err := h.escalationSvc.Get(c.Param("id"))
	if errors.Is(err, service.ErrIncidentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incident"})
		return
	}
	c.JSON(http.StatusOK, inc)
}

func (h *IncidentHandler) Acknowledge(c *gin.Context) {
	inc, err := h.escalationSvc.Acknowledge(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrIncidentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to acknowledge incident"})
		return
	}
	c.JSON(http.StatusOK, inc)
}

func (h *IncidentHandler) EscalationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.escalationSvc.Status())
}
