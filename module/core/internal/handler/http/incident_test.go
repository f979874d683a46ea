package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/service"
)

type mockEscalationService struct {
	listFn        func(filter domain.IncidentFilter) []domain.Incident
	getFn         func(id string) (domain.Incident, error)
	acknowledgeFn func(ctx context.Context, id string) (domain.Incident, error)
	statusFn      func() service.EscalationStatus
}

func (m *mockEscalationService) List(filter domain.IncidentFilter) []domain.Incident {
	return m.listFn(filter)
}

func (m *mockEscalationService) Get(id string) (domain.Incident, error) {
	return m.getFn(id)
}

func (m *mockEscalationService) Acknowledge(ctx context.Context, id string) (domain.Incident, error) {
	return m.acknowledgeFn(ctx, id)
}

func (m *mockEscalationService) Status() service.EscalationStatus {
	return m.statusFn()
}

func setupIncidentRouter(svc escalationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewIncidentHandler(svc).Register(r.Group(""))
	return r
}

func TestListIncidents_Filter(t *testing.T) {
	var got domain.IncidentFilter
	svc := &mockEscalationService{
		listFn: func(filter domain.IncidentFilter) []domain.Incident {
			got = filter
			return []domain.Incident{{ID: "inc-1", Severity: domain.SeverityCritical}}
		},
	}

	w := serve(setupIncidentRouter(svc), "GET", "/incidents?severity=critical&acknowledged=false&vehicle_id=OD-03-NT-1001")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.Severity != domain.SeverityCritical || got.VehicleID != "OD-03-NT-1001" {
		t.Errorf("unexpected filter %+v", got)
	}
	if got.Acknowledged == nil || *got.Acknowledged {
		t.Errorf("expected acknowledged=false filter, got %v", got.Acknowledged)
	}

	var resp []domain.Incident
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "inc-1" {
		t.Errorf("unexpected incidents %+v", resp)
	}
}

func TestListIncidents_InvalidAcknowledged(t *testing.T) {
	w := serve(setupIncidentRouter(&mockEscalationService{}), "GET", "/incidents?acknowledged=maybe")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetIncident_NotFound(t *testing.T) {
	svc := &mockEscalationService{
		getFn: func(_ string) (domain.Incident, error) {
			return domain.Incident{}, service.ErrIncidentNotFound
		},
	}

	w := serve(setupIncidentRouter(svc), "GET", "/incidents/missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAcknowledge_Success(t *testing.T) {
	ackedAt := time.Unix(1715003456, 0).UTC()
	svc := &mockEscalationService{
		acknowledgeFn: func(_ context.Context, id string) (domain.Incident, error) {
			if id != "inc-1" {
				t.Fatalf("unexpected id: %s", id)
			}
			return domain.Incident{
				ID:              id,
				Acknowledged:    true,
				AcknowledgedAt:  &ackedAt,
				EscalationLevel: 2,
				Status:          domain.IncidentAcknowledged,
			}, nil
		},
	}

	w := serve(setupIncidentRouter(svc), "POST", "/incidents/inc-1/acknowledge")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp domain.Incident
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Acknowledged || resp.Status != domain.IncidentAcknowledged || resp.EscalationLevel != 2 {
		t.Errorf("unexpected incident %+v", resp)
	}
}

func TestAcknowledge_NotFound(t *testing.T) {
	svc := &mockEscalationService{
		acknowledgeFn: func(_ context.Context, _ string) (domain.Incident, error) {
			return domain.Incident{}, service.ErrIncidentNotFound
		},
	}

	w := serve(setupIncidentRouter(svc), "POST", "/incidents/missing/acknowledge")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestEscalationStatus(t *testing.T) {
	fireAt := time.Unix(1715003756, 0).UTC()
	svc := &mockEscalationService{
		statusFn: func() service.EscalationStatus {
			return service.EscalationStatus{
				ActiveEscalations: 1,
				PendingTimers:     []service.PendingTimer{{IncidentID: "inc-1", FireAt: fireAt}},
				MaxAttempts:       3,
			}
		},
	}

	w := serve(setupIncidentRouter(svc), "GET", "/escalation/status")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp service.EscalationStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ActiveEscalations != 1 || len(resp.PendingTimers) != 1 || !resp.PendingTimers[0].FireAt.Equal(fireAt) {
		t.Errorf("unexpected status %+v", resp)
	}
}
