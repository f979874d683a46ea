package main

import (
	"encoding/json"
	"testing"

	"github.com/nandanugg/fleet-sentinel/module/core"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "geofence",
			body: `{"kind":"geofence_event","geofence_event":{"vehicle_id":"OD-19-TR-1001","event_type":"exit","geofence_name":"NTPC Talcher Super Thermal Power Station"}}`,
			want: "[geofence_event] OD-19-TR-1001 exit NTPC Talcher Super Thermal Power Station",
		},
		{
			name: "incident",
			body: `{"kind":"incident","incident":{"id":"inc-1","vehicle_id":"OD-19-TR-1001","incident_type":"critical_extended_stop","escalation_level":2,"status":"escalating","message":"stopped"}}`,
			want: "[incident] inc-1 OD-19-TR-1001 critical_extended_stop level=2 status=escalating: stopped",
		},
		{
			name: "unknown kind",
			body: `{"kind":"heartbeat"}`,
			want: "[heartbeat] unrecognised envelope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env core.EventEnvelope
			if err := json.Unmarshal([]byte(tt.body), &env); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := describe(env); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
