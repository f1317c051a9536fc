package audit

import (
	"testing"
)

func TestExtractSubject(t *testing.T) {
	tests := []struct {
		path     string
		wantType string
		wantKey  string
	}{
		{"/api/v1/assets/asset-001", SubjectAsset, "asset-001"},
		{"/api/v1/assets/asset-001/history", SubjectAsset, "asset-001"},
		{"/api/v1/assets/asset-001/versions/3", SubjectAsset, "asset-001"},
		{"/api/v1/inspections/insp-1", SubjectInspection, "insp-1"},
		{"/api/v1/inspections/insp-1/approvals/lead", SubjectInspection, "insp-1"},
		{"/api/v1/inspections/items/item-9", "", ""},
		{"/api/v1/assets", "", ""},
		{"/api/v1/inspections", "", ""},
		{"/api/v1/audit/events", "", ""},
		{"/healthz", "", ""},
		{"/", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			gotType, gotKey := extractSubject(tt.path)
			if gotType != tt.wantType || gotKey != tt.wantKey {
				t.Errorf("extractSubject(%q) = (%q, %q), want (%q, %q)",
					tt.path, gotType, gotKey, tt.wantType, tt.wantKey)
			}
		})
	}
}

func TestExtractActionVerb(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"POST", "/api/v1/assets", "create"},
		{"PUT", "/api/v1/assets/asset-001", "update"},
		{"DELETE", "/api/v1/assets/asset-001", "delete"},
		{"POST", "/api/v1/inspections/insp-1/start", "start"},
		{"POST", "/api/v1/inspections/insp-1/cancel", "cancel"},
		{"POST", "/api/v1/inspections/insp-1/approvals/lead", "approval.sign"},
		{"DELETE", "/api/v1/inspections/insp-1/approvals/head", "approval.revoke"},
		{"POST", "/api/v1/inspections/insp-1/items", "item.add"},
		{"DELETE", "/api/v1/inspections/items/item-9", "item.remove"},
		{"PATCH", "/api/v1/inspections/insp-1", "patch"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := extractActionVerb(tt.method, tt.path); got != tt.want {
				t.Errorf("extractActionVerb(%q, %q) = %q, want %q", tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestIsAuditedEndpoint(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{"POST", "/api/v1/assets", true},
		{"PUT", "/api/v1/assets/asset-001", true},
		{"DELETE", "/api/v1/assets/asset-001", true},
		{"GET", "/api/v1/assets/asset-001", false},
		{"GET", "/api/v1/audit/events", false},
		{"POST", "/healthz", false},
		{"GET", "/readyz", false},
	}

	for _, tt := range tests {
		if got := isAuditedEndpoint(tt.method, tt.path); got != tt.want {
			t.Errorf("isAuditedEndpoint(%q, %q) = %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}
