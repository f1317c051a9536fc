package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// --- truncate tests ---

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			got := truncate(tt.s, tt.max)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
			}
		})
	}
}

// --- Identity resolution tests ---

func TestResolvedUser_Flag(t *testing.T) {
	oldUser := userID
	defer func() { userID = oldUser }()

	userID = "from-flag"
	t.Setenv("REGISTRY_USER", "from-env")

	if got := resolvedUser(); got != "from-flag" {
		t.Errorf("resolvedUser() = %q, want %q (flag should have priority)", got, "from-flag")
	}
}

func TestResolvedUser_EnvVar(t *testing.T) {
	oldUser := userID
	defer func() { userID = oldUser }()

	userID = ""
	t.Setenv("REGISTRY_USER", "from-env")

	if got := resolvedUser(); got != "from-env" {
		t.Errorf("resolvedUser() = %q, want %q", got, "from-env")
	}
}

func TestResolvedRole_Default(t *testing.T) {
	oldRole := userRole
	defer func() { userRole = oldRole }()

	userRole = ""
	t.Setenv("REGISTRY_ROLE", "")

	if got := resolvedRole(); got != "" {
		t.Errorf("resolvedRole() = %q, want empty", got)
	}
}

// --- HTTP client tests ---

func TestClientSendsIdentityHeaders(t *testing.T) {
	oldUser, oldRole := userID, userRole
	defer func() { userID, userRole = oldUser, oldRole }()
	userID = "lara"
	userRole = "lead"

	var gotUser, gotRole string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-User-Id")
		gotRole = r.Header.Get("X-User-Role")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	client := &registryClient{baseURL: srv.URL, http: srv.Client()}

	var result map[string]any
	if err := client.postJSON(apiBase+"/inspections/insp-1/approvals/lead", map[string]string{"signatureData": "sig"}, &result); err != nil {
		t.Fatalf("postJSON failed: %v", err)
	}

	if gotUser != "lara" {
		t.Errorf("X-User-Id = %q, want %q", gotUser, "lara")
	}
	if gotRole != "lead" {
		t.Errorf("X-User-Role = %q, want %q", gotRole, "lead")
	}
}

func TestClientNoIdentityHeadersWhenEmpty(t *testing.T) {
	oldUser, oldRole := userID, userRole
	defer func() { userID, userRole = oldUser, oldRole }()
	userID = ""
	userRole = ""
	t.Setenv("REGISTRY_USER", "")
	t.Setenv("REGISTRY_ROLE", "")

	var hasUser, hasRole bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasUser = r.Header["X-User-Id"]
		_, hasRole = r.Header["X-User-Role"]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	client := &registryClient{baseURL: srv.URL, http: srv.Client()}

	var result map[string]any
	if err := client.getJSON(apiBase+"/assets/asset-001", &result); err != nil {
		t.Fatalf("getJSON failed: %v", err)
	}

	if hasUser || hasRole {
		t.Error("identity headers should not be set when no user/role is resolved")
	}
}

func TestClientAssetRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiBase+"/assets/asset-001" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"logicalKey": "asset-001",
			"version":    float64(3),
			"isLatest":   true,
		})
	}))
	defer srv.Close()

	client := &registryClient{baseURL: srv.URL, http: srv.Client()}

	var snap map[string]any
	if err := client.getJSON(apiBase+"/assets/asset-001", &snap); err != nil {
		t.Fatalf("getJSON failed: %v", err)
	}

	if snap["logicalKey"] != "asset-001" {
		t.Errorf("logicalKey = %v, want asset-001", snap["logicalKey"])
	}
	if snap["version"] != float64(3) {
		t.Errorf("version = %v, want 3", snap["version"])
	}
}

func TestClientNoContentResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &registryClient{baseURL: srv.URL, http: srv.Client()}

	// A 204 with a decode target must not fail on the empty body.
	var result map[string]any
	if err := client.delete(apiBase+"/assets/asset-001", &result); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestClientErrorHandling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "version conflict: expected version 2, latest is 3"})
	}))
	defer srv.Close()

	client := &registryClient{baseURL: srv.URL, http: srv.Client()}

	var result map[string]any
	err := client.putJSON(apiBase+"/assets/asset-001", map[string]any{"expectedVersion": 2}, &result)
	if err == nil {
		t.Fatal("expected error for 409 response")
	}
	if !strings.Contains(err.Error(), "409") {
		t.Errorf("error should contain status code, got: %v", err)
	}
	if !strings.Contains(err.Error(), "version conflict") {
		t.Errorf("error should carry the server message, got: %v", err)
	}
}

func TestClientNotFoundHandling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	}))
	defer srv.Close()

	client := &registryClient{baseURL: srv.URL, http: srv.Client()}

	var result map[string]any
	err := client.getJSON(apiBase+"/assets/ghost", &result)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should contain status code, got: %v", err)
	}
}

// --- Command tree tests ---

func TestCommandTree(t *testing.T) {
	subNames := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		subNames[sub.Name()] = true
	}

	for _, want := range []string{"health", "assets", "inspections", "audit"} {
		if !subNames[want] {
			t.Errorf("expected %q subcommand on root", want)
		}
	}
}

func TestInspectionsSubcommands(t *testing.T) {
	var inspections *cobra.Command
	for _, sub := range rootCmd.Commands() {
		if sub.Name() == "inspections" {
			inspections = sub
			break
		}
	}
	if inspections == nil {
		t.Fatal("inspections command not found")
	}

	subNames := make(map[string]bool)
	for _, sub := range inspections.Commands() {
		subNames[sub.Name()] = true
	}
	for _, want := range []string{"create", "list", "get", "start", "cancel", "add-item", "sign", "revoke"} {
		if !subNames[want] {
			t.Errorf("expected inspections %s subcommand", want)
		}
	}
}
