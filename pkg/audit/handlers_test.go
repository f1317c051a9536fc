package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func seedEvents(t *testing.T, store *Store) (inspectionEvent, assetEvent *EventRecord) {
	t.Helper()

	inspectionEvent = &EventRecord{
		EventType:   "approval",
		Actor:       "lara",
		SubjectType: SubjectInspection,
		SubjectKey:  "insp-1",
		Action:      "sign:lead",
		Outcome:     OutcomeSuccess,
	}
	if err := store.Append(inspectionEvent); err != nil {
		t.Fatal(err)
	}

	assetEvent = &EventRecord{
		EventType:   "asset",
		Actor:       "alice",
		SubjectType: SubjectAsset,
		SubjectKey:  "asset-001",
		Action:      "asset.update",
		Outcome:     OutcomeSuccess,
	}
	if err := store.Append(assetEvent); err != nil {
		t.Fatal(err)
	}
	return inspectionEvent, assetEvent
}

func TestListEventsHandler(t *testing.T) {
	store := newTestAuditStore(t)
	seedEvents(t, store)

	router := NewRouter(store)

	req := httptest.NewRequest("GET", "/events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result EventList
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.TotalSize != 2 {
		t.Errorf("totalSize = %d, want 2", result.TotalSize)
	}

	// Event type filter.
	req = httptest.NewRequest("GET", "/events?eventType=asset", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	result = EventList{}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.TotalSize != 1 {
		t.Errorf("filtered totalSize = %d, want 1", result.TotalSize)
	}
	if len(result.Events) != 1 || result.Events[0].EventType != "asset" {
		t.Errorf("unexpected filtered events: %+v", result.Events)
	}
}

func TestListSubjectEventsHandler(t *testing.T) {
	store := newTestAuditStore(t)
	seedEvents(t, store)

	router := NewRouter(store)

	req := httptest.NewRequest("GET", "/events/inspection/insp-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result EventList
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.TotalSize != 1 {
		t.Errorf("totalSize = %d, want 1", result.TotalSize)
	}
	if len(result.Events) != 1 || result.Events[0].SubjectKey != "insp-1" {
		t.Errorf("unexpected events: %+v", result.Events)
	}

	// Unknown subject type is a bad request.
	req = httptest.NewRequest("GET", "/events/bogus/x", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestGetEventHandler(t *testing.T) {
	store := newTestAuditStore(t)
	inspectionEvent, _ := seedEvents(t, store)

	router := NewRouter(store)

	req := httptest.NewRequest("GET", "/events/"+inspectionEvent.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result Event
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.ID != inspectionEvent.ID || result.Action != "sign:lead" {
		t.Errorf("unexpected event: %+v", result)
	}

	// Unknown event is 404.
	req = httptest.NewRequest("GET", "/events/00000000-0000-0000-0000-000000000000", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
