package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// listEventsHandler returns a handler that lists audit events across all
// subjects, optionally filtered by event type.
// GET /api/v1/audit/events?eventType=&pageSize=&pageToken=
func listEventsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageSize, pageToken := pageParams(r)

		records, nextToken, total, err := store.ListAll(pageSize, pageToken, r.URL.Query().Get("eventType"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, toEventList(records, nextToken, total))
	}
}

// listSubjectEventsHandler returns a handler that lists audit events for one
// subject, newest first.
// GET /api/v1/audit/events/{subjectType}/{subjectKey}
func listSubjectEventsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjectType := chi.URLParam(r, "subjectType")
		subjectKey := chi.URLParam(r, "subjectKey")
		if subjectType != SubjectAsset && subjectType != SubjectInspection {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown subject type %q", subjectType))
			return
		}

		pageSize, pageToken := pageParams(r)

		records, nextToken, total, err := store.ListBySubject(subjectType, subjectKey, pageSize, pageToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, toEventList(records, nextToken, total))
	}
}

// getEventHandler returns a handler that fetches one audit event by ID.
// GET /api/v1/audit/events/{eventId}
func getEventHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventId")

		rec, err := store.Get(eventID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("audit event %q not found", eventID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get audit event: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, rec.ToAPI())
	}
}

func pageParams(r *http.Request) (int, string) {
	pageSize := 20
	if ps := r.URL.Query().Get("pageSize"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			pageSize = v
		}
	}
	return pageSize, r.URL.Query().Get("pageToken")
}

func toEventList(records []EventRecord, nextToken string, total int) EventList {
	events := make([]Event, len(records))
	for i := range records {
		events[i] = records[i].ToAPI()
	}
	return EventList{
		Events:        events,
		NextPageToken: nextToken,
		TotalSize:     total,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
