package audit

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the audit API routes.
func NewRouter(store *Store) chi.Router {
	r := chi.NewRouter()

	r.Get("/events", listEventsHandler(store))
	r.Get("/events/{eventId}", getEventHandler(store))
	r.Get("/events/{subjectType}/{subjectKey}", listSubjectEventsHandler(store))

	return r
}
