package inspection

import (
	"github.com/go-chi/chi/v5"

	"github.com/solaius/asset-registry/pkg/registry"
)

// NewRouter creates a chi router with the inspection API routes.
// versions validates asset references on item creation.
func NewRouter(store *Store, coordinator *Coordinator, versions *registry.VersionStore) chi.Router {
	r := chi.NewRouter()

	r.Post("/", createInspectionHandler(store))
	r.Get("/", listInspectionsHandler(store))
	r.Delete("/items/{itemID}", deleteItemHandler(store))

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", getInspectionHandler(store))
		r.Put("/", updateInspectionHandler(store))
		r.Post("/start", startInspectionHandler(store))
		r.Post("/cancel", cancelInspectionHandler(store))
		r.Post("/items", addItemHandler(store, versions))
		r.Post("/approvals/{role}", signApprovalHandler(coordinator))
		r.Delete("/approvals/{role}", revokeApprovalHandler(coordinator))
	})

	return r
}
