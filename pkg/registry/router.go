package registry

import (
	"github.com/go-chi/chi/v5"

	"github.com/solaius/asset-registry/pkg/audit"
)

// NewRouter creates a chi router with the asset registry API routes.
// auditStore may be nil to disable audit trail emission.
func NewRouter(store *VersionStore, auditStore *audit.Store) chi.Router {
	r := chi.NewRouter()

	r.Post("/", createAssetHandler(store, auditStore))
	r.Route("/{logicalKey}", func(r chi.Router) {
		r.Get("/", getAssetHandler(store))
		r.Put("/", updateAssetHandler(store, auditStore))
		r.Delete("/", deleteAssetHandler(store, auditStore))
		r.Get("/history", getHistoryHandler(store))
		r.Get("/changes", getChangesHandler(store))
		r.Get("/versions/{version}", getAssetVersionHandler(store))
	})

	return r
}
