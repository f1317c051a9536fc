package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solaius/asset-registry/pkg/audit"
	"github.com/solaius/asset-registry/pkg/authn"
)

// createAssetHandler returns a handler that registers a new asset.
// POST /api/v1/assets
func createAssetHandler(store *VersionStore, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := authn.FromContext(r.Context())

		var req struct {
			LogicalKey string         `json:"logicalKey"`
			Payload    map[string]any `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.LogicalKey == "" {
			writeError(w, http.StatusBadRequest, "logicalKey is required")
			return
		}
		if req.Payload == nil {
			writeError(w, http.StatusBadRequest, "payload is required")
			return
		}

		rec, err := store.CreateInitial(req.LogicalKey, req.Payload, actor.UserID)
		if err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				writeError(w, http.StatusConflict, fmt.Sprintf("asset %s already exists", req.LogicalKey))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create asset: %v", err))
			return
		}

		appendAssetAudit(auditStore, actor, req.LogicalKey, "asset.create", nil, map[string]any{"version": rec.Version})
		writeJSON(w, http.StatusCreated, snapshotToAPI(rec))
	}
}

// getAssetHandler returns a handler that fetches the latest snapshot.
// GET /api/v1/assets/{logicalKey}
func getAssetHandler(store *VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logicalKey := chi.URLParam(r, "logicalKey")

		rec, err := store.GetLatest(logicalKey)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("asset %s not found", logicalKey))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get asset: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, snapshotToAPI(rec))
	}
}

// getAssetVersionHandler returns a handler that fetches one specific version.
// GET /api/v1/assets/{logicalKey}/versions/{version}
func getAssetVersionHandler(store *VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logicalKey := chi.URLParam(r, "logicalKey")
		var version int
		if _, err := fmt.Sscanf(chi.URLParam(r, "version"), "%d", &version); err != nil || version < 1 {
			writeError(w, http.StatusBadRequest, "version must be a positive integer")
			return
		}

		rec, err := store.GetVersion(logicalKey, version)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("asset %s version %d not found", logicalKey, version))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get asset version: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, snapshotToAPI(rec))
	}
}

// updateAssetHandler returns a handler that appends a new version.
// PUT /api/v1/assets/{logicalKey}
func updateAssetHandler(store *VersionStore, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logicalKey := chi.URLParam(r, "logicalKey")
		actor := authn.FromContext(r.Context())

		var req struct {
			ExpectedVersion int            `json:"expectedVersion"`
			Payload         map[string]any `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.ExpectedVersion < 1 {
			writeError(w, http.StatusBadRequest, "expectedVersion must be a positive integer")
			return
		}
		if req.Payload == nil {
			writeError(w, http.StatusBadRequest, "payload is required")
			return
		}

		rec, err := store.CreateNewVersion(logicalKey, req.ExpectedVersion, req.Payload, actor.UserID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				writeError(w, http.StatusNotFound, fmt.Sprintf("asset %s not found", logicalKey))
			case errors.Is(err, ErrVersionConflict):
				writeError(w, http.StatusConflict, fmt.Sprintf("asset %s was modified concurrently, reload and retry", logicalKey))
			default:
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update asset: %v", err))
			}
			return
		}

		appendAssetAudit(auditStore, actor, logicalKey, "asset.update",
			map[string]any{"version": req.ExpectedVersion},
			map[string]any{"version": rec.Version})
		writeJSON(w, http.StatusCreated, snapshotToAPI(rec))
	}
}

// deleteAssetHandler returns a handler that soft-deletes an asset.
// DELETE /api/v1/assets/{logicalKey}
func deleteAssetHandler(store *VersionStore, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logicalKey := chi.URLParam(r, "logicalKey")
		actor := authn.FromContext(r.Context())

		if err := store.SoftDelete(logicalKey); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("asset %s not found", logicalKey))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete asset: %v", err))
			return
		}

		appendAssetAudit(auditStore, actor, logicalKey, "asset.delete", nil, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// getHistoryHandler returns a handler that lists every snapshot, newest first.
// GET /api/v1/assets/{logicalKey}/history
func getHistoryHandler(store *VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logicalKey := chi.URLParam(r, "logicalKey")

		records, err := store.GetHistory(logicalKey)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("asset %s not found", logicalKey))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get history: %v", err))
			return
		}

		snapshots := make([]AssetSnapshot, len(records))
		for i := range records {
			snapshots[i] = snapshotToAPI(&records[i])
		}

		writeJSON(w, http.StatusOK, AssetHistory{
			LogicalKey: logicalKey,
			Snapshots:  snapshots,
		})
	}
}

// getChangesHandler returns a handler that lists per-version change sets.
// GET /api/v1/assets/{logicalKey}/changes
func getChangesHandler(store *VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logicalKey := chi.URLParam(r, "logicalKey")

		records, err := store.GetHistory(logicalKey)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("asset %s not found", logicalKey))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get history: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, AssetChangeLog{
			LogicalKey: logicalKey,
			Versions:   DiffHistory(records),
		})
	}
}

// appendAssetAudit appends an asset audit event best-effort.
func appendAssetAudit(auditStore *audit.Store, actor authn.Actor, logicalKey, action string, oldValue, newValue map[string]any) {
	if auditStore == nil {
		return
	}
	_ = auditStore.Append(&audit.EventRecord{
		EventType:   "asset",
		Actor:       actor.UserID,
		SubjectType: audit.SubjectAsset,
		SubjectKey:  logicalKey,
		Action:      action,
		Outcome:     audit.OutcomeSuccess,
		OldValue:    oldValue,
		NewValue:    newValue,
	})
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
