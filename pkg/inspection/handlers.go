package inspection

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solaius/asset-registry/pkg/authn"
	"github.com/solaius/asset-registry/pkg/registry"
)

// createInspectionHandler returns a handler that creates an inspection.
// POST /api/v1/inspections
func createInspectionHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := authn.FromContext(r.Context())

		var req struct {
			Date               string `json:"date"`
			Notes              string `json:"notes"`
			InspectorID        string `json:"inspectorId"`
			LeadAssignedUserID string `json:"leadAssignedUserId"`
			HeadAssignedUserID string `json:"headAssignedUserId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		rec := &InspectionRecord{
			Notes:              req.Notes,
			InspectorID:        req.InspectorID,
			LeadAssignedUserID: req.LeadAssignedUserID,
			HeadAssignedUserID: req.HeadAssignedUserID,
		}
		if rec.InspectorID == "" {
			rec.InspectorID = actor.UserID
		}
		if rec.InspectorID == "" {
			writeError(w, http.StatusBadRequest, "inspectorId is required")
			return
		}
		if req.Date != "" {
			t, err := time.Parse(time.RFC3339, req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date: %v", err))
				return
			}
			rec.Date = t
		}

		if err := store.Create(rec); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to create inspection: %v", err))
			return
		}

		writeJSON(w, http.StatusCreated, rec.ToAPI(nil))
	}
}

// listInspectionsHandler returns a handler that lists paginated inspections.
// GET /api/v1/inspections?status=&inspectorId=&pageSize=&pageToken=
func listInspectionsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status Status
		if s := r.URL.Query().Get("status"); s != "" {
			status = Status(s)
		}
		inspectorID := r.URL.Query().Get("inspectorId")

		pageSize := 20
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		pageToken := r.URL.Query().Get("pageToken")

		records, nextToken, total, err := store.List(status, inspectorID, pageSize, pageToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list inspections: %v", err))
			return
		}

		inspections := make([]Inspection, len(records))
		for i := range records {
			inspections[i] = records[i].ToAPI(nil)
		}

		writeJSON(w, http.StatusOK, InspectionList{
			Inspections:   inspections,
			NextPageToken: nextToken,
			TotalSize:     total,
		})
	}
}

// getInspectionHandler returns a handler that fetches one inspection with items.
// GET /api/v1/inspections/{id}
func getInspectionHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, items, err := store.GetWithItems(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get inspection: %v", err))
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("inspection %s not found", id))
			return
		}

		writeJSON(w, http.StatusOK, rec.ToAPI(items))
	}
}

// updateInspectionHandler returns a handler that updates notes and date.
// PUT /api/v1/inspections/{id}
func updateInspectionHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req struct {
			Notes *string `json:"notes"`
			Date  *string `json:"date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		var date *time.Time
		if req.Date != nil {
			t, err := time.Parse(time.RFC3339, *req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date: %v", err))
				return
			}
			date = &t
		}

		rec, err := store.Update(id, req.Notes, date)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("inspection %s not found", id))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to update inspection: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, rec.ToAPI(nil))
	}
}

// startInspectionHandler returns a handler that starts a pending inspection.
// POST /api/v1/inspections/{id}/start
func startInspectionHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, err := store.Start(id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("inspection %s not found", id))
				return
			}
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, rec.ToAPI(nil))
	}
}

// cancelInspectionHandler returns a handler that cancels an inspection.
// POST /api/v1/inspections/{id}/cancel
func cancelInspectionHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, err := store.Cancel(id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("inspection %s not found", id))
				return
			}
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, rec.ToAPI(nil))
	}
}

// addItemHandler returns a handler that links an asset snapshot to an
// inspection. The referenced snapshot version must exist.
// POST /api/v1/inspections/{id}/items
func addItemHandler(store *Store, versions *registry.VersionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req struct {
			LogicalKey   string `json:"logicalKey"`
			AssetVersion int    `json:"assetVersion"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.LogicalKey == "" {
			writeError(w, http.StatusBadRequest, "logicalKey is required")
			return
		}

		if req.AssetVersion == 0 {
			latest, err := versions.GetLatest(req.LogicalKey)
			if err != nil {
				if errors.Is(err, registry.ErrNotFound) {
					writeError(w, http.StatusNotFound, fmt.Sprintf("asset %s not found", req.LogicalKey))
					return
				}
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to resolve asset: %v", err))
				return
			}
			req.AssetVersion = latest.Version
		} else {
			if _, err := versions.GetVersion(req.LogicalKey, req.AssetVersion); err != nil {
				if errors.Is(err, registry.ErrNotFound) {
					writeError(w, http.StatusNotFound,
						fmt.Sprintf("asset %s version %d not found", req.LogicalKey, req.AssetVersion))
					return
				}
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to resolve asset: %v", err))
				return
			}
		}

		item := &InspectionItemRecord{
			InspectionID: id,
			LogicalKey:   req.LogicalKey,
			AssetVersion: req.AssetVersion,
		}
		if err := store.AddItem(item); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("inspection %s not found", id))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to add item: %v", err))
			return
		}

		writeJSON(w, http.StatusCreated, InspectionItem{
			ID:           item.ID,
			InspectionID: item.InspectionID,
			LogicalKey:   item.LogicalKey,
			AssetVersion: item.AssetVersion,
			CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		})
	}
}

// deleteItemHandler returns a handler that unlinks an inspection item.
// DELETE /api/v1/inspections/items/{itemID}
func deleteItemHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "itemID")

		if err := store.DeleteItem(itemID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("inspection item %s not found", itemID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete item: %v", err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// signApprovalHandler returns a handler that signs one approval slot.
// POST /api/v1/inspections/{id}/approvals/{role}
func signApprovalHandler(coordinator *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		actor := authn.FromContext(r.Context())

		role, ok := ParseRole(chi.URLParam(r, "role"))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown approval role %q", chi.URLParam(r, "role")))
			return
		}

		var req struct {
			SignatureData string `json:"signatureData"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.SignatureData == "" {
			writeError(w, http.StatusBadRequest, "signatureData is required")
			return
		}

		change, err := coordinator.ApplySign(id, role, actor, req.SignatureData, time.Now())
		if err != nil {
			writeApprovalError(w, id, err)
			return
		}

		writeJSON(w, http.StatusOK, change)
	}
}

// revokeApprovalHandler returns a handler that clears one approval slot.
// DELETE /api/v1/inspections/{id}/approvals/{role}
func revokeApprovalHandler(coordinator *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		actor := authn.FromContext(r.Context())

		role, ok := ParseRole(chi.URLParam(r, "role"))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown approval role %q", chi.URLParam(r, "role")))
			return
		}

		change, err := coordinator.ApplyRevoke(id, role, actor)
		if err != nil {
			writeApprovalError(w, id, err)
			return
		}

		writeJSON(w, http.StatusOK, change)
	}
}

// writeApprovalError maps coordinator errors to HTTP status codes.
func writeApprovalError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("inspection %s not found", id))
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadySigned), errors.Is(err, ErrNothingToRevoke),
		errors.Is(err, ErrCancelled), errors.Is(err, ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("approval action failed: %v", err))
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
