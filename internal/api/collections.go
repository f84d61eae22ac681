package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/stockroom/internal/metrics"
	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
)

// CollectionsHandler serves whole-collection reads and overwrites.
type CollectionsHandler struct {
	C store.Collections
}

type writeResponse struct {
	Status string `json:"status"`
	Length int    `json:"length"`
}

type snapshotWriteResponse struct {
	Status    string `json:"status"`
	Inventory int    `json:"inventory"`
	Removals  int    `json:"removals"`
	Activity  int    `json:"activity"`
}

// writeFailed maps a store write error to a response.
func writeFailed(w http.ResponseWriter, r *http.Request, collection string, err error) {
	if errors.Is(err, store.ErrInvalidCollection) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("writing collection", "collection", collection, "request_id", RequestID(r.Context()), "error", err)
	jsonError(w, http.StatusInternalServerError, "failed to write "+collection)
}

func readFailed(w http.ResponseWriter, r *http.Request, collection string, err error) {
	slog.Error("reading collection", "collection", collection, "request_id", RequestID(r.Context()), "error", err)
	jsonError(w, http.StatusInternalServerError, "failed to read "+collection)
}

func logWrite(r *http.Request, collection string, n int) {
	user := ""
	if claims := GetClaims(r.Context()); claims != nil {
		user = claims.Username
	}
	slog.Info("collection replaced", "collection", collection, "length", n, "user", user)
}

// GetInventory handles GET /api/inventory.
func (h *CollectionsHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.C.Inventory(r.Context())
	if err != nil {
		readFailed(w, r, model.CollectionInventory, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// PutInventory handles PUT /api/inventory.
func (h *CollectionsHandler) PutInventory(w http.ResponseWriter, r *http.Request) {
	var items []model.InventoryItem
	if err := decodeJSON(w, r, &items); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.C.ReplaceInventory(r.Context(), items); err != nil {
		writeFailed(w, r, model.CollectionInventory, err)
		return
	}
	metrics.ObserveInventory(items)
	logWrite(r, model.CollectionInventory, len(items))
	jsonResponse(w, http.StatusOK, writeResponse{Status: "ok", Length: len(items)})
}

// GetRemovals handles GET /api/removals, optionally filtered by ?upc=.
func (h *CollectionsHandler) GetRemovals(w http.ResponseWriter, r *http.Request) {
	records, err := h.C.Removals(r.Context(), r.URL.Query().Get("upc"))
	if err != nil {
		readFailed(w, r, model.CollectionRemovals, err)
		return
	}
	jsonResponse(w, http.StatusOK, records)
}

// PutRemovals handles PUT /api/removals.
func (h *CollectionsHandler) PutRemovals(w http.ResponseWriter, r *http.Request) {
	var records []model.RemovalRecord
	if err := decodeJSON(w, r, &records); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.C.ReplaceRemovals(r.Context(), records); err != nil {
		writeFailed(w, r, model.CollectionRemovals, err)
		return
	}
	metrics.ObserveLength(model.CollectionRemovals, len(records))
	logWrite(r, model.CollectionRemovals, len(records))
	jsonResponse(w, http.StatusOK, writeResponse{Status: "ok", Length: len(records)})
}

// GetActivity handles GET /api/activity.
func (h *CollectionsHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.C.Activity(r.Context())
	if err != nil {
		readFailed(w, r, model.CollectionActivity, err)
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// PutActivity handles PUT /api/activity.
func (h *CollectionsHandler) PutActivity(w http.ResponseWriter, r *http.Request) {
	var entries []model.ActivityEntry
	if err := decodeJSON(w, r, &entries); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.C.ReplaceActivity(r.Context(), entries); err != nil {
		writeFailed(w, r, model.CollectionActivity, err)
		return
	}
	metrics.ObserveLength(model.CollectionActivity, len(entries))
	logWrite(r, model.CollectionActivity, len(entries))
	jsonResponse(w, http.StatusOK, writeResponse{Status: "ok", Length: len(entries)})
}

// GetSnapshot handles GET /api/snapshot.
func (h *CollectionsHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := store.SessionStore{C: h.C}.Load(r.Context())
	if err != nil {
		readFailed(w, r, "snapshot", err)
		return
	}
	snap.Normalize()
	jsonResponse(w, http.StatusOK, snap)
}

// PutSnapshot handles PUT /api/snapshot, replacing all three collections
// in one write.
func (h *CollectionsHandler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap model.Snapshot
	if err := decodeJSON(w, r, &snap); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.C.ReplaceAll(r.Context(), snap); err != nil {
		writeFailed(w, r, "snapshot", err)
		return
	}
	metrics.ObserveInventory(snap.Inventory)
	metrics.ObserveLength(model.CollectionRemovals, len(snap.Removals))
	metrics.ObserveLength(model.CollectionActivity, len(snap.Activity))
	logWrite(r, "snapshot", len(snap.Inventory)+len(snap.Removals)+len(snap.Activity))
	jsonResponse(w, http.StatusOK, snapshotWriteResponse{
		Status:    "ok",
		Inventory: len(snap.Inventory),
		Removals:  len(snap.Removals),
		Activity:  len(snap.Activity),
	})
}
