package api

import (
	"net/http"

	"geolake/internal/domain"
)

func (h *Handler) createCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string            `json:"collection"`
		Properties map[string]string `json:"properties"`
		CRS        int               `json:"crs"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	spec := domain.CollectionSpec{Properties: req.Properties, CRS: req.CRS}
	if err := h.collections.CreateCollection(r.Context(), req.Collection, spec); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) createCollections(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collections map[string]domain.CollectionSpec `json:"collections"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	results, err := h.collections.CreateCollections(r.Context(), req.Collections)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) dropCollections(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collections []string `json:"collections"`
		Cascade     *bool    `json:"cascade"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	// An omitted cascade means cascade.
	cascade := true
	if req.Cascade != nil {
		cascade = *req.Cascade
	}
	results, err := h.collections.DropCollections(r.Context(), req.Collections, cascade)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) addProperties(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string            `json:"collection"`
		Properties map[string]string `json:"properties"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.collections.AddProperties(r.Context(), req.Collection, req.Properties); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dropProperties(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string   `json:"collection"`
		Properties []string `json:"properties"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.collections.DropProperties(r.Context(), req.Collection, req.Properties); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getProperties(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	props, err := h.collections.GetProperties(r.Context(), req.Collection)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *Handler) getCollections(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Database string `json:"database"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	names, err := h.collections.GetCollections(r.Context(), req.Database)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) collectionExists(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	exists, err := h.collections.CollectionExists(r.Context(), req.Collection)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handler) renameCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
		NewName    string `json:"new_name"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.collections.RenameCollection(r.Context(), req.Collection, req.NewName); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) copyCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection    string `json:"collection"`
		NewCollection string `json:"new_collection"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.collections.CopyCollection(r.Context(), req.Collection, req.NewCollection); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) insertIntoCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string           `json:"collection"`
		Rows       []map[string]any `json:"rows"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.collections.InsertIntoCollection(r.Context(), req.Collection, req.Rows); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) updateCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string         `json:"collection"`
		Values     map[string]any `json:"values"`
		Where      string         `json:"where"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.collections.UpdateCollection(r.Context(), req.Collection, req.Values, req.Where); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteFromCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
		Where      string `json:"where"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.collections.DeleteFromCollection(r.Context(), req.Collection, req.Where); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
